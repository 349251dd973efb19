package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/loan"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
)

type Handler struct {
	service loan.Service
}

func NewHandler(service loan.Service) *Handler {
	return &Handler{service: service}
}

// ListAll - GET /loans/all
func (h *Handler) ListAll(c *gin.Context) {
	loans, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", loans)
}

// List - GET /loans
func (h *Handler) List(c *gin.Context) {
	req, err := utils.PageRequestFromQuery(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", page)
}

// ListActive - GET /loans/active
func (h *Handler) ListActive(c *gin.Context) {
	req, err := utils.PageRequestFromQuery(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	page, err := h.service.ListActive(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", page)
}

// GetByID - GET /loans/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	l, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", l)
}

// Create - POST /loans/:bookId
func (h *Handler) Create(c *gin.Context) {
	bookID, err := utils.ParseUUIDParam(c, "bookId")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	var req loan.CreateLoanRequest
	if c.Request.ContentLength != 0 {
		if err := utils.BindJSON(c, &req); err != nil {
			response.HandleError(c, err)
			return
		}
	}

	l, err := h.service.Save(c.Request.Context(), bookID, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/loans/"+l.ID.String())
	response.Success(c, http.StatusCreated, "Loan created successfully", l)
}

// Update - PUT /loans (id in body)
func (h *Handler) Update(c *gin.Context) {
	var req loan.UpdateLoanRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), req); err != nil {
		response.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete - DELETE /loans/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/book"
	"library-backend/internal/shared/pagination"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type searchFunc func(ctx context.Context, value string, req pagination.PageRequest) (pagination.Page[book.Book], error)

type Handler struct {
	service book.Service
}

func NewHandler(service book.Service) *Handler {
	return &Handler{service: service}
}

// ListAll - GET /books/all
func (h *Handler) ListAll(c *gin.Context) {
	books, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", books)
}

// List - GET /books?page=&size=&sort=
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

// GetByID - GET /books/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.HandleError(c, err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", b)
}

// FindByTitle - GET /books/find-by-title?title=
func (h *Handler) FindByTitle(c *gin.Context) {
	h.search(c, "title", h.service.FindByTitle)
}

// FindByAuthor - GET /books/find-by-author?author=
func (h *Handler) FindByAuthor(c *gin.Context) {
	h.search(c, "author", h.service.FindByAuthor)
}

// FindByGenre - GET /books/find-by-genre?genre=
func (h *Handler) FindByGenre(c *gin.Context) {
	h.search(c, "genre", h.service.FindByGenre)
}

// FindByStatus - GET /books/find-by-status?status=
func (h *Handler) FindByStatus(c *gin.Context) {
	h.search(c, "status", h.service.FindByStatus)
}

func (h *Handler) search(c *gin.Context, param string, find searchFunc) {
	req, err := utils.PageRequestFromQuery(c)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	page, err := find(c.Request.Context(), c.Query(param), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", page)
}

// Create - POST /books
func (h *Handler) Create(c *gin.Context) {
	var req book.CreateBookRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	b, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/books/"+b.ID.String())
	response.Success(c, http.StatusCreated, "Book created successfully", b)
}

// Update - PUT /books (id in body)
func (h *Handler) Update(c *gin.Context) {
	var req book.UpdateBookRequest
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

// Delete - DELETE /books/:id
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

// Statistics - GET /books/statistics
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", stats)
}

// Export - GET /books/export
func (h *Handler) Export(c *gin.Context) {
	f, err := h.service.ExportExcel(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Error("close excel file", err)
		}
	}()

	filename := fmt.Sprintf("books_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		logger.Error("write excel export", err)
	}
}

package book

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// NotNilUUID rejects the zero UUID, which validation.Required lets through.
var NotNilUUID = validation.By(func(value interface{}) error {
	if id, ok := value.(uuid.UUID); ok && id == uuid.Nil {
		return errors.New("is required")
	}
	return nil
})

// CreateBookRequest is the payload of POST /books.
// ID, OwnerID and Status are accepted for compatibility and ignored:
// the server assigns the id, the owner is the caller, new books are AVAILABLE.
type CreateBookRequest struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
	Status  string     `json:"status,omitempty"`
	Title   string     `json:"title"`
	Author  string     `json:"author"`
	Genre   string     `json:"genre"`
}

func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("title is required"), validation.RuneLength(1, 255)),
		validation.Field(&r.Author, validation.Required.Error("author is required"), validation.RuneLength(1, 255)),
		validation.Field(&r.Genre, validation.RuneLength(0, 100)),
	)
}

// UpdateBookRequest is the payload of PUT /books. Status and OwnerID are ignored.
type UpdateBookRequest struct {
	ID      uuid.UUID  `json:"id"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
	Status  string     `json:"status,omitempty"`
	Title   string     `json:"title"`
	Author  string     `json:"author"`
	Genre   string     `json:"genre"`
}

func (r UpdateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, NotNilUUID),
		validation.Field(&r.Title, validation.Required.Error("title is required"), validation.RuneLength(1, 255)),
		validation.Field(&r.Author, validation.Required.Error("author is required"), validation.RuneLength(1, 255)),
		validation.Field(&r.Genre, validation.RuneLength(0, 100)),
	)
}

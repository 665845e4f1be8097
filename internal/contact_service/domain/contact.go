package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a person in the address book.
// ID is uuid.Nil until the contact is persisted for the first time.
type Contact struct {
	ID            uuid.UUID
	Name          string
	Email         string // empty when not provided
	MobilePhone   string
	LandlinePhone string // empty when not provided
	IsFavorite    bool
	IsActive      bool
	RegisteredAt  time.Time
}

// IsNew reports whether the contact has not been stored yet.
func (c *Contact) IsNew() bool {
	return c.ID == uuid.Nil
}

// Clone returns a copy that shares no state with c.
func (c *Contact) Clone() *Contact {
	cp := *c
	return &cp
}

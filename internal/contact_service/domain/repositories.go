package domain

import (
	"context"

	"github.com/google/uuid"
)

// ContactRepository defines the interface for managing Contact data.
type ContactRepository interface {
	// GetByID returns ErrNotFound when no contact has the id, active or not.
	GetByID(ctx context.Context, id uuid.UUID) (*Contact, error)
	// FindByPhone returns nil, nil when no contact uses the phone.
	FindByPhone(ctx context.Context, phone string) (*Contact, error)
	FindByPhoneExcludingID(ctx context.Context, phone string, id uuid.UUID) (*Contact, error)
	ListActive(ctx context.Context) ([]*Contact, error)
	ListActiveFavorites(ctx context.Context) ([]*Contact, error)
	SearchActive(ctx context.Context, term string) ([]*Contact, error)
	// Save inserts a new contact (assigning ID and RegisteredAt) or updates an existing one.
	// A phone collision yields ErrDuplicateEntry.
	Save(ctx context.Context, contact *Contact) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

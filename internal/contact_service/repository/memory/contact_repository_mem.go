package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/domain"
)

const (
	contactTable = "contact"
	indexID      = "id"
	indexPhone   = "mobile_phone"
	indexName    = "name"
)

// contactRecord is the stored form; memdb indexes need string fields.
type contactRecord struct {
	ID          string
	Name        string
	MobilePhone string
	Contact     domain.Contact
}

func contactSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			contactTable: {
				Name: contactTable,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.UUIDFieldIndex{Field: "ID"},
					},
					indexPhone: {
						Name:    indexPhone,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "MobilePhone"},
					},
					indexName: {
						Name:    indexName,
						Indexer: &memdb.StringFieldIndex{Field: "Name", Lowercase: true},
					},
				},
			},
		},
	}
}

// MemContactRepository keeps contacts in a go-memdb database.
// Unique memdb secondary indexes do not reject duplicates, so phone checks
// run inside the same write transaction as the insert or update.
type MemContactRepository struct {
	db     *memdb.MemDB
	now    func() time.Time
	logger *slog.Logger
}

func NewMemContactRepository(logger *slog.Logger) (*MemContactRepository, error) {
	db, err := memdb.NewMemDB(contactSchema())
	if err != nil {
		return nil, fmt.Errorf("creating memdb: %w", err)
	}
	return &MemContactRepository{
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With("component", "contact_repository_mem"),
	}, nil
}

func toRecord(c *domain.Contact) *contactRecord {
	return &contactRecord{
		ID:          c.ID.String(),
		Name:        c.Name,
		MobilePhone: c.MobilePhone,
		Contact:     *c,
	}
}

func (rec *contactRecord) contact() *domain.Contact {
	c := rec.Contact
	return &c
}

func (r *MemContactRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Contact, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(contactTable, indexID, id.String())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, domain.ErrNotFound
	}
	return raw.(*contactRecord).contact(), nil
}

func (r *MemContactRepository) FindByPhone(_ context.Context, phone string) (*domain.Contact, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	rec, err := firstByPhone(txn, phone)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.contact(), nil
}

func (r *MemContactRepository) FindByPhoneExcludingID(_ context.Context, phone string, id uuid.UUID) (*domain.Contact, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	rec, err := firstByPhone(txn, phone)
	if err != nil || rec == nil || rec.Contact.ID == id {
		return nil, err
	}
	return rec.contact(), nil
}

func firstByPhone(txn *memdb.Txn, phone string) (*contactRecord, error) {
	if phone == "" {
		return nil, nil
	}
	raw, err := txn.First(contactTable, indexPhone, phone)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*contactRecord), nil
}

func (r *MemContactRepository) ListActive(_ context.Context) ([]*domain.Contact, error) {
	return r.scanByName(func(c *domain.Contact) bool { return c.IsActive })
}

func (r *MemContactRepository) ListActiveFavorites(_ context.Context) ([]*domain.Contact, error) {
	return r.scanByName(func(c *domain.Contact) bool { return c.IsActive && c.IsFavorite })
}

func (r *MemContactRepository) SearchActive(_ context.Context, term string) ([]*domain.Contact, error) {
	lowered := strings.ToLower(term)
	return r.scanByName(func(c *domain.Contact) bool {
		if !c.IsActive {
			return false
		}
		return strings.Contains(strings.ToLower(c.Name), lowered) || strings.Contains(c.MobilePhone, term)
	})
}

// scanByName walks the name index in order and keeps the contacts accepted by keep.
func (r *MemContactRepository) scanByName(keep func(*domain.Contact) bool) ([]*domain.Contact, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(contactTable, indexName)
	if err != nil {
		return nil, err
	}

	list := []*domain.Contact{}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		c := raw.(*contactRecord).contact()
		if keep(c) {
			list = append(list, c)
		}
	}
	return list, nil
}

// Save inserts or updates a contact. A mobile phone held by another contact yields ErrDuplicateEntry.
func (r *MemContactRepository) Save(ctx context.Context, c *domain.Contact) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	holder, err := firstByPhone(txn, c.MobilePhone)
	if err != nil {
		return err
	}

	stored := c.Clone()
	if c.IsNew() {
		if holder != nil {
			r.logger.WarnContext(ctx, "Duplicate mobile phone on insert")
			return domain.ErrDuplicateEntry
		}
		stored.ID = uuid.New()
		stored.RegisteredAt = r.now()
	} else {
		raw, err := txn.First(contactTable, indexID, c.ID.String())
		if err != nil {
			return err
		}
		if raw == nil {
			return domain.ErrNotFound
		}
		if holder != nil && holder.Contact.ID != c.ID {
			r.logger.WarnContext(ctx, "Duplicate mobile phone on update", "contact_id", c.ID)
			return domain.ErrDuplicateEntry
		}
		// registered_at is immutable once stored.
		stored.RegisteredAt = raw.(*contactRecord).Contact.RegisteredAt
	}

	if err := txn.Insert(contactTable, toRecord(stored)); err != nil {
		return fmt.Errorf("storing contact: %w", err)
	}
	txn.Commit()

	c.ID = stored.ID
	c.RegisteredAt = stored.RegisteredAt
	return nil
}

func (r *MemContactRepository) Delete(_ context.Context, id uuid.UUID) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(contactTable, indexID, id.String())
	if err != nil {
		return err
	}
	if raw == nil {
		return domain.ErrNotFound
	}
	if err := txn.Delete(contactTable, raw); err != nil {
		if errors.Is(err, memdb.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	txn.Commit()
	return nil
}

func (r *MemContactRepository) Ping(_ context.Context) error {
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/domain"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/platform/database"
)

const uniqueViolation = "23505"

// Optional text columns are stored as NULL and read back as "".
const contactColumns = `id, name, COALESCE(email, ''), mobile_phone, COALESCE(landline_phone, ''), is_favorite, is_active, registered_at`

type PgContactRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgContactRepository(db database.DBTX, logger *slog.Logger) *PgContactRepository {
	return &PgContactRepository{db: db, logger: logger.With("component", "contact_repository_pg")}
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.MobilePhone, &c.LandlinePhone,
		&c.IsFavorite, &c.IsActive, &c.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PgContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Contact not found", "contact_id", id)
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting contact by ID", "error", err, "contact_id", id)
		return nil, fmt.Errorf("get contact %s: %w", id, err)
	}
	return c, nil
}

func (r *PgContactRepository) FindByPhone(ctx context.Context, phone string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE mobile_phone = $1`
	return r.findOne(ctx, query, phone)
}

func (r *PgContactRepository) FindByPhoneExcludingID(ctx context.Context, phone string, id uuid.UUID) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE mobile_phone = $1 AND id <> $2`
	return r.findOne(ctx, query, phone, id)
}

// findOne returns nil, nil when the query yields no row.
func (r *PgContactRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Error finding contact by phone", "error", err)
		return nil, fmt.Errorf("find contact by phone: %w", err)
	}
	return c, nil
}

func (r *PgContactRepository) ListActive(ctx context.Context) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE is_active ORDER BY name ASC`
	return r.list(ctx, "list active", query)
}

func (r *PgContactRepository) ListActiveFavorites(ctx context.Context) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE is_active AND is_favorite ORDER BY name ASC`
	return r.list(ctx, "list favorites", query)
}

// SearchActive matches the term literally: case-insensitive against name, as-is against mobile_phone.
func (r *PgContactRepository) SearchActive(ctx context.Context, term string) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE is_active AND (strpos(LOWER(name), LOWER($1)) > 0 OR strpos(mobile_phone, $1) > 0)
		ORDER BY name ASC`
	return r.list(ctx, "search", query, term)
}

func (r *PgContactRepository) list(ctx context.Context, op, query string, args ...any) ([]*domain.Contact, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error querying contacts", "op", op, "error", err)
		return nil, fmt.Errorf("%s contacts: %w", op, err)
	}
	defer rows.Close()

	contacts := make([]*domain.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Error scanning contact row", "op", op, "error", err)
			return nil, fmt.Errorf("%s contacts: %w", op, err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating contact rows", "op", op, "error", err)
		return nil, fmt.Errorf("%s contacts: %w", op, err)
	}
	return contacts, nil
}

// Save inserts a new contact or updates an existing one.
// On insert the id is generated here and registered_at comes from the database.
func (r *PgContactRepository) Save(ctx context.Context, c *domain.Contact) error {
	if c.IsNew() {
		return r.insert(ctx, c)
	}
	return r.update(ctx, c)
}

func (r *PgContactRepository) insert(ctx context.Context, c *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, name, email, mobile_phone, landline_phone, is_favorite, is_active)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7)
		RETURNING registered_at
	`
	id := uuid.New()
	err := r.db.QueryRow(ctx, query,
		id, c.Name, c.Email, c.MobilePhone, c.LandlinePhone, c.IsFavorite, c.IsActive,
	).Scan(&c.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.WarnContext(ctx, "Duplicate mobile phone on insert", "error", err)
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error creating contact", "error", err)
		return fmt.Errorf("insert contact: %w", err)
	}
	c.ID = id
	r.logger.InfoContext(ctx, "Contact created successfully", "contact_id", c.ID)
	return nil
}

func (r *PgContactRepository) update(ctx context.Context, c *domain.Contact) error {
	query := `
		UPDATE contacts
		SET name = $1, email = NULLIF($2, ''), mobile_phone = $3, landline_phone = NULLIF($4, ''),
		    is_favorite = $5, is_active = $6
		WHERE id = $7
	`
	tag, err := r.db.Exec(ctx, query,
		c.Name, c.Email, c.MobilePhone, c.LandlinePhone, c.IsFavorite, c.IsActive, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.WarnContext(ctx, "Duplicate mobile phone on update", "error", err, "contact_id", c.ID)
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error updating contact", "error", err, "contact_id", c.ID)
		return fmt.Errorf("update contact %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Contact not found for update", "contact_id", c.ID)
		return domain.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Contact updated successfully", "contact_id", c.ID)
	return nil
}

func (r *PgContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting contact", "error", err, "contact_id", id)
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Contact deleted", "contact_id", id)
	return nil
}

func (r *PgContactRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

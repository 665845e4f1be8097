package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/domain"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/dto"
)

const (
	msgPhoneTakenOnCreate = "Já existe um contato cadastrado com este celular"
	msgPhoneTakenOnUpdate = "Já existe outro contato cadastrado com este celular"
)

// Application provides the contact management operations.
type Application struct {
	contactRepo domain.ContactRepository
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewApplication creates a new Application instance.
func NewApplication(repo domain.ContactRepository, logger *slog.Logger) *Application {
	return &Application{
		contactRepo: repo,
		validate:    NewValidator(),
		logger:      logger.With("component", "contact_app"),
	}
}

// ListAll returns the active contacts ordered by name.
func (a *Application) ListAll(ctx context.Context) (out []*dto.ContactDTO, err error) {
	defer func() { observe("list_all", err) }()

	contacts, err := a.contactRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Listed active contacts", "count", len(contacts))
	return dto.ToDTOList(contacts), nil
}

// ListFavorites returns the active favorite contacts ordered by name.
func (a *Application) ListFavorites(ctx context.Context) (out []*dto.ContactDTO, err error) {
	defer func() { observe("list_favorites", err) }()

	contacts, err := a.contactRepo.ListActiveFavorites(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Listed favorite contacts", "count", len(contacts))
	return dto.ToDTOList(contacts), nil
}

// GetByID returns a contact regardless of its active flag.
func (a *Application) GetByID(ctx context.Context, id uuid.UUID) (out *dto.ContactDTO, err error) {
	defer func() { observe("get", err) }()

	c, err := a.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToDTO(c), nil
}

// Search matches active contacts by name (case-insensitive) or mobile phone.
// A blank term matches every active contact.
func (a *Application) Search(ctx context.Context, term string) (out []*dto.ContactDTO, err error) {
	defer func() { observe("search", err) }()

	contacts, err := a.contactRepo.SearchActive(ctx, term)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Searched contacts", "term", term, "count", len(contacts))
	return dto.ToDTOList(contacts), nil
}

// Create validates the input, checks that the mobile phone is free and stores a new contact.
// Omitted flags default to favorito=false and ativo=true.
func (a *Application) Create(ctx context.Context, in *dto.ContactDTO) (out *dto.ContactDTO, err error) {
	defer func() { observe("create", err) }()

	if err := a.validateContact(in); err != nil {
		return nil, err
	}

	existing, err := a.contactRepo.FindByPhone(ctx, in.Celular)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		a.logger.WarnContext(ctx, "Mobile phone already registered", "existing_id", existing.ID)
		return nil, domain.NewConflictError(msgPhoneTakenOnCreate)
	}

	c := dto.ToEntity(in)
	if in.Ativo == nil {
		c.IsActive = true
	}

	if err := a.contactRepo.Save(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, domain.NewConflictError(msgPhoneTakenOnCreate)
		}
		return nil, err
	}

	a.logger.InfoContext(ctx, "Contact created", "contact_id", c.ID)
	return dto.ToDTO(c), nil
}

// Update overwrites the editable fields of a contact. Flags change only when sent.
func (a *Application) Update(ctx context.Context, id uuid.UUID, in *dto.ContactDTO) (out *dto.ContactDTO, err error) {
	defer func() { observe("update", err) }()

	if err := a.validateContact(in); err != nil {
		return nil, err
	}

	c, err := a.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.MobilePhone != in.Celular {
		other, err := a.contactRepo.FindByPhoneExcludingID(ctx, in.Celular, id)
		if err != nil {
			return nil, err
		}
		if other != nil {
			a.logger.WarnContext(ctx, "Mobile phone used by another contact", "contact_id", id, "other_id", other.ID)
			return nil, domain.NewConflictError(msgPhoneTakenOnUpdate)
		}
	}

	c.Name = in.Nome
	c.Email = in.Email
	c.MobilePhone = in.Celular
	c.LandlinePhone = in.Telefone
	if in.Favorito != nil {
		c.IsFavorite = *in.Favorito
	}
	if in.Ativo != nil {
		c.IsActive = *in.Ativo
	}

	if err := a.contactRepo.Save(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, domain.NewConflictError(msgPhoneTakenOnUpdate)
		}
		return nil, err
	}

	a.logger.InfoContext(ctx, "Contact updated", "contact_id", id)
	return dto.ToDTO(c), nil
}

// Inactivate soft-deletes a contact. Inactivating an inactive contact is a no-op success.
func (a *Application) Inactivate(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { observe("inactivate", err) }()

	c, err := a.contactRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	c.IsActive = false
	if err := a.contactRepo.Save(ctx, c); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Contact inactivated", "contact_id", id)
	return nil
}

// ToggleFavorite flips the favorite flag and returns the updated contact.
func (a *Application) ToggleFavorite(ctx context.Context, id uuid.UUID) (out *dto.ContactDTO, err error) {
	defer func() { observe("toggle_favorite", err) }()

	c, err := a.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.IsFavorite = !c.IsFavorite
	if err := a.contactRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Contact favorite toggled", "contact_id", id, "favorite", c.IsFavorite)
	return dto.ToDTO(c), nil
}

// Ping checks that storage is reachable.
func (a *Application) Ping(ctx context.Context) error {
	return a.contactRepo.Ping(ctx)
}

package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/domain"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/dto"
)

// --- Mocks ---

type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByPhone(ctx context.Context, phone string) (*domain.Contact, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByPhoneExcludingID(ctx context.Context, phone string, id uuid.UUID) (*domain.Contact, error) {
	args := m.Called(ctx, phone, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) ListActive(ctx context.Context) ([]*domain.Contact, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) ListActiveFavorites(ctx context.Context) ([]*domain.Contact, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) SearchActive(ctx context.Context, term string) ([]*domain.Contact, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) Save(ctx context.Context, c *domain.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContactRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Test Setup ---

func setupContactAppTest(t *testing.T) (*Application, *MockContactRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := new(MockContactRepository)
	return NewApplication(repo, logger), repo
}

func assignIdentity(id uuid.UUID, at time.Time) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		c := args.Get(1).(*domain.Contact)
		c.ID = id
		c.RegisteredAt = at
	}
}

func boolp(b bool) *bool { return &b }

// --- Create ---

func TestCreate_Success_AppliesDefaults(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	newID := uuid.New()
	now := time.Now().UTC()

	repo.On("FindByPhone", ctx, "11999999999").Return(nil, nil).Once()
	repo.On("Save", ctx, mock.MatchedBy(func(c *domain.Contact) bool {
		return c.IsNew() && c.Name == "João Silva" && c.IsActive && !c.IsFavorite
	})).Run(assignIdentity(newID, now)).Return(nil).Once()

	out, err := a.Create(ctx, &dto.ContactDTO{Nome: "João Silva", Celular: "11999999999"})
	require.NoError(t, err)
	require.NotNil(t, out.ID)
	assert.Equal(t, newID, *out.ID)
	assert.True(t, *out.Ativo)
	assert.False(t, *out.Favorito)
	require.NotNil(t, out.DataCadastro)
	assert.Equal(t, now, *out.DataCadastro)
	repo.AssertExpectations(t)
}

func TestCreate_ExplicitFlagsKept(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()

	repo.On("FindByPhone", ctx, "11999999999").Return(nil, nil).Once()
	repo.On("Save", ctx, mock.MatchedBy(func(c *domain.Contact) bool {
		return c.IsFavorite && !c.IsActive
	})).Run(assignIdentity(uuid.New(), time.Now())).Return(nil).Once()

	out, err := a.Create(ctx, &dto.ContactDTO{Nome: "Ana", Celular: "11999999999", Favorito: boolp(true), Ativo: boolp(false)})
	require.NoError(t, err)
	assert.True(t, *out.Favorito)
	assert.False(t, *out.Ativo)
	repo.AssertExpectations(t)
}

func TestCreate_DuplicatePhone_Conflict(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	existing := &domain.Contact{ID: uuid.New(), MobilePhone: "11999999999", IsActive: false}

	repo.On("FindByPhone", ctx, "11999999999").Return(existing, nil).Once()

	out, err := a.Create(ctx, &dto.ContactDTO{Nome: "Outro", Celular: "11999999999"})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, "Já existe um contato cadastrado com este celular", err.Error())
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreate_StorageUniqueViolation_TranslatedToConflict(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()

	repo.On("FindByPhone", ctx, "11999999999").Return(nil, nil).Once()
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Contact")).Return(domain.ErrDuplicateEntry).Once()

	_, err := a.Create(ctx, &dto.ContactDTO{Nome: "Ana", Celular: "11999999999"})
	require.Error(t, err)
	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Já existe um contato cadastrado com este celular", ce.Message)
	repo.AssertExpectations(t)
}

func TestCreate_ValidationReportsAllFields(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()

	_, err := a.Create(ctx, &dto.ContactDTO{Nome: "   ", Email: "not-an-email", Celular: "", Telefone: "123"})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"nome":     "Nome é obrigatório",
		"email":    "Email deve ser válido",
		"celular":  "Celular é obrigatório",
		"telefone": "Telefone deve ter 10 dígitos",
	}, verr.Fields)
	repo.AssertNotCalled(t, "FindByPhone", mock.Anything, mock.Anything)
}

func TestCreate_ValidationRules(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name  string
		in    dto.ContactDTO
		field string
		want  string
	}{
		{"name too long", dto.ContactDTO{Nome: string(long), Celular: "11999999999"}, "nome", "Nome deve ter no máximo 100 caracteres"},
		{"mobile with letters", dto.ContactDTO{Nome: "Ana", Celular: "1199999999a"}, "celular", "Celular deve ter 11 dígitos"},
		{"mobile too short", dto.ContactDTO{Nome: "Ana", Celular: "1199999"}, "celular", "Celular deve ter 11 dígitos"},
		{"landline too long", dto.ContactDTO{Nome: "Ana", Celular: "11999999999", Telefone: "11333344445"}, "telefone", "Telefone deve ter 10 dígitos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := setupContactAppTest(t)
			in := tt.in
			_, err := a.Create(context.Background(), &in)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.want, verr.Fields[tt.field])
		})
	}
}

func TestCreate_NameLimitCountsCharacters(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	name := ""
	for i := 0; i < 100; i++ {
		name += "ã"
	}

	repo.On("FindByPhone", ctx, "11999999999").Return(nil, nil).Once()
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Contact")).Run(assignIdentity(uuid.New(), time.Now())).Return(nil).Once()

	_, err := a.Create(ctx, &dto.ContactDTO{Nome: name, Celular: "11999999999"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// --- Update ---

func TestUpdate_WithoutFlags_LeavesFlagsUnchanged(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	id := uuid.New()
	registered := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	stored := &domain.Contact{ID: id, Name: "Ana", MobilePhone: "11999999999", IsFavorite: true, IsActive: true, RegisteredAt: registered}

	repo.On("GetByID", ctx, id).Return(stored, nil).Once()
	repo.On("Save", ctx, mock.MatchedBy(func(c *domain.Contact) bool {
		return c.ID == id && c.Name == "Ana Paula" && c.IsFavorite && c.IsActive && c.RegisteredAt.Equal(registered)
	})).Return(nil).Once()

	out, err := a.Update(ctx, id, &dto.ContactDTO{Nome: "Ana Paula", Celular: "11999999999"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Paula", out.Nome)
	assert.True(t, *out.Favorito)
	assert.Equal(t, registered, *out.DataCadastro)
	repo.AssertNotCalled(t, "FindByPhoneExcludingID", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestUpdate_PhoneTakenByOther_Conflict(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(&domain.Contact{ID: id, Name: "Ana", MobilePhone: "11999999999", IsActive: true}, nil).Once()
	repo.On("FindByPhoneExcludingID", ctx, "11888888888", id).Return(&domain.Contact{ID: uuid.New()}, nil).Once()

	_, err := a.Update(ctx, id, &dto.ContactDTO{Nome: "Ana", Celular: "11888888888"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, "Já existe outro contato cadastrado com este celular", err.Error())
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdate_NewPhoneFree_FlagsApplied(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(&domain.Contact{ID: id, Name: "Ana", MobilePhone: "11999999999", IsActive: true}, nil).Once()
	repo.On("FindByPhoneExcludingID", ctx, "11888888888", id).Return(nil, nil).Once()
	repo.On("Save", ctx, mock.MatchedBy(func(c *domain.Contact) bool {
		return c.MobilePhone == "11888888888" && c.IsFavorite && !c.IsActive
	})).Return(nil).Once()

	out, err := a.Update(ctx, id, &dto.ContactDTO{Nome: "Ana", Celular: "11888888888", Favorito: boolp(true), Ativo: boolp(false)})
	require.NoError(t, err)
	assert.Equal(t, "11888888888", out.Celular)
	repo.AssertExpectations(t)
}

func TestUpdate_NotFound(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(nil, domain.ErrNotFound).Once()

	_, err := a.Update(ctx, id, &dto.ContactDTO{Nome: "Ana", Celular: "11999999999"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestUpdate_InvalidInputRejectedBeforeLookup(t *testing.T) {
	a, repo := setupContactAppTest(t)

	_, err := a.Update(context.Background(), uuid.New(), &dto.ContactDTO{Nome: "Ana", Celular: "123"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// --- Inactivate / ToggleFavorite ---

func TestInactivate_Idempotent(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	id := uuid.New()
	stored := &domain.Contact{ID: id, Name: "Ana", MobilePhone: "11999999999", IsActive: true}

	repo.On("GetByID", ctx, id).Return(stored, nil).Twice()
	repo.On("Save", ctx, mock.MatchedBy(func(c *domain.Contact) bool { return !c.IsActive })).Return(nil).Twice()

	require.NoError(t, a.Inactivate(ctx, id))
	assert.False(t, stored.IsActive)
	require.NoError(t, a.Inactivate(ctx, id))
	assert.False(t, stored.IsActive)
	repo.AssertExpectations(t)
}

func TestInactivate_NotFound(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(nil, domain.ErrNotFound).Once()

	assert.ErrorIs(t, a.Inactivate(ctx, id), domain.ErrNotFound)
}

func TestToggleFavorite(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(&domain.Contact{ID: id, Name: "Ana", MobilePhone: "11999999999", IsActive: true}, nil).Once()
	repo.On("Save", ctx, mock.MatchedBy(func(c *domain.Contact) bool { return c.IsFavorite })).Return(nil).Once()

	out, err := a.ToggleFavorite(ctx, id)
	require.NoError(t, err)
	assert.True(t, *out.Favorito)
	repo.AssertExpectations(t)
}

// --- Reads ---

func TestListAll_MapsContacts(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()

	repo.On("ListActive", ctx).Return([]*domain.Contact{
		{ID: uuid.New(), Name: "Ana", MobilePhone: "11911111111", IsActive: true},
		{ID: uuid.New(), Name: "Bia", MobilePhone: "11922222222", IsActive: true},
	}, nil).Once()

	out, err := a.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Ana", out[0].Nome)
	assert.Equal(t, "Bia", out[1].Nome)
}

func TestListFavorites_EmptyIsEmptySlice(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()

	repo.On("ListActiveFavorites", ctx).Return([]*domain.Contact{}, nil).Once()

	out, err := a.ListFavorites(ctx)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSearch_PassesTermThrough(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()

	repo.On("SearchActive", ctx, "joão").Return([]*domain.Contact{{ID: uuid.New(), Name: "João Silva"}}, nil).Once()

	out, err := a.Search(ctx, "joão")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "João Silva", out[0].Nome)
}

func TestGetByID_RepositoryError(t *testing.T) {
	a, repo := setupContactAppTest(t)
	ctx := context.Background()
	id := uuid.New()
	dbErr := errors.New("connection reset")

	repo.On("GetByID", ctx, id).Return(nil, dbErr).Once()

	_, err := a.GetByID(ctx, id)
	assert.ErrorIs(t, err, dbErr)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", resultLabel(nil))
	assert.Equal(t, "not_found", resultLabel(domain.ErrNotFound))
	assert.Equal(t, "conflict", resultLabel(domain.NewConflictError("x")))
	assert.Equal(t, "invalid", resultLabel(&domain.ValidationError{}))
	assert.Equal(t, "error", resultLabel(errors.New("boom")))
}

package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/domain"
)

// ContactDTO is the wire representation of a contact.
// Favorito and Ativo are pointers so that an omitted flag can be told apart from false.
type ContactDTO struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	Nome         string     `json:"nome" validate:"notblank,max=100"`
	Email        string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Celular      string     `json:"celular" validate:"notblank,digits=11"`
	Telefone     string     `json:"telefone,omitempty" validate:"omitempty,digits=10"`
	Favorito     *bool      `json:"favorito,omitempty"`
	Ativo        *bool      `json:"ativo,omitempty"`
	DataCadastro *time.Time `json:"dataCadastro,omitempty"`
}

// ToEntity copies the client-settable fields. ID and RegisteredAt are left zero.
func ToEntity(d *ContactDTO) *domain.Contact {
	return &domain.Contact{
		Name:          d.Nome,
		Email:         d.Email,
		MobilePhone:   d.Celular,
		LandlinePhone: d.Telefone,
		IsFavorite:    boolValue(d.Favorito),
		IsActive:      boolValue(d.Ativo),
	}
}

// ToDTO copies every field of the entity, including ID and RegisteredAt.
func ToDTO(c *domain.Contact) *ContactDTO {
	d := &ContactDTO{
		Nome:     c.Name,
		Email:    c.Email,
		Celular:  c.MobilePhone,
		Telefone: c.LandlinePhone,
		Favorito: boolPtr(c.IsFavorite),
		Ativo:    boolPtr(c.IsActive),
	}
	if c.ID != uuid.Nil {
		id := c.ID
		d.ID = &id
	}
	if !c.RegisteredAt.IsZero() {
		ts := c.RegisteredAt
		d.DataCadastro = &ts
	}
	return d
}

// ToDTOList maps a slice of entities. The result is never nil.
func ToDTOList(contacts []*domain.Contact) []*ContactDTO {
	out := make([]*ContactDTO, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, ToDTO(c))
	}
	return out
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

func boolPtr(b bool) *bool {
	return &b
}

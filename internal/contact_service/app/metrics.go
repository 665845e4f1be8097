package app

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/domain"
)

var contactOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contacts_operations_total",
		Help: "Total number of contact service operations by outcome.",
	},
	[]string{"operation", "result"},
)

func observe(operation string, err error) {
	contactOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

package service

import (
	"time"

	"github.com/google/uuid"
)

const layoutFecha = "2006-01-02"

func parseFecha(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(layoutFecha, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatFecha(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(layoutFecha)
	return &s
}

func parseUUID(campo, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errValidacion(campo, "Identificador invalido")
	}
	return id, nil
}

func ptr[T any](v T) *T { return &v }

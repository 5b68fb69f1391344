package service

import (
	"errors"
	"fmt"

	"aguabill/internal/repository"
)

// ErrorKind classifies service failures so the HTTP layer can pick a status.
type ErrorKind int

const (
	KindInterno ErrorKind = iota
	KindValidacion
	KindConflicto
	KindConfiguracion
	KindNoEncontrado
	// KindNoDisponible is an external dependency failing (registry down).
	KindNoDisponible
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidacion:
		return "validacion"
	case KindConflicto:
		return "conflicto"
	case KindConfiguracion:
		return "configuracion"
	case KindNoEncontrado:
		return "no_encontrado"
	case KindNoDisponible:
		return "no_disponible"
	default:
		return "interno"
	}
}

// Error is the error type returned by services. Campo names the request
// field a validation error refers to, empty for global errors.
type Error struct {
	Kind    ErrorKind
	Campo   string
	Mensaje string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Mensaje, e.Err)
	}
	return e.Mensaje
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, &service.Error{Kind: service.KindConflicto}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Mensaje == "" || t.Mensaje == e.Mensaje)
}

// KindOf returns the kind of err, KindInterno for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if repository.EsViolacionUnica(err) {
		return KindConflicto
	}
	if repository.EsNoEncontrado(err) {
		return KindNoEncontrado
	}
	return KindInterno
}

func errValidacion(campo, msg string) *Error {
	return &Error{Kind: KindValidacion, Campo: campo, Mensaje: msg}
}

func errConflicto(msg string) *Error {
	return &Error{Kind: KindConflicto, Mensaje: msg}
}

func errNoEncontrado(msg string) *Error {
	return &Error{Kind: KindNoEncontrado, Mensaje: msg}
}

func errConfiguracion(msg string) *Error {
	return &Error{Kind: KindConfiguracion, Mensaje: msg}
}

// noEncontrado maps a missing-row error to a KindNoEncontrado with msg and
// passes every other error through.
func noEncontrado(err error, msg string) error {
	if repository.EsNoEncontrado(err) {
		return errNoEncontrado(msg)
	}
	return err
}

package domain

import (
	"errors"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidState      = errors.New("operación no permitida en el estado actual del documento")
	ErrRemoteUnavailable = errors.New("servicio de timbrado no disponible")
)

// ValidationError agrupa errores de validación por campo (nombre de campo del payload → mensaje).
// Se usa igual para validaciones locales y para errores de campo devueltos por el PAC.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError crea un error con un único campo.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add registra un mensaje para el campo; conserva el primero si ya existía.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Merge copia los campos de otro ValidationError.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for f, m := range other.Fields {
		e.Add(f, m)
	}
}

// Has indica si hay error registrado para el campo.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// OrNil devuelve nil si no hay campos con error (evita el nil tipado en interfaces error).
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validación: " + strings.Join(parts, "; ")
}

// RemoteValidationError errores de validación estructurados devueltos por el servicio remoto.
// Se reporta con la misma forma (campo → mensaje) que ValidationError.
type RemoteValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *RemoteValidationError) Error() string {
	if e.Message != "" {
		return "servicio remoto: " + e.Message
	}
	return "servicio remoto: datos rechazados"
}

// AsValidation convierte el error remoto al modelo de error por campo.
func (e *RemoteValidationError) AsValidation() *ValidationError {
	ve := &ValidationError{Fields: make(map[string]string, len(e.Fields))}
	for f, m := range e.Fields {
		ve.Add(f, m)
	}
	if len(ve.Fields) == 0 {
		msg := e.Message
		if msg == "" {
			msg = "rechazado por el servicio de timbrado"
		}
		ve.Add("general", msg)
	}
	return ve
}

// FieldErrors extrae el mapa campo → mensaje de un error local o remoto.
// Devuelve nil si err no es un error de validación.
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	var re *RemoteValidationError
	if errors.As(err, &re) {
		return re.AsValidation().Fields
	}
	return nil
}

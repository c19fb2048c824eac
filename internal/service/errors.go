package service

import (
	"errors"
	"fmt"
)

// Business-rule failures recovered at the service boundary and mapped to HTTP
// status codes in the handlers. Allocation failures (CAI agotada / vencida /
// inactiva / no encontrada) are defined next to the allocator in the
// repository package and propagate through here untouched.
var (
	// ErrTransicionInvalida: illegal lifecycle move, e.g. voiding a factura
	// that is no longer vigente.
	ErrTransicionInvalida = errors.New("transicion de estado invalida")

	ErrFacturaNoEncontrada = errors.New("factura no encontrada")
)

// ValidacionError carries field-attributable messages for malformed input.
// It is always raised before any mutation: a request that fails validation
// never consumes a correlative.
type ValidacionError struct {
	Fields map[string]string
}

func (e *ValidacionError) Error() string {
	return fmt.Sprintf("error de validacion en %d campo(s)", len(e.Fields))
}

func nuevaValidacion() *ValidacionError {
	return &ValidacionError{Fields: make(map[string]string)}
}

func (e *ValidacionError) add(campo, msg string) { e.Fields[campo] = msg }

func (e *ValidacionError) vacio() bool { return len(e.Fields) == 0 }

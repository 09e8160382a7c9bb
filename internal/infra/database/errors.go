package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	pgUniqueViolation   = "23505"
	pgUndefinedFunction = "42883"
	pgRaiseException    = "P0001"
)

func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

// raisedMessage devuelve el texto de un RAISE EXCEPTION de plpgsql.
func raisedMessage(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgRaiseException {
		return strings.TrimSpace(pqErr.Message)
	}
	return ""
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

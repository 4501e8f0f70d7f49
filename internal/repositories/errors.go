package repositories

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isMalformedID reports whether the database rejected an identifier that is not a UUID.
func isMalformedID(err error) bool {
	return pgErrorCode(err) == codeInvalidText
}

// validID reports whether id can reference a row. Every key in the schema is a UUID.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

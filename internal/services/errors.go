package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Category sentinels. Services wrap them with context via fmt.Errorf
// ("%w: detail"); handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// isDuplicateKey reports whether err is a storage-level unique
// constraint violation. The unique index is the real guard for
// invariants like one ballot per (participant, question); application
// checks before insert are a courtesy, so a race that slips past them
// must still surface as a conflict rather than an internal error.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

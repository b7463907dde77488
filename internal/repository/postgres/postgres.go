// Package postgres implements the repository interfaces over database/sql
// with parameterized queries. No business logic lives here beyond the
// storage-layer invariants (uniqueness, folder/department pairing).
package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"digiarchive/internal/apperr"
)

// IsNoRowsError reports whether err is sql.ErrNoRows.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// uniqueViolation translates a PostgreSQL unique-constraint violation into a
// ValidationError naming the field; other errors pass through unchanged.
func uniqueViolation(err error, field string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Validation(field, "already exists")
	}
	return err
}

func nullStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

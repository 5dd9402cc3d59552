// Package repository provides data access layer implementations for the blog.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned by every backend when the addressed row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// pgForeignKeyViolation is raised when a comment or like references a deleted post.
const pgForeignKeyViolation = "23503"

// translate folds driver-specific errors into the package's sentinel errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrNotFound
	}
	return err
}

// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"collegeconnect/internal/database"
	"collegeconnect/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// lockForUpdate adds FOR UPDATE on PostgreSQL. SQLite serializes writers
// already and rejects the clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if isPostgres(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// isUniqueViolation reports whether err is a unique index violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key")
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound AppError and wraps
// anything else as Internal. AppErrors pass through unchanged.
func notFoundOr(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

func internal(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// containsPattern builds a case-insensitive LIKE pattern, escaping wildcards.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(s))) + "%"
}

// Paging is a validated page window.
type Paging struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip.
func (p Paging) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

func (p Paging) apply(db *gorm.DB) *gorm.DB {
	return db.Limit(p.Limit).Offset(p.Offset())
}

// NewPage wraps items with the window they were fetched for.
func NewPage[T any](items []T, total int64, p Paging) models.Page[T] {
	if items == nil {
		items = []T{}
	}
	return models.Page[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}

// ilike is a portable case-insensitive match condition for column against a
// containsPattern argument.
func ilike(column string) string {
	return "LOWER(" + column + `) LIKE ? ESCAPE '\'`
}

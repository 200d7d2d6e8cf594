// Package repository persists the domain models through gorm. Every write
// that touches more than one row runs inside a single transaction.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicate            = errors.New("unique constraint violated")
	ErrForeignKey           = errors.New("foreign key constraint violated")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// Store wraps the gorm handle shared by all repositories
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and tests
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database answers
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate maps driver and gorm errors onto the repository sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "duplicate key"):
		return fmt.Errorf("%w: %s", ErrDuplicate, err.Error())
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(msg, "foreign key constraint"):
		return fmt.Errorf("%w: %s", ErrForeignKey, err.Error())
	}
	return err
}

// Get loads a row by primary key, preloading the named associations
func Get[T any](ctx context.Context, s *Store, id uint, preloads ...string) (*T, error) {
	q := s.db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var v T
	if err := q.First(&v, id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// List returns rows ordered by id. scope may narrow the query and can be nil.
func List[T any](ctx context.Context, s *Store, scope func(*gorm.DB) *gorm.DB, preloads ...string) ([]T, error) {
	q := s.db.WithContext(ctx).Model(new(T))
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if scope != nil {
		q = scope(q)
	}
	items := make([]T, 0)
	if err := q.Order("id asc").Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	return items, nil
}

// Create inserts v and fills its id and timestamps
func Create[T any](ctx context.Context, s *Store, v *T) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error)
}

// Update writes every column of v keyed by its primary key
func Update[T any](ctx context.Context, s *Store, v *T) error {
	return update(s.db.WithContext(ctx), v)
}

func update[T any](tx *gorm.DB, v *T) error {
	res := tx.Model(v).Select("*").Omit("created_at", clause.Associations).Updates(v)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row with the given id
func Delete[T any](ctx context.Context, s *Store, id uint) error {
	res := s.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether a row with the given id is present
func Exists[T any](ctx context.Context, s *Store, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

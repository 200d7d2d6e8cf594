package config

import (
	"context"
	"errors"
	"fmt"

	"book-a-meal-api/models"
	"book-a-meal-api/repository"
)

// PasswordHasher is the subset of the auth hasher needed to seed accounts
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// SeedCaterer creates the designated caterer unless an account with its
// email already exists. It is skipped when no password is configured.
func SeedCaterer(ctx context.Context, store *repository.Store, hasher PasswordHasher, c CatererConfig) (bool, error) {
	if c.Password == "" {
		return false, nil
	}
	_, err := store.UserByEmail(ctx, c.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to look up caterer: %w", err)
	}

	hash, err := hasher.Hash(c.Password)
	if err != nil {
		return false, fmt.Errorf("failed to hash caterer password: %w", err)
	}
	user := &models.User{
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: hash,
		Role:         models.RoleCaterer,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return false, fmt.Errorf("failed to create caterer: %w", err)
	}
	return true, nil
}

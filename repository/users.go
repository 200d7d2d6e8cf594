package repository

import (
	"context"

	"book-a-meal-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	return Get[models.User](ctx, s, id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) UserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("token = ? AND token <> ''", token).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return Create(ctx, s, user)
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return Update(ctx, s, user)
}

func (s *Store) UserExists(ctx context.Context, id uint) (bool, error) {
	return Exists[models.User](ctx, s, id)
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, translate(err)
}

// RevokeToken blacklists a token identifier. Revoking twice is not an error.
func (s *Store) RevokeToken(ctx context.Context, jti string) error {
	entry := models.Blacklist{Token: jti}
	return translate(s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&entry).Error)
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Blacklist{}).Where("token = ?", jti).Count(&count).Error
	return count > 0, translate(err)
}

func (s *Store) CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) error {
	return Create(ctx, s, reset)
}

func (s *Store) PasswordResetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := s.db.WithContext(ctx).Preload("User").Where("token = ?", token).First(&reset).Error; err != nil {
		return nil, translate(err)
	}
	return &reset, nil
}

// CompletePasswordReset stores the new hash and consumes every pending reset of the user
func (s *Store) CompletePasswordReset(ctx context.Context, reset *models.PasswordReset, passwordHash string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password_hash", passwordHash)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return translate(tx.Where("user_id = ?", reset.UserID).Delete(&models.PasswordReset{}).Error)
	})
}

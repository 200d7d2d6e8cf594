// Package auth verifies credentials, issues and revokes access tokens and
// resolves the caller behind a token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/mailer"
	"book-a-meal-api/models"
	"book-a-meal-api/policy"
	"book-a-meal-api/repository"
	"book-a-meal-api/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgMissingToken     = "Missing Authorization Header"
	MsgInvalidToken     = "Invalid or expired token"
	MsgRevokedToken     = "Token has been revoked"
	MsgBadCredentials   = "Invalid credentials"
	MsgUnknownResetLink = "Invalid or expired password reset token"
	MsgUnknownVerifyKey = "Invalid verification token"
)

// Session is the result of a successful login
type Session struct {
	AccessToken string
	Claims      *Claims
	User        *models.User
}

// Links are the front-end URLs the mail templates point at
type Links struct {
	EmailVerification string
	PasswordReset     string
}

// Service implements the identity and session operations
type Service struct {
	store     *repository.Store
	validator *validation.Validator
	hasher    Hasher
	tokens    *TokenManager
	mail      mailer.Sender
	links     Links
	logger    *zap.Logger
}

func NewService(
	store *repository.Store,
	validator *validation.Validator,
	hasher Hasher,
	tokens *TokenManager,
	mail mailer.Sender,
	links Links,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:     store,
		validator: validator,
		hasher:    hasher,
		tokens:    tokens,
		mail:      mail,
		links:     links,
		logger:    logger,
	}
}

// Register creates a customer account and mails an email verification link
func (s *Service) Register(ctx context.Context, fields validation.Fields) (*models.User, error) {
	in, err := s.validator.Signup(ctx, fields)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		Token:        uuid.NewString(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Validation("This email has already been used")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	s.sendMail(ctx, mailer.EmailVerification, user, s.links.EmailVerification+user.Token)
	return user, nil
}

// Login checks the credentials and issues a new access token
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Authentication(MsgBadCredentials)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.Authentication(MsgBadCredentials)
	}

	token, claims, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return &Session{AccessToken: token, Claims: claims, User: user}, nil
}

// Logout blacklists the token identified by claims. Once it has run, the
// token no longer resolves, so a second logout fails as unauthenticated.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return apperrors.Authentication(MsgInvalidToken)
	}
	if err := s.store.RevokeToken(ctx, claims.ID); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to revoke token: %w", err))
	}
	return nil
}

// ResolveCaller maps a raw bearer token to its user
func (s *Service) ResolveCaller(ctx context.Context, token string) (*models.User, *Claims, error) {
	if token == "" {
		return nil, nil, apperrors.Authentication(MsgMissingToken)
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil, apperrors.Authentication(MsgInvalidToken)
	}

	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	if revoked {
		return nil, nil, apperrors.Authentication(MsgRevokedToken)
	}

	user, err := s.store.UserByEmail(ctx, claims.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.Authentication(MsgInvalidToken)
	}
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	return user, claims, nil
}

// VerifyEmail clears the verification token of the user it belongs to
func (s *Service) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	user, err := s.store.UserByVerificationToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(MsgUnknownVerifyKey)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	user.Token = ""
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// RequestPasswordReset mails a reset link when the email belongs to a user.
// Unknown emails succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Internal(err)
	}

	reset := &models.PasswordReset{UserID: user.ID, Token: uuid.NewString()}
	if err := s.store.CreatePasswordReset(ctx, reset); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to create password reset: %w", err))
	}
	s.sendMail(ctx, mailer.PasswordReset, user, s.links.PasswordReset+reset.Token)
	return nil
}

// ResetPassword sets a new password using a mailed reset token
func (s *Service) ResetPassword(ctx context.Context, token string, fields validation.Fields) error {
	reset, err := s.store.PasswordResetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(MsgUnknownResetLink)
	}
	if err != nil {
		return apperrors.Internal(err)
	}

	password, err := s.validator.Password(fields)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.store.CompletePasswordReset(ctx, reset, hash); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to reset password: %w", err))
	}
	return nil
}

// UpdateProfile changes the caller's username and, optionally, password
func (s *Service) UpdateProfile(ctx context.Context, caller *models.User, fields validation.Fields) (*models.User, error) {
	if err := policy.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.Check(policy.For(policy.Users, policy.Update), caller, caller.ID); err != nil {
		return nil, err
	}
	merged := validation.Merge(validation.Fields{"username": caller.Username}, fields)
	username, password, err := s.validator.Profile(merged)
	if err != nil {
		return nil, err
	}

	updated := *caller
	updated.Username = username
	if password != "" {
		if updated.PasswordHash, err = s.hasher.Hash(password); err != nil {
			return nil, apperrors.Internal(err)
		}
	}
	if err := s.store.UpdateUser(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Not found")
		}
		return nil, apperrors.Internal(err)
	}
	return &updated, nil
}

// sendMail never fails the calling operation; delivery problems are logged
func (s *Service) sendMail(ctx context.Context, tmpl mailer.Template, user *models.User, link string) {
	data := map[string]string{"username": user.Username, "link": link}
	if err := s.mail.Send(ctx, tmpl, user.Email, data); err != nil {
		s.logger.Warn("failed to send mail",
			zap.String("template", string(tmpl)),
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
	}
}

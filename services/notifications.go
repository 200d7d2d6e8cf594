package services

import (
	"context"

	"book-a-meal-api/models"
	"book-a-meal-api/policy"
	"book-a-meal-api/repository"
	"book-a-meal-api/validation"

	"gorm.io/gorm"
)

type NotificationService struct {
	store     *repository.Store
	validator *validation.Validator
}

func (s *NotificationService) List(ctx context.Context, caller *models.User) (Page[models.Notification], error) {
	if err := preAuthorize(policy.Notifications, policy.List, caller); err != nil {
		return Page[models.Notification]{}, err
	}
	var scope func(*gorm.DB) *gorm.DB
	if policy.Scoped(policy.Notifications, caller) {
		scope = ownedBy(caller)
	}
	items, err := repository.List[models.Notification](ctx, s.store, scope)
	if err != nil {
		return Page[models.Notification]{}, lookupErr(err)
	}
	return newPage(items), nil
}

func (s *NotificationService) Get(ctx context.Context, caller *models.User, id uint) (*models.Notification, error) {
	if err := preAuthorize(policy.Notifications, policy.Get, caller); err != nil {
		return nil, err
	}
	n, err := load[models.Notification](ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := postAuthorize(policy.Notifications, policy.Get, caller, n.UserID); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) Create(ctx context.Context, caller *models.User, fields validation.Fields) (*models.Notification, error) {
	if err := preAuthorize(policy.Notifications, policy.Create, caller); err != nil {
		return nil, err
	}
	in, err := s.validator.Notification(ctx, fields)
	if err != nil {
		return nil, err
	}
	n := &models.Notification{Title: in.Title, Message: in.Message, UserID: in.UserID}
	if err := repository.Create(ctx, s.store, n); err != nil {
		return nil, persistErr(err, "")
	}
	return n, nil
}

func (s *NotificationService) Update(ctx context.Context, caller *models.User, id uint, fields validation.Fields) (*models.Notification, error) {
	if err := preAuthorize(policy.Notifications, policy.Update, caller); err != nil {
		return nil, err
	}
	n, err := load[models.Notification](ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := postAuthorize(policy.Notifications, policy.Update, caller, n.UserID); err != nil {
		return nil, err
	}
	current := validation.Fields{"title": n.Title, "message": n.Message, "user_id": n.UserID}
	in, err := s.validator.Notification(ctx, validation.Merge(current, fields))
	if err != nil {
		return nil, err
	}

	n.Title, n.Message, n.UserID = in.Title, in.Message, in.UserID
	if err := repository.Update(ctx, s.store, n); err != nil {
		return nil, persistErr(err, "")
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, caller *models.User, id uint) error {
	if err := preAuthorize(policy.Notifications, policy.Delete, caller); err != nil {
		return err
	}
	n, err := load[models.Notification](ctx, s.store, id)
	if err != nil {
		return err
	}
	if err := postAuthorize(policy.Notifications, policy.Delete, caller, n.UserID); err != nil {
		return err
	}
	if err := repository.Delete[models.Notification](ctx, s.store, id); err != nil {
		return persistErr(err, "")
	}
	return nil
}

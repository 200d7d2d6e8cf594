package handlers

import (
	"errors"
	"slices"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/metrics"
	"book-a-meal-api/services"
)

// recordOrder counts order placement attempts by outcome
func recordOrder(err error) {
	var appErr *apperrors.Error
	switch {
	case err == nil:
		metrics.RecordOrder(metrics.OrderPlaced)
	case !errors.As(err, &appErr):
		metrics.RecordOrder(metrics.OrderRejected)
	case slices.Contains(appErr.Messages, services.MsgNotEnoughUnits):
		metrics.RecordOrder(metrics.OrderSoldOut)
	case appErr.Kind == apperrors.KindAuthentication || appErr.Kind == apperrors.KindAuthorization:
		metrics.RecordOrder(metrics.OrderUnauthorized)
	default:
		metrics.RecordOrder(metrics.OrderRejected)
	}
}

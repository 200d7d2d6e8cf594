package handlers

import (
	"errors"
	"io"
	"strconv"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/auth"
	"book-a-meal-api/middleware"
	"book-a-meal-api/models"
	"book-a-meal-api/repository"
	"book-a-meal-api/services"
	"book-a-meal-api/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgMalformedJSON = "Malformed JSON body"
	msgDeleted       = "Successfully deleted"
)

// Handler holds the HTTP handlers and the services behind them
type Handler struct {
	auth   *auth.Service
	store  *repository.Store
	logger *zap.Logger

	Meals         *Resource[models.Meal]
	Menus         *Resource[models.Menu]
	MenuItems     *Resource[models.MenuItem]
	Orders        *Resource[models.Order]
	Notifications *Resource[models.Notification]
}

func New(authSvc *auth.Service, svc *services.Services, store *repository.Store, logger *zap.Logger) *Handler {
	return &Handler{
		auth:   authSvc,
		store:  store,
		logger: logger,

		Meals: &Resource[models.Meal]{ops: svc.Meals, list: func(c *gin.Context) (services.Page[models.Meal], error) {
			return svc.Meals.List(c.Request.Context(), middleware.CurrentUser(c))
		}},
		Menus: &Resource[models.Menu]{ops: svc.Menus, list: func(c *gin.Context) (services.Page[models.Menu], error) {
			return svc.Menus.List(c.Request.Context(), middleware.CurrentUser(c), c.Query("day"))
		}},
		MenuItems: &Resource[models.MenuItem]{ops: svc.MenuItems, list: func(c *gin.Context) (services.Page[models.MenuItem], error) {
			return svc.MenuItems.List(c.Request.Context(), middleware.CurrentUser(c))
		}},
		Orders: &Resource[models.Order]{ops: svc.Orders, onCreate: recordOrder, list: func(c *gin.Context) (services.Page[models.Order], error) {
			return svc.Orders.List(c.Request.Context(), middleware.CurrentUser(c))
		}},
		Notifications: &Resource[models.Notification]{ops: svc.Notifications, list: func(c *gin.Context) (services.Page[models.Notification], error) {
			return svc.Notifications.List(c.Request.Context(), middleware.CurrentUser(c))
		}},
	}
}

func respondError(c *gin.Context, err error) {
	middleware.Abort(c, err)
}

// bindFields decodes the body into a field set. An empty body is an empty
// field set; anything that is not a JSON object is rejected.
func bindFields(c *gin.Context) (validation.Fields, bool) {
	var fields validation.Fields
	if err := c.ShouldBindJSON(&fields); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, apperrors.Validation(msgMalformedJSON))
		return nil, false
	}
	if fields == nil {
		fields = validation.Fields{}
	}
	return fields, true
}

// idParam parses the :id path segment. Ids that cannot exist are reported
// as not found.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		respondError(c, apperrors.NotFound("Not found"))
		return 0, false
	}
	return uint(id), true
}

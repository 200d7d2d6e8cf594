package middleware

import (
	"net/http"
	"strings"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/auth"
	"book-a-meal-api/models"

	"github.com/gin-gonic/gin"
)

const (
	callerKey = "caller"
	claimsKey = "claims"
)

// AuthRequired resolves the bearer token and injects the caller into the
// context. Missing, invalid, expired and revoked tokens abort with 401.
func AuthRequired(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			Abort(c, apperrors.Authentication(auth.MsgMissingToken))
			return
		}
		user, claims, err := svc.ResolveCaller(c.Request.Context(), token)
		if err != nil {
			Abort(c, err)
			return
		}
		c.Set(callerKey, user)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CurrentUser returns the caller stored by AuthRequired, or nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentClaims returns the token claims stored by AuthRequired, or nil
func CurrentClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// Abort writes err as {"errors": [...]} and stops the chain
func Abort(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Kind == apperrors.KindInternal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(appErr.Status(), gin.H{"errors": appErr.Public()})
}

// NoRoute answers unknown paths in the error envelope
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"errors": []string{"Not found"}})
}

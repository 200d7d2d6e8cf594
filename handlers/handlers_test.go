package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"book-a-meal-api/auth"
	"book-a-meal-api/config"
	"book-a-meal-api/handlers"
	"book-a-meal-api/mailer"
	"book-a-meal-api/models"
	"book-a-meal-api/repository"
	"book-a-meal-api/routes"
	"book-a-meal-api/services"
	"book-a-meal-api/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	catererEmail    = "caterer@example.com"
	catererPassword = "caterer-pass"
)

type testServer struct {
	t      *testing.T
	router http.Handler
	store  *repository.Store
}

type errorBody struct {
	Errors []string `json:"errors"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.OpenDB("file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store := repository.New(db)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	_, err = config.SeedCaterer(context.Background(), store, hasher, config.CatererConfig{
		Username: "caterer",
		Email:    catererEmail,
		Password: catererPassword,
	})
	require.NoError(t, err)

	today := models.DateOf(time.Now())
	validator := validation.New(store, func() models.Date { return today })
	logger := zap.NewNop()
	authSvc := auth.NewService(store, validator, hasher, auth.NewTokenManager("test-secret", time.Hour),
		&mailer.Recorder{}, auth.Links{}, logger)
	h := handlers.New(authSvc, services.New(store, validator), store, logger)

	return &testServer{
		t:      t,
		router: routes.NewRouter(h, authSvc, routes.Options{CORSOrigins: []string{"*"}, Logger: logger}),
		store:  store,
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[handlers.LoginResponse](s.t, rec).AccessToken
}

func (s *testServer) signup(username, email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"username":         username,
		"email":            email,
		"password":         "s3cret!",
		"confirm_password": "s3cret!",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return s.login(email, "s3cret!")
}

// menuItem creates a meal on today's lunch menu and returns the menu item id
func (s *testServer) menuItem(caterer, name string, quantity int) uint {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/meals", caterer, gin.H{"name": name, "cost": 150})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	meal := decode[models.Meal](s.t, rec)

	rec = s.do(http.MethodPost, "/api/v1/menus", caterer, gin.H{"category": 2})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	menu := decode[models.Menu](s.t, rec)

	rec = s.do(http.MethodPost, "/api/v1/menu_items", caterer, gin.H{"menu_id": menu.ID, "meal_id": meal.ID, "quantity": quantity})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.MenuItem](s.t, rec).ID
}

func TestMeals_RoundTrip(t *testing.T) {
	s := newTestServer(t)
	caterer := s.login(catererEmail, catererPassword)

	rec := s.do(http.MethodPost, "/api/v1/meals", caterer, gin.H{"name": "Ugali", "cost": 200})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	meal := decode[models.Meal](t, rec)
	assert.Equal(t, "Ugali", meal.Name)
	assert.Equal(t, 200.0, meal.Cost)

	path := fmt.Sprintf("/api/v1/meals/%d", meal.ID)
	first := s.do(http.MethodGet, path, caterer, nil)
	second := s.do(http.MethodGet, path, caterer, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec = s.do(http.MethodPatch, path, caterer, gin.H{"cost": 250})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 250.0, decode[models.Meal](t, rec).Cost)

	rec = s.do(http.MethodGet, "/api/v1/meals", caterer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[services.Page[models.Meal]](t, rec)
	assert.Equal(t, 1, page.NumResults)

	rec = s.do(http.MethodDelete, path, caterer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Successfully deleted"}`, rec.Body.String())

	rec = s.do(http.MethodGet, path, caterer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMeals_ValidationCollectsAllErrors(t *testing.T) {
	s := newTestServer(t)
	caterer := s.login(catererEmail, catererPassword)

	rec := s.do(http.MethodPost, "/api/v1/meals", caterer, gin.H{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Contains(t, body.Errors, "Name is required")
	assert.Contains(t, body.Errors, "Cost is required")

	rec = s.do(http.MethodPost, "/api/v1/meals", caterer, `{"name": "Ugali",`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"Malformed JSON body"}, decode[errorBody](t, rec).Errors)
}

func TestAuthorizationFailures(t *testing.T) {
	s := newTestServer(t)
	customer := s.signup("alice", "alice@example.com")

	rec := s.do(http.MethodGet, "/api/v1/meals", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, []string{auth.MsgMissingToken}, decode[errorBody](t, rec).Errors)

	rec = s.do(http.MethodGet, "/api/v1/meals", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/meals", customer, gin.H{"name": "Ugali", "cost": 200})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"errors":["Unauthorized access to non-caterer"]}`, rec.Body.String())
}

func TestOrders_ForeignOrderIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	caterer := s.login(catererEmail, catererPassword)
	alice := s.signup("alice", "alice@example.com")
	bob := s.signup("bob", "bob@example.com")
	itemID := s.menuItem(caterer, "Ugali", 5)

	rec := s.do(http.MethodPost, "/api/v1/orders", alice, gin.H{"menu_item_id": itemID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	require.NotNil(t, order.MenuItem)
	assert.Equal(t, 4, order.MenuItem.Quantity)

	path := fmt.Sprintf("/api/v1/orders/%d", order.ID)
	rec = s.do(http.MethodGet, path, bob, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"errors":["Unauthorized access"]}`, rec.Body.String())

	rec = s.do(http.MethodPut, path, bob, gin.H{"quantity": 2})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/orders", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[services.Page[models.Order]](t, rec).NumResults)

	rec = s.do(http.MethodGet, "/api/v1/orders", caterer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[services.Page[models.Order]](t, rec).NumResults)

	rec = s.do(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrders_ConcurrentLastUnit(t *testing.T) {
	s := newTestServer(t)
	caterer := s.login(catererEmail, catererPassword)
	alice := s.signup("alice", "alice@example.com")
	bob := s.signup("bob", "bob@example.com")
	itemID := s.menuItem(caterer, "Matoke", 1)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i, token := range []string{alice, bob} {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			codes[i] = s.do(http.MethodPost, "/api/v1/orders", token, gin.H{"menu_item_id": itemID}).Code
		}(i, token)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusBadRequest}, codes)

	rec := s.do(http.MethodGet, fmt.Sprintf("/api/v1/menu_items/%d", itemID), caterer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[models.MenuItem](t, rec).Quantity)
}

func TestAuth_LogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("alice", "alice@example.com")

	rec := s.do(http.MethodGet, "/api/v1/auth/get", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[models.PublicUser](t, rec)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(http.MethodDelete, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Successfully logged out."}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/meals", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodDelete, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_LoginValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.ElementsMatch(t, []string{"Email is required", "Password is required"}, decode[errorBody](t, rec).Errors)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": catererEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{"username": "al", "email": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.GreaterOrEqual(t, len(decode[errorBody](t, rec).Errors), 3)
}

func TestAuth_PasswordResetAlwaysSucceeds(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/auth/password_reset", "", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/password_reset/unknown-token", "", gin.H{"password": "n3w-secret", "confirm_password": "n3w-secret"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/policies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"owner_or_caterer"`)

	rec = s.do(http.MethodGet, "/api/v1/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidIDIsNotFound(t *testing.T) {
	s := newTestServer(t)
	caterer := s.login(catererEmail, catererPassword)

	rec := s.do(http.MethodGet, "/api/v1/meals/abc", caterer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

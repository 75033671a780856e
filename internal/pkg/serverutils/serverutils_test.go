package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger()))
	return app
}

func decode(t *testing.T, res *http.Response) BaseResponse[map[string]interface{}] {
	t.Helper()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var out BaseResponse[map[string]interface{}]
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestJwtMiddleware(t *testing.T) {
	userID := uuid.New()
	app := newApp()
	app.Get("/me", JwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
		id, err := UserID(ctx)
		if err != nil {
			return err
		}
		return ctx.JSON(SuccessResponse("ok", fiber.Map{"id": id.String(), "email": Email(ctx)}))
	})

	exp := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"user_id claim", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": userID.String(), "email": "kid@example.com", "exp": exp}), "", 200},
		{"sub claim", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": userID.String(), "exp": exp}), "", 200},
		{"query token", "", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": userID.String(), "exp": exp}), 200},
		{"missing", "", "", 401},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": userID.String()}), "", 401},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": userID.String(), "exp": time.Now().Add(-time.Minute).Unix()}), "", 401},
		{"not a uuid", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "user-1"}), "", 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			res, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.StatusCode)
			if tt.status == 200 {
				assert.Equal(t, userID.String(), decode(t, res).Data["id"])
			}
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := newApp()
	app.Get("/bad", func(*fiber.Ctx) error { return apperr.BadRequest("title is too long") })
	app.Get("/missing", func(*fiber.Ctx) error { return apperr.NotFound("conversation") })
	app.Get("/limited", func(*fiber.Ctx) error { return apperr.ErrRateLimited })
	app.Get("/boom", func(*fiber.Ctx) error { return errors.New("pq: connection refused") })
	app.Get("/fiber", func(*fiber.Ctx) error { return fiber.ErrUpgradeRequired })

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/bad", 400, "bad request: title is too long"},
		{"/missing", 404, "not found: conversation"},
		{"/limited", 429, "rate limited"},
		{"/boom", 500, "Internal server error"},
		{"/fiber", 426, "Upgrade Required"},
		{"/nowhere", 404, "Cannot GET /nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.StatusCode)
			body := decode(t, res)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Name string `validate:"required,max=5"`
		Kind string `validate:"omitempty,oneof=a b"`
	}

	assert.NoError(t, ValidateRequest(request{Name: "ok"}))

	err := ValidateRequest(request{Kind: "c"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "kind must be one of [a b]")
}

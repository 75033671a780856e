package serverutils

import (
	"errors"
	"strings"

	"kidsgpt-be/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	LocalUserID = "user_id"
	LocalEmail  = "email"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity of an access token issued by the auth provider.
type Claims struct {
	UserID uuid.UUID
	Email  string
}

// ParseToken validates an HS256 token and reads user_id, falling back to sub.
func ParseToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	raw, _ := mc["user_id"].(string)
	if raw == "" {
		raw, _ = mc["sub"].(string)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	email, _ := mc["email"].(string)
	return &Claims{UserID: userID, Email: email}, nil
}

// BearerToken reads the Authorization header, then the token query
// parameter browsers use for websockets.
func BearerToken(ctx *fiber.Ctx) string {
	if h := ctx.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ctx.Query("token")
}

func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}
		claims, err := ParseToken(tokenStr, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
		ctx.Locals(LocalUserID, claims.UserID.String())
		ctx.Locals(LocalEmail, claims.Email)
		return ctx.Next()
	}
}

// UserID returns the caller set by JwtMiddleware.
func UserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals(LocalUserID).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.ErrUnauthorized
	}
	return id, nil
}

func Email(ctx *fiber.Ctx) string {
	email, _ := ctx.Locals(LocalEmail).(string)
	return email
}

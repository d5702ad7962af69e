package auth

import (
	"fmt"
	"strings"

	"permini-backend/internal/config"
	"permini-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxSchoolIDKey = "school_id"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization format must be 'Bearer <token>'")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not parse token claims")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxSchoolIDKey, claims.SchoolID)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role information missing")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Not allowed for this role")
	}
}

// UserIDFromCtx returns the authenticated user's id.
func UserIDFromCtx(c *fiber.Ctx) (uint, error) {
	idVal := c.Locals(CtxUserIDKey)
	id, ok := idVal.(uint)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "User information missing")
	}
	return id, nil
}

// SchoolIDFromCtx resolves the tenant for the current request. School
// admins are pinned to their own school; super admins pass school_id as
// a query parameter.
func SchoolIDFromCtx(c *fiber.Ctx) (uint, error) {
	roleVal := c.Locals(CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Role information missing")
	}

	if role == models.RoleSchoolAdmin {
		sVal := c.Locals(CtxSchoolIDKey)
		sPtr, ok := sVal.(*uint)
		if !ok || sPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "School information missing")
		}
		return *sPtr, nil
	}

	sidStr := c.Query("school_id")
	if sidStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "school_id is required")
	}
	var sid uint
	if _, err := fmt.Sscan(sidStr, &sid); err != nil || sid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "school_id is invalid")
	}
	return sid, nil
}

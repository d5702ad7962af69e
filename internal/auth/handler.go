package auth

import (
	"strings"
	"time"

	"permini-backend/internal/config"
	"permini-backend/internal/database"
	"permini-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterSchoolRequest struct {
	SchoolName string `json:"school_name"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	AdminName  string `json:"admin_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register-school
// New tenants start on a 30-day standard trial period.
func RegisterSchoolHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterSchoolRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.SchoolName = strings.TrimSpace(body.SchoolName)

		if body.SchoolName == "" || body.AdminName == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "School name, admin name, email and password are required")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		now := time.Now()
		school := models.DrivingSchool{
			Name:          body.SchoolName,
			Address:       body.Address,
			Phone:         body.Phone,
			Status:        models.SchoolStatusApproved,
			CurrentPlan:   models.PlanStandard,
			PlanStartDate: now,
			PlanEndDate:   now.AddDate(0, 0, 30),
			MaxAccounts:   200,
		}
		if err := database.DB.Create(&school).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create driving school")
		}

		user := models.User{
			SchoolID:     &school.ID,
			Name:         body.AdminName,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleSchoolAdmin,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"school_id": school.ID,
			"user_id":   user.ID,
			"email":     user.Email,
			"plan_end":  school.PlanEndDate.Format("2006-01-02"),
		})
	}
}

// POST /api/auth/register-super-admin
func RegisterSuperAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name, email and password are required")
		}

		// Only one super admin through this endpoint.
		var count int64
		database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleSuperAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "A super admin already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleSuperAdmin,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		})
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		// Suspended tenants cannot log in.
		if user.SchoolID != nil {
			var school models.DrivingSchool
			if err := database.DB.First(&school, *user.SchoolID).Error; err == nil &&
				school.Status == models.SchoolStatusSuspended {
				return fiber.NewError(fiber.StatusForbidden, "This driving school is suspended")
			}
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":        user.ID,
				"name":      user.Name,
				"email":     user.Email,
				"role":      user.Role,
				"school_id": user.SchoolID,
			},
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDVal := c.Locals(CtxUserIDKey)

		var user models.User
		if userID, ok := userIDVal.(uint); ok {
			if err := database.DB.First(&user, userID).Error; err == nil {
				response := fiber.Map{
					"user_id":   user.ID,
					"name":      user.Name,
					"email":     user.Email,
					"role":      user.Role,
					"school_id": user.SchoolID,
				}

				if user.SchoolID != nil {
					var school models.DrivingSchool
					if err := database.DB.First(&school, *user.SchoolID).Error; err == nil {
						response["school"] = fiber.Map{
							"id":           school.ID,
							"name":         school.Name,
							"current_plan": school.CurrentPlan,
							"plan_end":     school.PlanEndDate.Format("2006-01-02"),
							"max_accounts": school.MaxAccounts,
						}
					}
				}

				return c.JSON(response)
			}
		}

		return fiber.NewError(fiber.StatusUnauthorized, "User not found")
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/cqrs"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/middleware"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/models"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/utils"
	"go.uber.org/zap"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	RegisterPatient(context.Context, cqrs.RegisterPatientCommand) (int64, error)
	CreateSpecialist(context.Context, cqrs.CreateSpecialistCommand) (int64, error)
	CreateStaff(context.Context, cqrs.CreateStaffCommand) (int64, error)
	UpdateProfile(context.Context, cqrs.UpdateProfileCommand) error
	DeleteUser(context.Context, cqrs.DeleteUserCommand) error
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	Login(context.Context, cqrs.LoginCommand) (*models.LoginView, error)
	GetProfile(context.Context, cqrs.GetProfileQuery) (*models.ProfileView, error)
	ListUsersByRole(context.Context, cqrs.ListUsersByRoleQuery) ([]*models.ProfileView, error)
}

// AccountHandler routes requests to the command or query service as appropriate.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
	logger   *zap.Logger
}

type RegisterRequest struct {
	HealthcareNumber string `json:"healthcare_number" validate:"required,max=64"`
	Name             string `json:"name" validate:"required,max=255"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Password         string `json:"password" validate:"required,max=72"`
	Phone            string `json:"phone" validate:"max=32"`
	DateOfBirth      string `json:"dob" validate:"required,datetime=2006-01-02"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Phone        string `json:"phone" validate:"max=32"`
	ProfileImage string `json:"profile_image" validate:"max=255"`
}

type CreateSpecialistRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Email          string `json:"email" validate:"required,email,max=255"`
	Password       string `json:"password" validate:"required,max=72"`
	WorkingID      string `json:"working_id" validate:"required,max=64"`
	Specialization string `json:"specialization" validate:"required,max=255"`
}

type CreateStaffRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,max=72"`
	WorkingID  string `json:"working_id" validate:"required,max=64"`
	Department string `json:"department" validate:"required,max=255"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{commands: commands, queries: queries, logger: logger}
}

// bind decodes and validates the JSON body, writing the 400 itself on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

// internalError logs the cause and replies with a generic 500.
func (h *AccountHandler) internalError(c *gin.Context, op, message string, err error) {
	h.logger.Error(op+" failed",
		zap.Error(err),
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
	)
	middleware.RespondWithError(c, http.StatusInternalServerError, message)
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}

	userID, err := h.commands.RegisterPatient(c.Request.Context(), cqrs.RegisterPatientCommand{
		HealthcareNumber: req.HealthcareNumber,
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		Phone:            req.Phone,
		DateOfBirth:      req.DateOfBirth,
	})
	if err != nil {
		if errors.Is(err, models.ErrEmailInUse) {
			middleware.RespondWithError(c, http.StatusConflict, "Email already in use")
			return
		}
		h.internalError(c, "register", "Registration failed", err)
		return
	}

	middleware.RespondWithSuccess(c, http.StatusCreated, gin.H{"user_id": userID})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}

	view, err := h.queries.Login(c.Request.Context(), cqrs.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, models.ErrNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, models.ErrInvalidPassword):
		middleware.RespondWithError(c, http.StatusUnauthorized, "Invalid password")
		return
	case err != nil:
		h.internalError(c, "login", "Login failed", err)
		return
	}

	fields := gin.H{
		"user_id": view.UserID,
		"role":    view.Role,
		"name":    view.Name,
		"email":   view.Email,
	}
	if view.Token != "" {
		fields["token"] = view.Token
	}
	middleware.RespondWithSuccess(c, http.StatusOK, fields)
}

func (h *AccountHandler) GetProfile(c *gin.Context) {
	userID, ok := utils.ParseUserID(c.Param("id"))
	if !ok {
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	view, err := h.queries.GetProfile(c.Request.Context(), cqrs.GetProfileQuery{UserID: userID})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(c, "get profile", "Failed to fetch profile", err)
		return
	}

	middleware.RespondWithSuccess(c, http.StatusOK, gin.H{"user": view})
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, ok := utils.ParseUserID(c.Param("id"))
	if !ok {
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	var req UpdateProfileRequest
	if !bind(c, &req) {
		return
	}

	err := h.commands.UpdateProfile(c.Request.Context(), cqrs.UpdateProfileCommand{
		UserID:       userID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		ProfileImage: req.ProfileImage,
	})
	switch {
	case errors.Is(err, models.ErrEmailInUse):
		middleware.RespondWithError(c, http.StatusBadRequest, "Email already in use")
		return
	case errors.Is(err, models.ErrNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	case err != nil:
		h.internalError(c, "update profile", "Update failed", err)
		return
	}

	middleware.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Profile updated"})
}

func (h *AccountHandler) CreateSpecialist(c *gin.Context) {
	var req CreateSpecialistRequest
	if !bind(c, &req) {
		return
	}

	specialistID, err := h.commands.CreateSpecialist(c.Request.Context(), cqrs.CreateSpecialistCommand{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		WorkingID:      req.WorkingID,
		Specialization: req.Specialization,
	})
	if err != nil {
		if errors.Is(err, models.ErrEmailInUse) {
			middleware.RespondWithError(c, http.StatusConflict, "Email already in use")
			return
		}
		h.internalError(c, "create specialist", "Specialist creation failed", err)
		return
	}

	middleware.RespondWithSuccess(c, http.StatusCreated, gin.H{"specialist_id": specialistID})
}

func (h *AccountHandler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if !bind(c, &req) {
		return
	}

	staffID, err := h.commands.CreateStaff(c.Request.Context(), cqrs.CreateStaffCommand{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		WorkingID:  req.WorkingID,
		Department: req.Department,
	})
	if err != nil {
		if errors.Is(err, models.ErrEmailInUse) {
			middleware.RespondWithError(c, http.StatusConflict, "Email already in use")
			return
		}
		h.internalError(c, "create staff", "Staff creation failed", err)
		return
	}

	middleware.RespondWithSuccess(c, http.StatusCreated, gin.H{"staff_id": staffID})
}

func (h *AccountHandler) DeleteUser(c *gin.Context) {
	userID, ok := utils.ParseUserID(c.Param("id"))
	if !ok {
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{UserID: userID})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(c, "delete user", "Deletion failed", err)
		return
	}

	middleware.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *AccountHandler) ListUsersByRole(c *gin.Context) {
	role, err := models.ParseRole(c.Param("role"))
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Unknown role")
		return
	}

	views, err := h.queries.ListUsersByRole(c.Request.Context(), cqrs.ListUsersByRoleQuery{Role: role})
	if err != nil {
		h.internalError(c, "list users", "Failed to list users", err)
		return
	}

	middleware.RespondWithSuccess(c, http.StatusOK, gin.H{"users": views})
}

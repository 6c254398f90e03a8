package handlers

import (
	"context"
	"net/http"

	"aish-backend/internal/apperr"
	"aish-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// AuthService is the doctor registry used by AuthHandler.
type AuthService interface {
	ListDoctors(ctx context.Context) ([]models.User, error)
	Register(ctx context.Context, name, password string) (string, error)
	Login(ctx context.Context, name, password string) (*models.User, error)
}

type CredentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type DoctorResponse struct {
	Name string `json:"name"`
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Doctors(c *gin.Context) {
	users, err := h.auth.ListDoctors(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch doctors")
		return
	}
	doctors := make([]DoctorResponse, 0, len(users))
	for _, u := range users {
		doctors = append(doctors, DoctorResponse{Name: u.Name})
	}
	c.JSON(http.StatusOK, doctors)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and password are required", "details": err.Error()})
		return
	}

	name, err := h.auth.Register(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		respondError(c, err, "Registration failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful", "name": name})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and password are required", "details": err.Error()})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		// An unknown name is reported like a wrong password.
		if apperr.Is(err, apperr.NotFound) {
			writeError(c, http.StatusUnauthorized, err, "Login failed")
			return
		}
		respondError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "name": user.Name, "role": user.Role})
}

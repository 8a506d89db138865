package handlers

import (
	"net/http"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"
	"github.com/Juramirezlop/asamblea-voting-app/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100" example:"admin1"`
	Password string `json:"password" binding:"required,min=6" example:"password123"`
	Role     string `json:"role" binding:"required" example:"admin"`
}

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin1"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type VoterLoginRequest struct {
	Code string `json:"code" binding:"required" example:"A101"`
}

type AuthResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
	Role  string `json:"role" example:"admin"`
}

type VoterAuthResponse struct {
	Token       string              `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
	Role        string              `json:"role" example:"voter"`
	Participant *models.Participant `json:"participant"`
}

// Register godoc
// @Summary      Register a user account
// @Description  Create an admin or voter account (admin only)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.authService.RegisterUser(req.Username, req.Password, req.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "user created"})
}

// LoginAdmin godoc
// @Summary      Login as admin
// @Description  Authenticate an admin and return a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body AdminLoginRequest true "Login data"
// @Success      200 {object} AuthResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/login/admin [post]
func (h *AuthHandler) LoginAdmin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, err := h.authService.LoginAdmin(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, Role: models.RoleAdmin})
}

// LoginVoter godoc
// @Summary      Login as voter
// @Description  Authenticate by participant code; attendance must be registered first
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VoterLoginRequest true "Login data"
// @Success      200 {object} VoterAuthResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/login/voter [post]
func (h *AuthHandler) LoginVoter(c *gin.Context) {
	var req VoterLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	token, participant, err := h.authService.LoginVoter(req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, VoterAuthResponse{
		Token:       token,
		Role:        models.RoleVoter,
		Participant: participant,
	})
}

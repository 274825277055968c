// File: /controllers/auth_controller.go
package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"raceday-api/models"
	"raceday-api/services"
	"raceday-api/sessions"
)

type AuthController struct {
	runners  *services.RunnerService
	tokens   *services.TokenService
	sessions *sessions.Store
	logger   *slog.Logger
}

func NewAuthController(runners *services.RunnerService, tokens *services.TokenService, store *sessions.Store, logger *slog.Logger) *AuthController {
	return &AuthController{
		runners:  runners,
		tokens:   tokens,
		sessions: store,
		logger:   logger,
	}
}

type SignUpRequest struct {
	Username    string        `json:"username" binding:"required"`
	Password1   string        `json:"password1" binding:"required"`
	Password2   string        `json:"password2" binding:"required"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	City        string        `json:"city"`
	DateOfBirth *models.Date  `json:"date_of_birth"`
	Gender      models.Gender `json:"gender"`
	PhoneNumber string        `json:"phone_number"`
	Email       string        `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token  string        `json:"token"`
	Runner models.Runner `json:"runner"`
}

// startSession signs the runner in on the cookie and hands out a bearer token
func (ac *AuthController) startSession(c *gin.Context, status int, runner *models.Runner) {
	if err := ac.sessions.Login(c.Writer, c.Request, runner.ID, runner.CredentialFingerprint()); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	token, err := ac.tokens.Issue(runner)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(status, AuthResponse{Token: token, Runner: *runner})
}

func (ac *AuthController) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	runner, err := ac.runners.SignUp(c.Request.Context(), services.SignUpInput{
		Username:    req.Username,
		Password1:   req.Password1,
		Password2:   req.Password2,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		City:        req.City,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	})
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	ac.startSession(c, http.StatusCreated, runner)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	runner, err := ac.runners.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			ac.logger.Warn("Failed login", slog.String("username", req.Username), slog.String("client_ip", c.ClientIP()))
		}
		respondError(c, ac.logger, err)
		return
	}

	ac.startSession(c, http.StatusOK, runner)
}

func (ac *AuthController) Logout(c *gin.Context) {
	// bearer tokens are dropped client-side
	if err := ac.sessions.Logout(c.Writer, c.Request); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

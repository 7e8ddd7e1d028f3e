package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/api/response"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
)

const (
	// TokenExpiration defines how long a JWT token is valid
	TokenExpiration = 24 * time.Hour
	// MinPasswordLength defines minimum password length
	MinPasswordLength = 8
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

// UserDTO is a Data Transfer Object for User information
type UserDTO struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func convertToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

// RegisterHandler handles user registration
func (h *Handler) RegisterHandler(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate password strength
	if err := validatePassword(req.Password); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	// Normalize input
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	// Check if user exists
	exists, err := h.store.UserExists(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		log.Printf("Failed to check existing users: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to process registration")
		return
	}
	if exists {
		response.Error(c, http.StatusConflict, "Username or email already exists")
		return
	}

	// Hash password with appropriate cost
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to process registration")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}

	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		log.Printf("Failed to create user: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, expiresAt, err := h.generateJWT(user)
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	response.Success(c, http.StatusCreated, "Registration successful", AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      convertToUserDTO(user),
	})
}

// LoginHandler handles user login
func (h *Handler) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		// Same message for unknown username and wrong password so usernames
		// cannot be probed.
		response.Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Printf("Failed login attempt for user %s from IP %s", req.Username, c.ClientIP())
		response.Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, expiresAt, err := h.generateJWT(*user)
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	response.Success(c, http.StatusOK, "Login successful", AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      convertToUserDTO(*user),
	})
}

// validatePassword checks password strength
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}

	hasNumber := false
	for _, char := range password {
		if char >= '0' && char <= '9' {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	return nil
}

// generateJWT creates a new JWT token for the given user
func (h *Handler) generateJWT(user models.User) (string, time.Time, error) {
	if h.config.JWTSecret == "" {
		return "", time.Time{}, errors.New("JWT secret is not configured")
	}

	expiresAt := time.Now().Add(TokenExpiration)

	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
		Issuer:    "shimmer-backend",
		Subject:   user.ID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(h.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, expiresAt, nil
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/platform/user"
)

// UserService defines the user operations AuthHandler needs
type UserService interface {
	Register(ctx context.Context, email, name, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.User, error)
}

// TokenIssuer defines the JWT operations AuthHandler needs
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, email string, isAdmin bool) (string, error)
	RefreshToken(tokenString string) (string, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	users  UserService
	tokens TokenIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// UserInfo represents user information (without sensitive data)
type UserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

func userInfo(u *user.User) *UserInfo {
	return &UserInfo{
		ID:      u.ID.String(),
		Email:   u.Email,
		Name:    u.Name,
		IsAdmin: u.IsAdmin,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "password is required")
		return
	}

	u, err := h.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, "user with this email already exists")
		case errors.Is(err, user.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, user.ErrPasswordTooShort):
			respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		default:
			respondError(w, http.StatusInternalServerError, "failed to register user")
		}
		return
	}

	token, err := h.tokens.GenerateToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respondData(w, http.StatusCreated, AuthResponse{Token: token, User: userInfo(u)})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.tokens.GenerateToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respondData(w, http.StatusOK, AuthResponse{Token: token, User: userInfo(u)})
}

// RefreshResponse carries a re-issued token
type RefreshResponse struct {
	Token string `json:"token"`
}

// Refresh handles POST /auth/refresh. The current token travels in the
// Authorization header; a still-valid one is exchanged for a fresh one.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		respondError(w, http.StatusUnauthorized, "missing or malformed authorization header")
		return
	}

	token, err := h.tokens.RefreshToken(parts[1])
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	respondData(w, http.StatusOK, RefreshResponse{Token: token})
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/model"
	"github.com/nightapi/nightapi/internal/store"
)

// AuthHandler handles registration, login and token validation.
type AuthHandler struct {
	users  store.Identity
	tokens *auth.JWTManager
	limit  int
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. New users get dailyLimit requests
// per day; non-positive values use model.DefaultRateLimit.
func NewAuthHandler(users store.Identity, tokens *auth.JWTManager, dailyLimit int, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if dailyLimit <= 0 {
		dailyLimit = model.DefaultRateLimit
	}
	return &AuthHandler{users: users, tokens: tokens, limit: dailyLimit, logger: logger.With("component", "auth")}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Success   bool   `json:"success"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	APIKey    string `json:"api_key"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type validateResponse struct {
	Valid     bool      `json:"valid"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register creates a user with a fresh API key.
//
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierror.Write(w, r, apierror.Validation("Invalid JSON body").Wrap(err))
		return
	}
	if apiErr := validateInput(req); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to register user").Wrap(err))
		return
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		h.logger.Error("generate api key", slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to register user").Wrap(err))
		return
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		APIKey:       apiKey,
		RateLimit:    h.limit,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			apierror.Write(w, r, apierror.Validation("Username already exists"))
			return
		}
		h.logger.Error("create user", slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to register user").Wrap(err))
		return
	}

	h.logger.Info("user registered", slog.Int64("user_id", user.ID))
	h.writeSession(w, r, http.StatusCreated, user)
}

// Login checks credentials and issues a new token.
//
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		apierror.Write(w, r, apierror.Validation("Invalid JSON body").Wrap(err))
		return
	}
	if apiErr := validateInput(req); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, r, apierror.Unauthorized("Invalid username or password"))
			return
		}
		h.logger.Error("get user", slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to log in").Wrap(err))
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		h.logger.Error("verify password", slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
	}
	if !ok {
		apierror.Write(w, r, apierror.Unauthorized("Invalid username or password"))
		return
	}

	h.writeSession(w, r, http.StatusOK, user)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := h.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		h.logger.Error("generate token", slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to issue token").Wrap(err))
		return
	}

	writeJSON(w, r, status, sessionResponse{
		Success:   true,
		UserID:    user.IDString(),
		Username:  user.Username,
		APIKey:    user.APIKey,
		Token:     token,
		ExpiresIn: int(h.tokens.TTL().Seconds()),
	})
}

// Validate checks a bearer token and reports whom it belongs to.
//
// GET /api/auth/validate
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		apierror.Write(w, r, apierror.Unauthorized("Missing or invalid authorization header"))
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		apierror.Write(w, r, apierror.Unauthorized("Invalid token").Wrap(err))
		return
	}
	userID, _ := claims.UserID()

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, r, apierror.Unauthorized("User not found"))
			return
		}
		h.logger.Error("get user", slog.String("error", err.Error()))
		apierror.Write(w, r, apierror.Internal("Failed to validate token").Wrap(err))
		return
	}

	writeJSON(w, r, http.StatusOK, validateResponse{
		Valid:     true,
		UserID:    user.IDString(),
		Username:  user.Username,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	})
}

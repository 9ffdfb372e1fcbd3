package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/pulseworks/pulseboard/internal/api/respond"
	"github.com/pulseworks/pulseboard/internal/storage"
)

// Handler handles authentication endpoints.
type Handler struct {
	storage    storage.Storage
	jwtService *JWTService
	lockouts   *LockoutTracker
}

// NewHandler creates a new auth handler.
func NewHandler(store storage.Storage, jwt *JWTService, lockouts *LockoutTracker) *Handler {
	return &Handler{
		storage:    store,
		jwtService: jwt,
		lockouts:   lockouts,
	}
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Login authenticates a user and issues an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid request body"))
		return
	}

	if req.Username == "" || req.Password == "" {
		respond.JSONError(w, respond.NewBadRequest("username and password required"))
		return
	}

	if h.lockouts.IsLocked(req.Username) {
		remaining := h.lockouts.RemainingLockoutTime(req.Username)
		log.Printf("login blocked: account %s locked for %v", req.Username, remaining)
		respond.JSONError(w, &respond.Error{
			Code:    respond.ErrCodeRateLimited,
			Message: "account temporarily locked due to too many failed attempts",
			Status:  http.StatusTooManyRequests,
		})
		return
	}

	ctx := r.Context()
	user, err := h.storage.Users().GetByUsername(ctx, req.Username)
	if err != nil {
		log.Printf("login error: get user: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if user == nil {
		h.lockouts.RecordFailure(req.Username)
		log.Printf("login failed: user %s not found", req.Username)
		respond.JSONError(w, respond.ErrUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.lockouts.RecordFailure(req.Username)
		log.Printf("login failed: invalid password for user %s", req.Username)
		respond.JSONError(w, respond.ErrUnauthorized)
		return
	}

	h.lockouts.ClearFailures(req.Username)

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		log.Printf("login error: generate token: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	log.Printf("login: user %s authenticated", user.Username)
	respond.OK(w, LoginResponse{
		AccessToken: token,
		ExpiresIn:   h.jwtService.TTLSeconds(),
		TokenType:   "Bearer",
	})
}

// Logout acknowledges a logout. Access tokens are stateless so the
// client simply discards its token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	log.Printf("logout from %s", r.RemoteAddr)
	respond.NoContent(w)
}

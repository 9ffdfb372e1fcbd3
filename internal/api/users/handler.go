package users

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulseworks/pulseboard/internal/access"
	"github.com/pulseworks/pulseboard/internal/api/respond"
	"github.com/pulseworks/pulseboard/internal/api/auth"
	"github.com/pulseworks/pulseboard/internal/api/middleware"
	"github.com/pulseworks/pulseboard/internal/models"
	"github.com/pulseworks/pulseboard/internal/storage"
)

// UserResponse is a user without sensitive fields.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	Superuser bool   `json:"superuser"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// StaffEntry is one row of the staff directory.
type StaffEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Display  string `json:"display"`
}

// DirectoryResponse is the staff directory with the caller's
// assignment capability.
type DirectoryResponse struct {
	Staff     []*StaffEntry `json:"staff"`
	CanAssign bool          `json:"can_assign"`
}

// Handler handles user management endpoints.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new user handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// CreateRequest is the request body for creating a user.
type CreateRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Superuser bool   `json:"superuser"`
}

// UpdateRequest is the request body for updating a user.
type UpdateRequest struct {
	Email     string  `json:"email,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	Role      string  `json:"role,omitempty"`
	Superuser *bool   `json:"superuser,omitempty"`
}

// ChangePasswordRequest is the request body for changing password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// List returns all users (superuser only).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.storage.Users().List(ctx)
	if err != nil {
		log.Printf("list users error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	resp := make([]*UserResponse, len(users))
	for i, u := range users {
		resp[i] = userToResponse(u)
	}
	respond.OK(w, resp)
}

// Create creates a new user (superuser only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid request body"))
		return
	}

	if err := ValidateUsername(req.Username); err != nil {
		respond.JSONError(w, respond.NewValidationError(err.Error()))
		return
	}
	if err := ValidateEmail(req.Email); err != nil {
		respond.JSONError(w, respond.NewValidationError(err.Error()))
		return
	}
	if err := ValidateFullName(req.FullName); err != nil {
		respond.JSONError(w, respond.NewValidationError(err.Error()))
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		respond.JSONError(w, respond.NewValidationError(err.Error()))
		return
	}
	role, err := ValidateRole(req.Role)
	if err != nil {
		respond.JSONError(w, respond.NewValidationError(err.Error()))
		return
	}

	ctx := r.Context()

	existing, err := h.storage.Users().GetByUsername(ctx, req.Username)
	if err != nil {
		log.Printf("create user error: check username: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if existing != nil {
		respond.JSONError(w, respond.NewConflict("username already exists"))
		return
	}

	existing, err = h.storage.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		log.Printf("create user error: check email: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if existing != nil {
		respond.JSONError(w, respond.NewConflict("email already exists"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("create user error: hash password: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hash),
		Role:         role,
		Superuser:    req.Superuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.storage.Users().Create(ctx, user); err != nil {
		log.Printf("create user error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	log.Printf("user created: %s (%s)", user.Username, user.ID)
	respond.Created(w, userToResponse(user))
}

// GetByID returns a user by ID (superuser or self).
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respond.JSONError(w, respond.NewBadRequest("user id required"))
		return
	}

	ctx := r.Context()
	user, err := h.storage.Users().GetByID(ctx, userID)
	if err != nil {
		log.Printf("get user error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if user == nil {
		respond.JSONError(w, respond.NewNotFound("user not found"))
		return
	}

	respond.OK(w, userToResponse(user))
}

// Update updates a user (superuser only).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respond.JSONError(w, respond.NewBadRequest("user id required"))
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid request body"))
		return
	}

	ctx := r.Context()
	currentUserID := middleware.GetUserID(ctx)

	user, err := h.storage.Users().GetByID(ctx, userID)
	if err != nil {
		log.Printf("update user error: get user: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if user == nil {
		respond.JSONError(w, respond.NewNotFound("user not found"))
		return
	}

	if req.Email != "" {
		if err := ValidateEmail(req.Email); err != nil {
			respond.JSONError(w, respond.NewValidationError(err.Error()))
			return
		}
		existing, err := h.storage.Users().GetByEmail(ctx, req.Email)
		if err != nil {
			log.Printf("update user error: check email: %v", err)
			respond.JSONError(w, respond.ErrInternalServer)
			return
		}
		if existing != nil && existing.ID != userID {
			respond.JSONError(w, respond.NewConflict("email already exists"))
			return
		}
		user.Email = strings.TrimSpace(req.Email)
	}

	if req.FullName != nil {
		if err := ValidateFullName(*req.FullName); err != nil {
			respond.JSONError(w, respond.NewValidationError(err.Error()))
			return
		}
		user.FullName = strings.TrimSpace(*req.FullName)
	}

	if req.Role != "" {
		role, err := ValidateRole(req.Role)
		if err != nil {
			respond.JSONError(w, respond.NewValidationError(err.Error()))
			return
		}
		user.Role = role
	}

	if req.Superuser != nil {
		// A superuser cannot strip their own flag; someone else must.
		if userID == currentUserID && !*req.Superuser {
			respond.JSONError(w, respond.NewBadRequest("cannot revoke own superuser flag"))
			return
		}
		user.Superuser = *req.Superuser
	}

	user.UpdatedAt = time.Now()

	if err := h.storage.Users().Update(ctx, user); err != nil {
		log.Printf("update user error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	log.Printf("user updated: %s (%s)", user.Username, user.ID)
	respond.OK(w, userToResponse(user))
}

// Delete deletes a user (superuser only).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respond.JSONError(w, respond.NewBadRequest("user id required"))
		return
	}

	ctx := r.Context()
	if userID == middleware.GetUserID(ctx) {
		respond.JSONError(w, respond.NewBadRequest("cannot delete own account"))
		return
	}

	user, err := h.storage.Users().GetByID(ctx, userID)
	if err != nil {
		log.Printf("delete user error: get user: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if user == nil {
		respond.JSONError(w, respond.NewNotFound("user not found"))
		return
	}

	if err := h.storage.Users().Delete(ctx, userID); err != nil {
		log.Printf("delete user error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	log.Printf("user deleted: %s (%s)", user.Username, user.ID)
	respond.NoContent(w)
}

// GetCurrentUser returns the current authenticated user.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.storage.Users().GetByID(ctx, userID)
	if err != nil {
		log.Printf("get current user error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if user == nil {
		respond.JSONError(w, respond.NewNotFound("user not found"))
		return
	}

	respond.OK(w, userToResponse(user))
}

// ChangePassword changes the current user's password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid request body"))
		return
	}

	if req.CurrentPassword == "" {
		respond.JSONError(w, respond.NewValidationError("current_password is required"))
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		respond.JSONError(w, respond.NewValidationError(err.Error()))
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.storage.Users().GetByID(ctx, userID)
	if err != nil {
		log.Printf("change password error: get user: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if user == nil {
		respond.JSONError(w, respond.NewNotFound("user not found"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		respond.JSONError(w, respond.NewValidationError("current password is incorrect"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("change password error: hash password: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()

	if err := h.storage.Users().Update(ctx, user); err != nil {
		log.Printf("change password error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	log.Printf("password changed: user %s", user.Username)
	respond.NoContent(w)
}

// Directory returns the staff directory used for task assignment
// pickers. Every authenticated user may read it; can_assign tells the
// client whether to render assignment controls.
func (h *Handler) Directory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staff, err := h.storage.Users().ListByRole(ctx, models.RoleStaff)
	if err != nil {
		log.Printf("staff directory error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	entries := make([]*StaffEntry, len(staff))
	for i, u := range staff {
		entries[i] = &StaffEntry{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.FullName,
			Display:  u.DisplayName(),
		}
	}

	caller := middleware.CurrentUser(ctx)
	respond.OK(w, &DirectoryResponse{
		Staff:     entries,
		CanAssign: access.CanAssignTasks(caller),
	})
}

// userToResponse converts a User to UserResponse.
func userToResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		Superuser: u.Superuser,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

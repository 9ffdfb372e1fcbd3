package board

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pulseworks/pulseboard/internal/api/middleware"
	"github.com/pulseworks/pulseboard/internal/api/respond"
	"github.com/pulseworks/pulseboard/internal/metrics"
	"github.com/pulseworks/pulseboard/internal/models"
	"github.com/pulseworks/pulseboard/internal/storage"
)

// Handler handles board endpoints. The board is shared and flat: every
// authenticated user reads and writes the same set of cards.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new board handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// BoardResponse groups cards by column in position order.
type BoardResponse struct {
	Columns map[string][]*models.BoardCard `json:"columns"`
}

// CreateRequest is the request body for creating a card.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// UpdateRequest is the request body for editing a card's text.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// MoveRequest is the request body for moving a card.
type MoveRequest struct {
	Status   string `json:"status"`
	Position int    `json:"position"`
}

// List returns all cards grouped by column.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cards, err := h.storage.Board().List(ctx)
	if err != nil {
		log.Printf("list board error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	// Every column appears in the response even when empty.
	columns := map[string][]*models.BoardCard{
		string(models.StatusBacklog):    {},
		string(models.StatusTodo):       {},
		string(models.StatusInProgress): {},
		string(models.StatusDone):       {},
	}
	for _, c := range cards {
		columns[string(c.Status)] = append(columns[string(c.Status)], c)
	}

	respond.OK(w, &BoardResponse{Columns: columns})
}

// Create adds a card at the bottom of its column.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid request body"))
		return
	}

	if err := ValidateTitle(req.Title); err != nil {
		respond.JSONError(w, respond.NewValidationError(err.Error()))
		return
	}

	status := models.StatusBacklog
	if req.Status != "" {
		s, ok := models.ParseCardStatus(req.Status)
		if !ok {
			respond.JSONError(w, respond.NewValidationError("status must be one of: backlog, todo, inprogress, done"))
			return
		}
		status = s
	}

	now := time.Now()
	card := &models.BoardCard{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		CreatedBy:   middleware.GetUserID(ctx),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.storage.Board().Create(ctx, card); err != nil {
		log.Printf("create card error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	log.Printf("card created: %s (%s)", card.Title, card.ID)
	respond.Created(w, card)
}

// Update edits a card's title or description.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID := chi.URLParam(r, "id")
	card, err := h.storage.Board().GetByID(ctx, cardID)
	if err != nil {
		log.Printf("update card error: get card: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if card == nil {
		respond.JSONError(w, respond.NewNotFound("card not found"))
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid request body"))
		return
	}

	if req.Title != nil {
		if err := ValidateTitle(*req.Title); err != nil {
			respond.JSONError(w, respond.NewValidationError(err.Error()))
			return
		}
		card.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		card.Description = strings.TrimSpace(*req.Description)
	}

	card.UpdatedAt = time.Now()

	if err := h.storage.Board().Update(ctx, card); err != nil {
		log.Printf("update card error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	respond.OK(w, card)
}

// Delete removes a card.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID := chi.URLParam(r, "id")
	card, err := h.storage.Board().GetByID(ctx, cardID)
	if err != nil {
		log.Printf("delete card error: get card: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if card == nil {
		respond.JSONError(w, respond.NewNotFound("card not found"))
		return
	}

	if err := h.storage.Board().Delete(ctx, cardID); err != nil {
		log.Printf("delete card error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}

	log.Printf("card deleted: %s (%s)", card.Title, card.ID)
	respond.NoContent(w)
}

// Move places a card into a column at a position. Siblings at or below
// the slot shift down in the same transaction.
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID := chi.URLParam(r, "id")

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSONError(w, respond.NewBadRequest("invalid request body"))
		return
	}

	status, ok := models.ParseCardStatus(req.Status)
	if !ok {
		respond.JSONError(w, respond.NewValidationError("status must be one of: backlog, todo, inprogress, done"))
		return
	}
	if req.Position < 1 {
		respond.JSONError(w, respond.NewValidationError("position must be at least 1"))
		return
	}

	card, err := h.storage.Board().Move(ctx, cardID, status, req.Position)
	if err != nil {
		log.Printf("move card error: %v", err)
		respond.JSONError(w, respond.ErrInternalServer)
		return
	}
	if card == nil {
		respond.JSONError(w, respond.NewNotFound("card not found"))
		return
	}

	metrics.BoardMovesTotal.Inc()
	log.Printf("card moved: %s to %s[%d]", card.ID, card.Status, card.Position)
	respond.OK(w, card)
}

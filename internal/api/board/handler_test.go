package board

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pulseworks/pulseboard/internal/api/middleware"
	"github.com/pulseworks/pulseboard/internal/models"
	"github.com/pulseworks/pulseboard/internal/storage"
)

type mockBoardRepository struct {
	cards []*models.BoardCard
}

func (m *mockBoardRepository) Create(ctx context.Context, card *models.BoardCard) error {
	max := 0
	for _, c := range m.cards {
		if c.Status == card.Status && c.Position > max {
			max = c.Position
		}
	}
	card.Position = max + 1
	m.cards = append(m.cards, card)
	return nil
}

func (m *mockBoardRepository) GetByID(ctx context.Context, id string) (*models.BoardCard, error) {
	for _, c := range m.cards {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockBoardRepository) Update(ctx context.Context, card *models.BoardCard) error {
	for i, c := range m.cards {
		if c.ID == card.ID {
			m.cards[i] = card
		}
	}
	return nil
}

func (m *mockBoardRepository) Delete(ctx context.Context, id string) error {
	for i, c := range m.cards {
		if c.ID == id {
			m.cards = append(m.cards[:i], m.cards[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockBoardRepository) List(ctx context.Context) ([]*models.BoardCard, error) {
	return m.cards, nil
}

func (m *mockBoardRepository) Move(ctx context.Context, id string, status models.CardStatus, position int) (*models.BoardCard, error) {
	card, _ := m.GetByID(ctx, id)
	if card == nil {
		return nil, nil
	}
	for _, c := range m.cards {
		if c.ID != id && c.Status == status && c.Position >= position {
			c.Position++
		}
	}
	card.Status = status
	card.Position = position
	return card, nil
}

type mockStorage struct {
	board *mockBoardRepository
}

func (m *mockStorage) Open() error                         { return nil }
func (m *mockStorage) Close() error                        { return nil }
func (m *mockStorage) Migrate() error                      { return nil }
func (m *mockStorage) EnsureSuperuser() error              { return nil }
func (m *mockStorage) Users() storage.UserRepository       { return nil }
func (m *mockStorage) Projects() storage.ProjectRepository { return nil }
func (m *mockStorage) Tasks() storage.TaskRepository       { return nil }
func (m *mockStorage) Board() storage.BoardRepository      { return m.board }

func newMockStorage() *mockStorage {
	return &mockStorage{board: &mockBoardRepository{}}
}

func asUser(r *http.Request, id string) *http.Request {
	ctx := middleware.WithUser(r.Context(), id, "user-"+id, models.RoleStaff, false)
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body.Data
}

func seedCard(store *mockStorage, id string, status models.CardStatus) *models.BoardCard {
	card := models.NewBoardCard("card "+id, "", status, "u1")
	card.ID = id
	store.board.Create(context.Background(), card)
	return card
}

func TestList_AllColumnsPresent(t *testing.T) {
	store := newMockStorage()
	seedCard(store, "c1", models.StatusTodo)
	seedCard(store, "c2", models.StatusTodo)
	h := NewHandler(store)

	req := asUser(httptest.NewRequest("GET", "/board", nil), "u1")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeData[BoardResponse](t, rec)
	if len(resp.Columns) != 4 {
		t.Errorf("columns = %d, want 4 (empty columns included)", len(resp.Columns))
	}
	if got := len(resp.Columns["todo"]); got != 2 {
		t.Errorf("todo cards = %d, want 2", got)
	}
	if resp.Columns["done"] == nil {
		t.Error("done column missing, want empty list")
	}
}

func TestCreate_DefaultsToBacklog(t *testing.T) {
	store := newMockStorage()
	h := NewHandler(store)

	body := bytes.NewBufferString(`{"title":"  Ship it  "}`)
	req := asUser(httptest.NewRequest("POST", "/board/cards", body), "u7")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	card := decodeData[models.BoardCard](t, rec)
	if card.Status != models.StatusBacklog {
		t.Errorf("status = %s, want backlog", card.Status)
	}
	if card.Title != "Ship it" {
		t.Errorf("title = %q, want trimmed", card.Title)
	}
	if card.Position != 1 {
		t.Errorf("position = %d, want 1", card.Position)
	}
	if card.CreatedBy != "u7" {
		t.Errorf("created_by = %q, want u7", card.CreatedBy)
	}
}

func TestCreate_RejectsUnknownStatus(t *testing.T) {
	h := NewHandler(newMockStorage())

	body := bytes.NewBufferString(`{"title":"x","status":"archived"}`)
	req := asUser(httptest.NewRequest("POST", "/board/cards", body), "u1")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMove_ShiftsAndReturnsCard(t *testing.T) {
	store := newMockStorage()
	seedCard(store, "a", models.StatusTodo)
	seedCard(store, "b", models.StatusTodo)
	seedCard(store, "x", models.StatusBacklog)
	h := NewHandler(store)

	body := bytes.NewBufferString(`{"status":"todo","position":1}`)
	req := asUser(httptest.NewRequest("POST", "/board/cards/x/move", body), "u1")
	req = withURLParam(req, "id", "x")
	rec := httptest.NewRecorder()
	h.Move(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	card := decodeData[models.BoardCard](t, rec)
	if card.Status != models.StatusTodo || card.Position != 1 {
		t.Errorf("card = %s[%d], want todo[1]", card.Status, card.Position)
	}
	a, _ := store.board.GetByID(context.Background(), "a")
	if a.Position != 2 {
		t.Errorf("sibling position = %d, want 2", a.Position)
	}
}

func TestMove_MissingCardNotFound(t *testing.T) {
	h := NewHandler(newMockStorage())

	body := bytes.NewBufferString(`{"status":"done","position":1}`)
	req := asUser(httptest.NewRequest("POST", "/board/cards/nope/move", body), "u1")
	req = withURLParam(req, "id", "nope")
	rec := httptest.NewRecorder()
	h.Move(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMove_RejectsZeroPosition(t *testing.T) {
	store := newMockStorage()
	seedCard(store, "a", models.StatusTodo)
	h := NewHandler(store)

	body := bytes.NewBufferString(`{"status":"todo","position":0}`)
	req := asUser(httptest.NewRequest("POST", "/board/cards/a/move", body), "u1")
	req = withURLParam(req, "id", "a")
	rec := httptest.NewRecorder()
	h.Move(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDelete_RemovesCard(t *testing.T) {
	store := newMockStorage()
	seedCard(store, "a", models.StatusDone)
	h := NewHandler(store)

	req := asUser(httptest.NewRequest("DELETE", "/board/cards/a", nil), "u1")
	req = withURLParam(req, "id", "a")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if card, _ := store.board.GetByID(context.Background(), "a"); card != nil {
		t.Error("card still present after delete")
	}
}

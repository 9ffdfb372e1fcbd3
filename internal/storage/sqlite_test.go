package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pulseworks/pulseboard/internal/models"
)

func setupTestDB(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "pulseboard-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	store := NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	if err := store.Open(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open database: %v", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("migrate database: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func newTestUser(role models.Role) *models.User {
	now := time.Now()
	id := uuid.New().String()
	return &models.User{
		ID:           id,
		Username:     "user-" + id[:8],
		Email:        id[:8] + "@example.com",
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newTestProject(createdBy string) *models.Project {
	now := time.Now()
	return &models.Project{
		ID:        uuid.New().String(),
		Name:      "Test Project",
		StartDate: now,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestCard(status models.CardStatus) *models.BoardCard {
	now := time.Now()
	return &models.BoardCard{
		ID:        uuid.New().String(),
		Title:     "Card",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := newTestUser(models.RoleTeamLead)
	user.FullName = "Dana Example"
	user.Superuser = true

	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := store.Users().GetByUsername(ctx, user.Username)
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if got == nil {
		t.Fatal("user not found after create")
	}
	if got.Role != models.RoleTeamLead || !got.Superuser || got.FullName != "Dana Example" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	got.Email = "changed@example.com"
	if err := store.Users().Update(ctx, got); err != nil {
		t.Fatalf("update user: %v", err)
	}

	byEmail, err := store.Users().GetByEmail(ctx, "changed@example.com")
	if err != nil || byEmail == nil {
		t.Fatalf("get by email after update: %v, %v", byEmail, err)
	}

	if err := store.Users().Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	gone, err := store.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get deleted user: %v", err)
	}
	if gone != nil {
		t.Error("user still present after delete")
	}
}

func TestUserRepository_ListByRole(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.Users().Create(ctx, newTestUser(models.RoleStaff)); err != nil {
			t.Fatalf("create staff: %v", err)
		}
	}
	if err := store.Users().Create(ctx, newTestUser(models.RoleTeamLead)); err != nil {
		t.Fatalf("create lead: %v", err)
	}

	staff, err := store.Users().ListByRole(ctx, models.RoleStaff)
	if err != nil {
		t.Fatalf("list by role: %v", err)
	}
	if len(staff) != 2 {
		t.Errorf("staff count = %d, want 2", len(staff))
	}
}

func TestProjectRepository_MembersAndScopes(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	lead := newTestUser(models.RoleTeamLead)
	member := newTestUser(models.RoleStaff)
	outsider := newTestUser(models.RoleStaff)
	for _, u := range []*models.User{lead, member, outsider} {
		if err := store.Users().Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	project := newTestProject(lead.ID)
	if err := store.Projects().Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := store.Projects().SetMembers(ctx, project.ID, []string{member.ID}); err != nil {
		t.Fatalf("set members: %v", err)
	}

	owned, err := store.Projects().ListByCreator(ctx, lead.ID)
	if err != nil || len(owned) != 1 {
		t.Fatalf("list by creator = %v, %v; want one project", owned, err)
	}

	visible, err := store.Projects().ListForMember(ctx, member.ID)
	if err != nil || len(visible) != 1 {
		t.Fatalf("list for member = %v, %v; want one project", visible, err)
	}

	none, err := store.Projects().ListForMember(ctx, outsider.ID)
	if err != nil {
		t.Fatalf("list for outsider: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("outsider sees %d projects, want 0", len(none))
	}

	isMember, err := store.Projects().IsMember(ctx, project.ID, member.ID)
	if err != nil || !isMember {
		t.Errorf("IsMember(member) = %v, %v; want true", isMember, err)
	}
	isMember, err = store.Projects().IsMember(ctx, project.ID, outsider.ID)
	if err != nil || isMember {
		t.Errorf("IsMember(outsider) = %v, %v; want false", isMember, err)
	}

	// Replacing the member list drops removed users.
	if err := store.Projects().SetMembers(ctx, project.ID, []string{outsider.ID}); err != nil {
		t.Fatalf("replace members: %v", err)
	}
	members, err := store.Projects().GetMembers(ctx, project.ID)
	if err != nil {
		t.Fatalf("get members: %v", err)
	}
	if len(members) != 1 || members[0].UserID != outsider.ID {
		t.Errorf("members after replace = %+v, want only outsider", members)
	}
}

func TestProjectRepository_TotalCostDerivedFromTasks(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	lead := newTestUser(models.RoleTeamLead)
	if err := store.Users().Create(ctx, lead); err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := newTestProject(lead.ID)
	if err := store.Projects().Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	total, err := store.Projects().TotalCost(ctx, project.ID)
	if err != nil {
		t.Fatalf("total cost: %v", err)
	}
	if total != 0 {
		t.Errorf("empty project total = %v, want 0", total)
	}

	now := time.Now()
	for _, cost := range []float64{100.5, 49.5} {
		task := &models.Task{
			ID:        uuid.New().String(),
			ProjectID: project.ID,
			Title:     "T",
			Cost:      cost,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.Tasks().Create(ctx, task); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}

	total, err = store.Projects().TotalCost(ctx, project.ID)
	if err != nil {
		t.Fatalf("total cost: %v", err)
	}
	if total != 150 {
		t.Errorf("total = %v, want 150", total)
	}
}

func TestTaskRepository_ScopedByProject(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	lead := newTestUser(models.RoleTeamLead)
	assignee := newTestUser(models.RoleStaff)
	for _, u := range []*models.User{lead, assignee} {
		if err := store.Users().Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	p1 := newTestProject(lead.ID)
	p2 := newTestProject(lead.ID)
	for _, p := range []*models.Project{p1, p2} {
		if err := store.Projects().Create(ctx, p); err != nil {
			t.Fatalf("create project: %v", err)
		}
	}

	now := time.Now()
	task := &models.Task{
		ID:         uuid.New().String(),
		ProjectID:  p1.ID,
		Title:      "T",
		AssignedTo: &assignee.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	// Lookup under the wrong project must miss.
	got, err := store.Tasks().GetByID(ctx, p2.ID, task.ID)
	if err != nil {
		t.Fatalf("get task wrong project: %v", err)
	}
	if got != nil {
		t.Error("task found under wrong project")
	}

	assigned, err := store.Tasks().ListAssigned(ctx, p1.ID, assignee.ID)
	if err != nil || len(assigned) != 1 {
		t.Fatalf("list assigned = %v, %v; want one task", assigned, err)
	}
}

func TestBoardRepository_CreateAppendsToColumn(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first := newTestCard(models.StatusTodo)
	second := newTestCard(models.StatusTodo)
	other := newTestCard(models.StatusDone)

	for _, c := range []*models.BoardCard{first, second, other} {
		if err := store.Board().Create(ctx, c); err != nil {
			t.Fatalf("create card: %v", err)
		}
	}

	if first.Position != 1 || second.Position != 2 {
		t.Errorf("todo positions = %d, %d; want 1, 2", first.Position, second.Position)
	}
	if other.Position != 1 {
		t.Errorf("done position = %d, want 1 (columns count independently)", other.Position)
	}
}

func TestBoardRepository_MoveShiftsSiblings(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	a := newTestCard(models.StatusTodo)
	b := newTestCard(models.StatusTodo)
	c := newTestCard(models.StatusTodo)
	x := newTestCard(models.StatusBacklog)
	for _, card := range []*models.BoardCard{a, b, c, x} {
		if err := store.Board().Create(ctx, card); err != nil {
			t.Fatalf("create card: %v", err)
		}
	}

	// Drop x between a and b.
	moved, err := store.Board().Move(ctx, x.ID, models.StatusTodo, 2)
	if err != nil {
		t.Fatalf("move card: %v", err)
	}
	if moved == nil || moved.Status != models.StatusTodo || moved.Position != 2 {
		t.Fatalf("moved = %+v, want todo position 2", moved)
	}

	positions := boardPositions(t, store, models.StatusTodo)
	want := map[string]int{a.ID: 1, x.ID: 2, b.ID: 3, c.ID: 4}
	for id, pos := range want {
		if positions[id] != pos {
			t.Errorf("card %s position = %d, want %d", id, positions[id], pos)
		}
	}
}

func TestBoardRepository_MoveWithinColumnKeepsPositionsUnique(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	a := newTestCard(models.StatusTodo)
	b := newTestCard(models.StatusTodo)
	c := newTestCard(models.StatusTodo)
	for _, card := range []*models.BoardCard{a, b, c} {
		if err := store.Board().Create(ctx, card); err != nil {
			t.Fatalf("create card: %v", err)
		}
	}

	if _, err := store.Board().Move(ctx, c.ID, models.StatusTodo, 1); err != nil {
		t.Fatalf("move card: %v", err)
	}

	positions := boardPositions(t, store, models.StatusTodo)
	seen := map[int]string{}
	for id, pos := range positions {
		if prev, dup := seen[pos]; dup {
			t.Errorf("cards %s and %s share position %d", prev, id, pos)
		}
		seen[pos] = id
	}
	if positions[c.ID] != 1 {
		t.Errorf("moved card position = %d, want 1", positions[c.ID])
	}
}

func TestBoardRepository_MoveMissingCard(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	moved, err := store.Board().Move(context.Background(), "missing", models.StatusTodo, 1)
	if err != nil {
		t.Fatalf("move missing card: %v", err)
	}
	if moved != nil {
		t.Errorf("moved = %+v, want nil for missing card", moved)
	}
}

func boardPositions(t *testing.T, store *SQLiteStorage, status models.CardStatus) map[string]int {
	t.Helper()
	cards, err := store.Board().List(context.Background())
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	out := map[string]int{}
	for _, c := range cards {
		if c.Status == status {
			out[c.ID] = c.Position
		}
	}
	return out
}

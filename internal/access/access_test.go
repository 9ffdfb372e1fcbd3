package access

import (
	"testing"

	"github.com/pulseworks/pulseboard/internal/models"
)

func superuser() *models.User {
	return &models.User{ID: "root-1", Role: models.RoleTeamLead, Superuser: true}
}

func teamLead(id string) *models.User {
	return &models.User{ID: id, Role: models.RoleTeamLead}
}

func staff(id string) *models.User {
	return &models.User{ID: id, Role: models.RoleStaff}
}

func project(createdBy string) *models.Project {
	return &models.Project{ID: "proj-1", Name: "Website", CreatedBy: createdBy}
}

func TestCanCreateProject(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{"superuser", superuser(), true},
		{"team lead", teamLead("lead-1"), true},
		{"staff", staff("staff-1"), false},
		{"superuser flag beats staff role", &models.User{ID: "x", Role: models.RoleStaff, Superuser: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCreateProject(tt.user); got != tt.want {
				t.Errorf("CanCreateProject() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanEditProject(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		proj *models.Project
		want bool
	}{
		{"superuser edits anything", superuser(), project("lead-1"), true},
		{"owning team lead", teamLead("lead-1"), project("lead-1"), true},
		{"other team lead denied", teamLead("lead-2"), project("lead-1"), false},
		{"staff denied even as creator", staff("staff-1"), project("staff-1"), false},
		{"staff denied", staff("staff-1"), project("lead-1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEditProject(tt.user, tt.proj); got != tt.want {
				t.Errorf("CanEditProject() = %v, want %v", got, tt.want)
			}
		})
	}
}

// can_edit(u, p) must equal (u.superuser OR (u.role==team_lead AND p.created_by==u))
// for every combination of role, superuser flag, and ownership.
func TestCanEditProjectEquivalence(t *testing.T) {
	roles := []models.Role{models.RoleTeamLead, models.RoleStaff}
	for _, role := range roles {
		for _, super := range []bool{true, false} {
			for _, owns := range []bool{true, false} {
				u := &models.User{ID: "u-1", Role: role, Superuser: super}
				p := project("someone-else")
				if owns {
					p.CreatedBy = u.ID
				}
				want := super || (role == models.RoleTeamLead && owns)
				if got := CanEditProject(u, p); got != want {
					t.Errorf("role=%s super=%v owns=%v: got %v, want %v",
						role, super, owns, got, want)
				}
			}
		}
	}
}

func TestProjectVisibility(t *testing.T) {
	if got := ProjectVisibility(superuser()); got != ScopeAll {
		t.Errorf("superuser scope = %v, want ScopeAll", got)
	}
	if got := ProjectVisibility(teamLead("lead-1")); got != ScopeOwned {
		t.Errorf("team lead scope = %v, want ScopeOwned", got)
	}
	if got := ProjectVisibility(staff("staff-1")); got != ScopeMember {
		t.Errorf("staff scope = %v, want ScopeMember", got)
	}
}

func TestCanViewProject(t *testing.T) {
	p := project("lead-1")

	if !CanViewProject(superuser(), p, false) {
		t.Error("superuser should view any project")
	}
	if !CanViewProject(teamLead("lead-1"), p, false) {
		t.Error("owning lead should view own project")
	}
	if CanViewProject(teamLead("lead-2"), p, false) {
		t.Error("non-owning lead should not view project")
	}
	if !CanViewProject(staff("staff-1"), p, true) {
		t.Error("member staff should view project")
	}
	if CanViewProject(staff("staff-1"), p, false) {
		t.Error("non-member staff should not view project")
	}
}

func TestTaskVisibility(t *testing.T) {
	p := project("lead-1")

	tests := []struct {
		name   string
		user   *models.User
		member bool
		want   TaskScope
	}{
		{"superuser sees all", superuser(), false, TaskScopeAll},
		{"owning lead sees all", teamLead("lead-1"), false, TaskScopeAll},
		{"other lead denied", teamLead("lead-2"), false, TaskScopeNone},
		{"member staff sees assigned", staff("staff-1"), true, TaskScopeAssigned},
		{"non-member staff denied", staff("staff-1"), false, TaskScopeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaskVisibility(tt.user, p, tt.member); got != tt.want {
				t.Errorf("TaskVisibility() = %v, want %v", got, tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func TestCanUpdateTask_StaffCompletionOnly(t *testing.T) {
	p := project("lead-1")
	assignee := "staff-1"
	task := &models.Task{ID: "task-1", ProjectID: p.ID, AssignedTo: &assignee}
	me := staff("staff-1")

	done := true
	completedOnly := &TaskUpdate{Completed: &done}
	if !CanUpdateTask(me, p, task, completedOnly) {
		t.Error("assignee toggling completed should be allowed")
	}

	title := "sneaky rename"
	withTitle := &TaskUpdate{Completed: &done, Title: &title}
	if CanUpdateTask(me, p, task, withTitle) {
		t.Error("assignee changing title must be rejected, not ignored")
	}

	cost := 99.0
	withCost := &TaskUpdate{Cost: &cost}
	if CanUpdateTask(me, p, task, withCost) {
		t.Error("assignee changing cost must be rejected")
	}

	var unassign *string
	withAssignee := &TaskUpdate{AssignedTo: &unassign}
	if CanUpdateTask(me, p, task, withAssignee) {
		t.Error("assignee reassigning the task must be rejected")
	}

	// Not the assignee: even completed-only is denied.
	other := staff("staff-2")
	if CanUpdateTask(other, p, task, completedOnly) {
		t.Error("non-assignee staff must not update the task")
	}
}

func TestCanUpdateTask_LeadAnyField(t *testing.T) {
	p := project("lead-1")
	task := &models.Task{ID: "task-1", ProjectID: p.ID}

	title := "new title"
	cost := 150.0
	assignee := strPtr("staff-2")
	update := &TaskUpdate{Title: &title, Cost: &cost, AssignedTo: &assignee}

	if !CanUpdateTask(teamLead("lead-1"), p, task, update) {
		t.Error("owning lead should update any field")
	}
	if !CanUpdateTask(superuser(), p, task, update) {
		t.Error("superuser should update any field")
	}
	if CanUpdateTask(teamLead("lead-2"), p, task, update) {
		t.Error("non-owning lead must not update tasks")
	}
}

func TestTouchesOnlyCompletion(t *testing.T) {
	done := false
	if !(&TaskUpdate{Completed: &done}).TouchesOnlyCompletion() {
		t.Error("completed-only update misclassified")
	}
	if !(&TaskUpdate{}).TouchesOnlyCompletion() {
		t.Error("empty update touches nothing beyond completion")
	}
	hours := 2.5
	if (&TaskUpdate{TimeTaken: &hours}).TouchesOnlyCompletion() {
		t.Error("time_taken update misclassified")
	}
}

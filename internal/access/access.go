// Package access holds the project/task permission rules. The functions
// here are pure: they take the acting user and the records involved and
// answer yes/no, leaving storage lookups and HTTP status codes to callers.
package access

import (
	"github.com/pulseworks/pulseboard/internal/models"
)

// CanCreateProject reports whether the user may create projects.
// Only team leads and superusers create projects.
func CanCreateProject(u *models.User) bool {
	return u.Superuser || u.IsTeamLead()
}

// CanEditProject reports whether the user may update or delete the project.
// The check is two-part for non-superusers: the team lead role AND
// ownership must both hold.
func CanEditProject(u *models.User, p *models.Project) bool {
	if u.Superuser {
		return true
	}
	return u.IsTeamLead() && p.CreatedBy == u.ID
}

// ProjectScope describes which projects a user may list.
type ProjectScope int

const (
	// ScopeAll lists every project (superuser).
	ScopeAll ProjectScope = iota
	// ScopeOwned lists projects the user created (team lead).
	ScopeOwned
	// ScopeMember lists projects the user is a member of (staff).
	ScopeMember
)

// ProjectVisibility returns the listing scope for the user.
func ProjectVisibility(u *models.User) ProjectScope {
	switch {
	case u.Superuser:
		return ScopeAll
	case u.IsTeamLead():
		return ScopeOwned
	default:
		return ScopeMember
	}
}

// CanViewProject reports whether the user may open the project at all.
// Staff need membership; a team lead needs ownership; superusers see
// everything. isMember is the membership lookup result for staff callers.
func CanViewProject(u *models.User, p *models.Project, isMember bool) bool {
	if u.Superuser {
		return true
	}
	if u.IsTeamLead() {
		return p.CreatedBy == u.ID
	}
	return isMember
}

// TaskScope describes which of a project's tasks a user may list.
type TaskScope int

const (
	// TaskScopeAll lists every task in the project.
	TaskScopeAll TaskScope = iota
	// TaskScopeAssigned lists only tasks assigned to the user.
	TaskScopeAssigned
	// TaskScopeNone denies the listing entirely.
	TaskScopeNone
)

// TaskVisibility returns the task listing scope for the user within the
// project. Non-owning team leads are denied; the project-level gate
// upstream returns nothing for them.
func TaskVisibility(u *models.User, p *models.Project, isMember bool) TaskScope {
	if u.Superuser {
		return TaskScopeAll
	}
	if u.IsTeamLead() {
		if p.CreatedBy == u.ID {
			return TaskScopeAll
		}
		return TaskScopeNone
	}
	if isMember {
		return TaskScopeAssigned
	}
	return TaskScopeNone
}

// CanManageTasks reports whether the user may create or delete tasks in
// the project: the owning team lead or a superuser.
func CanManageTasks(u *models.User, p *models.Project) bool {
	return CanEditProject(u, p)
}

// TaskUpdate enumerates the fields of a task update request. A nil field
// was absent from the request and must not change.
type TaskUpdate struct {
	Title       *string
	Description *string
	TimeTaken   *float64
	Cost        *float64
	AssignedTo  **string // outer nil: absent; inner nil: unassign
	Completed   *bool
}

// TouchesOnlyCompletion reports whether the update changes nothing beyond
// the completion flag.
func (f *TaskUpdate) TouchesOnlyCompletion() bool {
	return f.Title == nil && f.Description == nil && f.TimeTaken == nil &&
		f.Cost == nil && f.AssignedTo == nil
}

// CanUpdateTask decides whether the user may apply the update to the task.
// The owning team lead and superusers may set any field. A staff assignee
// may only toggle completion on their own task; an update touching any
// other field is rejected outright, never partially applied.
func CanUpdateTask(u *models.User, p *models.Project, t *models.Task, f *TaskUpdate) bool {
	if CanEditProject(u, p) {
		return true
	}
	if t.AssignedUserID() != u.ID {
		return false
	}
	return f.TouchesOnlyCompletion()
}

// CanAssignTasks reports whether the user may pick assignees at all,
// mirroring the staff directory's can_assign flag.
func CanAssignTasks(u *models.User) bool {
	return u.Superuser || u.IsTeamLead()
}

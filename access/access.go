// ABOUTME: Task permission predicates keyed on authorship and assignment
// ABOUTME: Resolves the acting user once into an Actor and evaluates edit/delete/toggle rules
package access

import (
	"strings"

	"github.com/harperreed/dealflow/models"
)

// Action is an operation on an embedded task.
type Action string

const (
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionToggle Action = "toggle completion of"
)

// LegacyMode decides how tasks without a recorded author are treated.
type LegacyMode string

const (
	// LegacyPermissive lets any identified or anonymous actor modify authorless tasks.
	LegacyPermissive LegacyMode = "permissive"
	// LegacyDeny treats authorless tasks as owned by nobody.
	LegacyDeny LegacyMode = "deny"
)

// ParseLegacyMode maps a config string to a mode, defaulting to permissive.
func ParseLegacyMode(s string) LegacyMode {
	if LegacyMode(strings.ToLower(strings.TrimSpace(s))) == LegacyDeny {
		return LegacyDeny
	}
	return LegacyPermissive
}

// Actor is the acting user, resolved once per session.
// Either field may be empty; an actor with both empty is anonymous.
type Actor struct {
	ID    string
	Email string
}

// NewActor builds a normalized actor from a user id and email.
func NewActor(id, email string) Actor {
	return Actor{
		ID:    strings.TrimSpace(id),
		Email: normalizeEmail(email),
	}
}

// FromUser resolves a stored user profile into an actor.
func FromUser(u models.User) Actor {
	return NewActor(u.ID, u.Email)
}

// IsZero reports whether the actor carries no identity.
func (a Actor) IsZero() bool {
	return a.ID == "" && a.Email == ""
}

// Identity returns the value stamped into createdBy and assignedBy.
// The email is preferred since it is what assignees are usually recorded as.
func (a Actor) Identity() string {
	if a.Email != "" {
		return a.Email
	}
	return a.ID
}

// Matches reports whether a recorded identity (id or email) refers to this actor.
func (a Actor) Matches(identity string) bool {
	identity = strings.TrimSpace(identity)
	if identity == "" || a.IsZero() {
		return false
	}
	if a.ID != "" && identity == a.ID {
		return true
	}
	return a.Email != "" && normalizeEmail(identity) == a.Email
}

func (a Actor) String() string {
	if a.IsZero() {
		return "anonymous"
	}
	return a.Identity()
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Policy evaluates task permissions.
type Policy struct {
	Legacy LegacyMode
}

// DefaultPolicy keeps authorless tasks open to everyone.
var DefaultPolicy = Policy{Legacy: LegacyPermissive}

// Can reports whether the actor may perform action on task.
func (p Policy) Can(actor Actor, task models.Task, action Action) bool {
	switch action {
	case ActionEdit, ActionDelete:
		return p.isAuthor(actor, task)
	case ActionToggle:
		return p.isAuthor(actor, task) || actor.Matches(task.Assignee)
	default:
		return false
	}
}

func (p Policy) isAuthor(actor Actor, task models.Task) bool {
	if strings.TrimSpace(task.CreatedBy) == "" {
		return p.Legacy != LegacyDeny
	}
	return actor.Matches(task.CreatedBy)
}

func (p Policy) CanDeleteTask(task models.Task, actor Actor) bool {
	return p.Can(actor, task, ActionDelete)
}

func (p Policy) CanEditTask(task models.Task, actor Actor) bool {
	return p.Can(actor, task, ActionEdit)
}

func (p Policy) CanToggleTaskCompletion(task models.Task, actor Actor) bool {
	return p.Can(actor, task, ActionToggle)
}

// CanDeleteTask applies the default policy.
func CanDeleteTask(task models.Task, actor Actor) bool {
	return DefaultPolicy.CanDeleteTask(task, actor)
}

// CanEditTask applies the default policy.
func CanEditTask(task models.Task, actor Actor) bool {
	return DefaultPolicy.CanEditTask(task, actor)
}

// CanToggleTaskCompletion applies the default policy.
func CanToggleTaskCompletion(task models.Task, actor Actor) bool {
	return DefaultPolicy.CanToggleTaskCompletion(task, actor)
}

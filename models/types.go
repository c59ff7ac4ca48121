// ABOUTME: Data models for pipeline entities
// ABOUTME: Defines Opportunity, Task, Note, Stage, Appointment, and Contact structs
package models

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an opportunity.
type Status string

const (
	StatusOpen      Status = "Open"
	StatusWon       Status = "Won"
	StatusLost      Status = "Lost"
	StatusAbandoned Status = "Abandoned"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusWon, StatusLost, StatusAbandoned:
		return true
	}
	return false
}

// ParseStatus matches s against the known statuses ignoring case.
// Unknown input is returned trimmed so Valid still rejects it.
func ParseStatus(s string) Status {
	s = strings.TrimSpace(s)
	for _, st := range []Status{StatusOpen, StatusWon, StatusLost, StatusAbandoned} {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return Status(s)
}

// Collection names in the document store.
const (
	CollectionContacts      = "contacts"
	CollectionOpportunities = "opportunities"
	CollectionAppointments  = "appointments"
	CollectionConversations = "conversations"
	CollectionSettings      = "settings"
)

// DateLayout is the layout used for follow-up, due and appointment dates.
const DateLayout = "2006-01-02"

// TimeLayout is the layout used for due and appointment times.
const TimeLayout = "15:04"

type Opportunity struct {
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name"`
	Value        float64   `json:"value"`
	Stage        string    `json:"stage"`
	Status       Status    `json:"status"`
	Source       string    `json:"source,omitempty"`
	ContactID    string    `json:"contactId,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	FollowUpDate string    `json:"followUpDate,omitempty"`
	FollowUpRead bool      `json:"followUpRead"`
	Tasks        []Task    `json:"tasks,omitempty"`
	Notes        []Note    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Task is a to-do item embedded in an opportunity.
// CreatedBy is empty for legacy records written before authorship was tracked.
type Task struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsCompleted bool   `json:"isCompleted"`
	DueDate     string `json:"dueDate,omitempty"`
	DueTime     string `json:"dueTime,omitempty"`
	Recurring   bool   `json:"recurring,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	AssignedBy  string `json:"assignedBy,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
}

type Note struct {
	ID        string    `json:"id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Stage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Color string `json:"color,omitempty"`
}

type Appointment struct {
	ID         string `json:"id,omitempty"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	ContactID  string `json:"contactId,omitempty"`
	Location   string `json:"location,omitempty"`
	Source     string `json:"source,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
}

// Appointment sources.
const (
	AppointmentSourceManual = "manual"
	AppointmentSourceGoogle = "google"
)

type Contact struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// WithCompletion returns a copy of the task with the completion flag replaced.
func (t Task) WithCompletion(done bool) Task {
	t.IsCompleted = done
	return t
}

// IsOverdue returns true if the task is past its due date and not completed.
func (t Task) IsOverdue(now time.Time) bool {
	if t.IsCompleted || t.DueDate == "" {
		return false
	}

	due, err := time.ParseInLocation(DateLayout, t.DueDate, now.Location())
	if err != nil {
		return false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return due.Before(today)
}

// FindTask returns the index of the task with the given id, or -1.
func (o *Opportunity) FindTask(id string) int {
	for i := range o.Tasks {
		if o.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// IsClosedWon reports whether the opportunity counts as won for conversion purposes.
func (o *Opportunity) IsClosedWon() bool {
	return o.Status == StatusWon || o.Stage == StageClosedID
}

// Clone returns a deep copy so cached records are never aliased by callers.
func (o Opportunity) Clone() Opportunity {
	if o.Tags != nil {
		o.Tags = append([]string(nil), o.Tags...)
	}
	if o.Tasks != nil {
		o.Tasks = append([]Task(nil), o.Tasks...)
	}
	if o.Notes != nil {
		o.Notes = append([]Note(nil), o.Notes...)
	}
	return o
}

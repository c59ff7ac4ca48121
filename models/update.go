// ABOUTME: Partial update payload for opportunities
// ABOUTME: Nil fields are left untouched; Fields renders the changed keys for the store
package models

import "time"

// OpportunityUpdate carries the fields a caller wants to change.
type OpportunityUpdate struct {
	Name         *string
	Value        *float64
	Stage        *string
	Status       *Status
	Source       *string
	ContactID    *string
	Tags         *[]string
	FollowUpDate *string
	FollowUpRead *bool
	Tasks        *[]Task
	Notes        *[]Note
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// IsEmpty reports whether the update changes nothing.
func (u OpportunityUpdate) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// TouchesStageOrValue reports whether stage counts need recomputing after the update.
func (u OpportunityUpdate) TouchesStageOrValue() bool {
	return u.Stage != nil || u.Value != nil
}

// Fields returns the partial document for the changed fields, keyed by JSON name.
func (u OpportunityUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Value != nil {
		fields["value"] = *u.Value
	}
	if u.Stage != nil {
		fields["stage"] = *u.Stage
	}
	if u.Status != nil {
		fields["status"] = string(*u.Status)
	}
	if u.Source != nil {
		fields["source"] = *u.Source
	}
	if u.ContactID != nil {
		fields["contactId"] = *u.ContactID
	}
	if u.Tags != nil {
		fields["tags"] = NormalizeTags(*u.Tags)
	}
	if u.FollowUpDate != nil {
		fields["followUpDate"] = *u.FollowUpDate
	}
	if u.FollowUpRead != nil {
		fields["followUpRead"] = *u.FollowUpRead
	}
	if u.Tasks != nil {
		fields["tasks"] = *u.Tasks
	}
	if u.Notes != nil {
		fields["notes"] = *u.Notes
	}
	return fields
}

// ApplyTo writes the changed fields onto o and stamps UpdatedAt.
func (u OpportunityUpdate) ApplyTo(o *Opportunity, now time.Time) {
	if u.Name != nil {
		o.Name = *u.Name
	}
	if u.Value != nil {
		o.Value = *u.Value
	}
	if u.Stage != nil {
		o.Stage = *u.Stage
	}
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.Source != nil {
		o.Source = *u.Source
	}
	if u.ContactID != nil {
		o.ContactID = *u.ContactID
	}
	if u.Tags != nil {
		o.Tags = NormalizeTags(*u.Tags)
	}
	if u.FollowUpDate != nil {
		o.FollowUpDate = *u.FollowUpDate
	}
	if u.FollowUpRead != nil {
		o.FollowUpRead = *u.FollowUpRead
	}
	if u.Tasks != nil {
		o.Tasks = append([]Task(nil), (*u.Tasks)...)
	}
	if u.Notes != nil {
		o.Notes = append([]Note(nil), (*u.Notes)...)
	}
	o.UpdatedAt = now
}

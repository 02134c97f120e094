// Package complaint manages the complaint center: complaints raised against
// flagged learner messages and their review workflow.
package complaint

import (
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
)

// Entity is the collection name used in errors, logs and metrics.
const Entity = "complaint"

// Status is the review state of a complaint.
type Status string

// Complaint statuses
const (
	StatusPending   Status = "pending"
	StatusInReview  Status = "in_review"
	StatusResolved  Status = "resolved"
	StatusDismissed Status = "dismissed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusPending, StatusInReview, StatusResolved, StatusDismissed}

// Priority is the urgency assigned to a complaint.
type Priority string

// Complaint priorities
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Complaint is a report about a flagged message sent by a learner.
type Complaint struct {
	repository.BaseModel `yaml:",inline"`
	Date                 string   `json:"date" yaml:"date"`
	Complaint            string   `json:"complaint" yaml:"complaint"`
	FlaggedMessage       string   `json:"flagged_message" yaml:"flagged_message"`
	StudentUsername      string   `json:"student_username" yaml:"student_username"`
	StudentEmail         string   `json:"student_email" yaml:"student_email"`
	ParentEmail          string   `json:"parent_email" yaml:"parent_email"`
	Status               Status   `json:"status" yaml:"status"`
	Priority             Priority `json:"priority" yaml:"priority"`
	AssignedTo           *string  `json:"assigned_to" yaml:"assigned_to"`
	Notes                string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Clone returns a deep copy of c.
func (c *Complaint) Clone() *Complaint {
	cp := *c
	if c.AssignedTo != nil {
		assignee := *c.AssignedTo
		cp.AssignedTo = &assignee
	}
	return &cp
}

// Schema exposes the complaint fields to the query pipeline.
var Schema = query.SchemaFromTags[*Complaint](Entity, "json")

// SearchFields are the fields free-text search looks at.
var SearchFields = []string{"complaint", "student_username", "parent_email", "flagged_message"}

// DefaultSort lists the newest complaints first.
var DefaultSort = query.Sort{Field: "created_at", Order: query.SortDesc}

// ListParams are the list-screen controls.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	// Status filters by status; empty or "all" means every status.
	Status string
}

// Options converts p into query options.
func (p ListParams) Options() query.Options {
	opts := query.Options{
		Search:     query.Search{Term: p.Search, Fields: SearchFields},
		Sort:       DefaultSort,
		Pagination: query.Pagination{Page: p.Page, PageSize: p.PageSize},
	}
	if p.Status != "" {
		opts.Filter = query.Filter{"status": p.Status}
	}
	return opts
}

// CreateInput is the payload for filing a complaint.
type CreateInput struct {
	Complaint       string   `json:"complaint" validate:"notblank"`
	FlaggedMessage  string   `json:"flagged_message" validate:"notblank"`
	StudentUsername string   `json:"student_username" validate:"notblank"`
	StudentEmail    string   `json:"student_email" validate:"required,email"`
	ParentEmail     string   `json:"parent_email" validate:"required,email"`
	Priority        Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// UpdateInput is a partial update. Nil fields are left unchanged; an empty
// AssignedTo clears the assignee.
type UpdateInput struct {
	Status     *Status   `json:"status" validate:"omitempty,oneof=pending in_review resolved dismissed"`
	Priority   *Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedTo *string   `json:"assigned_to"`
	Notes      *string   `json:"notes"`
}

// Stats counts complaints per status.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	InReview  int `json:"in_review"`
	Resolved  int `json:"resolved"`
	Dismissed int `json:"dismissed"`
}

// Package pricing manages the subscription plans offered to parents.
package pricing

import (
	"encoding/json"
	"slices"

	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
)

// Entity is the collection name used in errors, logs and metrics.
const Entity = "plan"

// Status is the availability of a plan.
type Status string

// Plan statuses
const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

// Feature is one line of a plan's feature list.
type Feature struct {
	Name        string `json:"name" yaml:"name" validate:"notblank"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Plan is a subscription plan. Nil limits mean unlimited.
type Plan struct {
	repository.BaseModel `yaml:",inline"`
	Name                 string    `json:"name" yaml:"name"`
	Description          string    `json:"description" yaml:"description"`
	MonthlyPrice         float64   `json:"monthly_price" yaml:"monthly_price"`
	YearlyPrice          float64   `json:"yearly_price" yaml:"yearly_price"`
	Status               Status    `json:"status" yaml:"status"`
	MaxLearners          *int      `json:"max_learners" yaml:"max_learners"`
	MaxLessonsPerMonth   *int      `json:"max_lessons_per_month" yaml:"max_lessons_per_month"`
	Features             []Feature `json:"features" yaml:"features"`
	IsDefault            bool      `json:"is_default" yaml:"is_default"`
	SubscriberCount      int       `json:"subscriber_count" yaml:"subscriber_count"`
}

// Clone returns a deep copy of p.
func (p *Plan) Clone() *Plan {
	cp := *p
	cp.MaxLearners = cloneInt(p.MaxLearners)
	cp.MaxLessonsPerMonth = cloneInt(p.MaxLessonsPerMonth)
	cp.Features = slices.Clone(p.Features)
	return &cp
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// Schema exposes the plan fields to the query pipeline.
var Schema = query.SchemaFromTags[*Plan](Entity, "json")

// DefaultSort lists the cheapest plans first.
var DefaultSort = query.Sort{Field: "monthly_price", Order: query.SortAsc}

// ListParams are the list-screen controls.
type ListParams struct {
	Page     int
	PageSize int
	// Status filters by status; empty or "all" means every status.
	Status string
}

// Options converts p into query options.
func (p ListParams) Options() query.Options {
	opts := query.Options{
		Sort:       DefaultSort,
		Pagination: query.Pagination{Page: p.Page, PageSize: p.PageSize},
	}
	if p.Status != "" {
		opts.Filter = query.Filter{"status": p.Status}
	}
	return opts
}

// CreateInput is the payload for creating a plan.
type CreateInput struct {
	Name               string    `json:"name" validate:"notblank"`
	Description        string    `json:"description"`
	MonthlyPrice       float64   `json:"monthly_price" validate:"gte=0"`
	YearlyPrice        float64   `json:"yearly_price" validate:"gte=0"`
	MaxLearners        *int      `json:"max_learners" validate:"omitempty,gte=1"`
	MaxLessonsPerMonth *int      `json:"max_lessons_per_month" validate:"omitempty,gte=1"`
	Features           []Feature `json:"features" validate:"dive"`
}

// Limit is an optional change to a nullable limit. When Set is false the
// limit is left unchanged; a nil Value makes it unlimited.
type Limit struct {
	Set   bool
	Value *int
}

// LimitOf returns a Limit that sets the limit to n.
func LimitOf(n int) Limit {
	return Limit{Set: true, Value: &n}
}

// Unlimited returns a Limit that removes the limit.
func Unlimited() Limit {
	return Limit{Set: true}
}

// UnmarshalJSON marks the limit as set; JSON null means unlimited.
func (l *Limit) UnmarshalJSON(data []byte) error {
	l.Set = true
	l.Value = nil
	if string(data) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	l.Value = &n
	return nil
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name               *string    `json:"name" validate:"omitempty,notblank"`
	Description        *string    `json:"description"`
	MonthlyPrice       *float64   `json:"monthly_price" validate:"omitempty,gte=0"`
	YearlyPrice        *float64   `json:"yearly_price" validate:"omitempty,gte=0"`
	Status             *Status    `json:"status" validate:"omitempty,oneof=active inactive archived"`
	MaxLearners        Limit      `json:"max_learners"`
	MaxLessonsPerMonth Limit      `json:"max_lessons_per_month"`
	Features           *[]Feature `json:"features" validate:"omitempty,dive"`
}

// PlanRevenue is the monthly revenue one plan brings in.
type PlanRevenue struct {
	PlanID      string  `json:"plan_id"`
	Name        string  `json:"name"`
	Subscribers int     `json:"subscribers"`
	Monthly     float64 `json:"monthly"`
}

// Revenue is the monthly revenue across every plan.
type Revenue struct {
	Monthly     float64       `json:"monthly"`
	Subscribers int           `json:"subscribers"`
	ByPlan      []PlanRevenue `json:"by_plan"`
}

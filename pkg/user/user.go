// Package user manages parent and learner accounts. Learners belong to a
// parent; deleting a parent removes its learners.
package user

import (
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
)

// Entity is the collection name used in errors, logs and metrics.
const Entity = "user"

// Type distinguishes parents from learners.
type Type string

// User types
const (
	TypeParent  Type = "parent"
	TypeLearner Type = "learner"
)

// Defaults for new accounts.
const (
	DefaultLearnerLevel = "Grade 1"
	DefaultPlan         = "Free"
)

// User is a parent or learner account.
type User struct {
	repository.BaseModel `yaml:",inline"`
	Email                string  `json:"email" yaml:"email"`
	Username             string  `json:"username" yaml:"username"`
	UserType             Type    `json:"user_type" yaml:"user_type"`
	Level                *string `json:"level" yaml:"level"`
	Paid                 bool    `json:"paid" yaml:"paid"`
	Plan                 string  `json:"plan" yaml:"plan"`
	Active               bool    `json:"active" yaml:"active"`
	ParentID             *string `json:"parent_id" yaml:"parent_id"`
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	cp := *u
	if u.Level != nil {
		level := *u.Level
		cp.Level = &level
	}
	if u.ParentID != nil {
		parent := *u.ParentID
		cp.ParentID = &parent
	}
	return &cp
}

// IsParent reports whether u is a parent account.
func (u *User) IsParent() bool {
	return u.UserType == TypeParent
}

// IsChildOf reports whether u is a learner of parentID.
func (u *User) IsChildOf(parentID string) bool {
	return u.UserType == TypeLearner && u.ParentID != nil && *u.ParentID == parentID
}

// Parent is a parent account with its learners attached.
type Parent struct {
	*User
	Children []*User `json:"children"`
}

// Schema exposes the user fields to the query pipeline.
var Schema = query.SchemaFromTags[*User](Entity, "json")

// SearchFields are the fields free-text search looks at.
var SearchFields = []string{"email", "username"}

// DefaultSort lists the newest accounts first.
var DefaultSort = query.Sort{Field: "created_at", Order: query.SortDesc}

// ListParams are the list-screen controls.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
}

// Options converts p into query options over parent accounts.
func (p ListParams) Options() query.Options {
	return query.Options{
		Filter:     query.Filter{"user_type": TypeParent},
		Search:     query.Search{Term: p.Search, Fields: SearchFields},
		Sort:       DefaultSort,
		Pagination: query.Pagination{Page: p.Page, PageSize: p.PageSize},
	}
}

// CreateInput is the payload for creating an account. ParentID is required
// for learners and must be empty for parents.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"notblank,min=3"`
	UserType Type   `json:"user_type" validate:"required,oneof=parent learner"`
	ParentID string `json:"parent_id"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Username *string `json:"username" validate:"omitempty,notblank,min=3"`
	Level    *string `json:"level"`
	Paid     *bool   `json:"paid"`
	Plan     *string `json:"plan" validate:"omitempty,notblank"`
	Active   *bool   `json:"active"`
}

// Counts summarises the user base.
type Counts struct {
	Total          int `json:"total"`
	Parents        int `json:"parents"`
	Learners       int `json:"learners"`
	ActiveLearners int `json:"active_learners"`
	Paid           int `json:"paid"`
}

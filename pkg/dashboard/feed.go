package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nimburion/tutoradmin/pkg/complaint"
	"github.com/nimburion/tutoradmin/pkg/knowledgebase"
	"github.com/nimburion/tutoradmin/pkg/llmconfig"
	"github.com/nimburion/tutoradmin/pkg/pricing"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/user"
)

// ActivityType classifies a recent-activity entry.
type ActivityType string

// Activity types
const (
	ActivityUserSignup       ActivityType = "user_signup"
	ActivityComplaintFiled   ActivityType = "complaint_filed"
	ActivityDocumentUploaded ActivityType = "document_uploaded"
	ActivityLLMConfigured    ActivityType = "llm_configured"
	ActivityPlanCreated      ActivityType = "plan_created"
)

// DefaultFeedCapacity is the number of entries a feed keeps by default.
const DefaultFeedCapacity = 20

// Activity is one entry of the recent-activity feed.
type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
	User        string       `json:"user,omitempty"`
}

// Feed is a bounded, newest-first log of recent activity. It is safe for
// concurrent use.
type Feed struct {
	mu       sync.Mutex
	entries  []Activity
	next     int
	full     bool
	capacity int
}

// NewFeed creates a feed keeping the last capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	return &Feed{
		entries:  make([]Activity, capacity),
		capacity: capacity,
	}
}

// Record appends a, evicting the oldest entry when the feed is full.
func (f *Feed) Record(a Activity) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[f.next] = a
	f.next = (f.next + 1) % f.capacity
	if f.next == 0 {
		f.full = true
	}
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns all.
func (f *Feed) Recent(limit int) []Activity {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.next
	if f.full {
		n = f.capacity
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Activity, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (f.next - i + f.capacity) % f.capacity
		out = append(out, f.entries[idx])
	}
	return out
}

// Watch records an activity for every store event describe accepts.
func Watch[T any](f *Feed, store interface{ Subscribe(repository.Subscriber[T]) }, describe func(repository.Event[T]) (Activity, bool)) {
	store.Subscribe(func(ev repository.Event[T]) {
		a, ok := describe(ev)
		if !ok {
			return
		}
		if a.Timestamp.IsZero() {
			a.Timestamp = ev.At
		}
		f.Record(a)
	})
}

// UserSignups describes new accounts.
func UserSignups(ev repository.Event[*user.User]) (Activity, bool) {
	if ev.Type != repository.EventCreated {
		return Activity{}, false
	}
	return Activity{
		Type:        ActivityUserSignup,
		Title:       "New " + string(ev.Record.UserType) + " signed up",
		Description: ev.Record.Username + " joined on the " + ev.Record.Plan + " plan",
		User:        ev.Record.Email,
	}, true
}

// ComplaintsFiled describes new complaints.
func ComplaintsFiled(ev repository.Event[*complaint.Complaint]) (Activity, bool) {
	if ev.Type != repository.EventCreated {
		return Activity{}, false
	}
	return Activity{
		Type:        ActivityComplaintFiled,
		Title:       "Complaint filed",
		Description: string(ev.Record.Priority) + " priority complaint about " + ev.Record.StudentUsername,
		User:        ev.Record.ParentEmail,
	}, true
}

// DocumentsUploaded describes new knowledge-base files.
func DocumentsUploaded(ev repository.Event[*knowledgebase.File]) (Activity, bool) {
	if ev.Type != repository.EventCreated {
		return Activity{}, false
	}
	return Activity{
		Type:        ActivityDocumentUploaded,
		Title:       "Document uploaded",
		Description: ev.Record.FileName + " for " + ev.Record.Level + " " + ev.Record.Subject,
	}, true
}

// LLMConfigured describes changes to the model configuration.
func LLMConfigured(ev repository.Event[*llmconfig.Config]) (Activity, bool) {
	if ev.Type != repository.EventUpdated {
		return Activity{}, false
	}
	return Activity{
		Type:        ActivityLLMConfigured,
		Title:       "LLM configuration updated",
		Description: "Tutor now runs on " + ev.Record.ModelName,
	}, true
}

// PlansCreated describes new pricing plans.
func PlansCreated(ev repository.Event[*pricing.Plan]) (Activity, bool) {
	if ev.Type != repository.EventCreated {
		return Activity{}, false
	}
	return Activity{
		Type:        ActivityPlanCreated,
		Title:       "Pricing plan created",
		Description: ev.Record.Name + " plan is now available",
	}, true
}

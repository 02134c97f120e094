package complaint

import (
	"context"
	"strings"

	"github.com/nimburion/tutoradmin/pkg/observability/tracing"
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/service"
)

// Store is the complaint collection.
type Store = repository.MemoryStore[*Complaint]

// NewStore creates an empty complaint collection.
func NewStore(opts ...repository.Option) *Store {
	return repository.NewMemoryStore[*Complaint](Entity, opts...)
}

// Service implements the complaint center operations.
type Service struct {
	service.Base
	store *Store
}

// NewService creates a complaint service over store.
func NewService(store *Store, deps service.Deps) *Service {
	return &Service{
		Base:  service.NewBase(Entity, deps),
		store: store,
	}
}

// Store returns the underlying collection.
func (s *Service) Store() *Store {
	return s.store
}

// List returns one page of complaints for the list-screen controls.
func (s *Service) List(ctx context.Context, params ListParams) (query.Page[*Complaint], error) {
	return s.Query(ctx, params.Options())
}

// Query runs arbitrary query options over the complaint collection.
func (s *Service) Query(ctx context.Context, opts query.Options) (query.Page[*Complaint], error) {
	return service.List(ctx, &s.Base, Schema, opts, s.store.Snapshot)
}

// Get returns the complaint with id.
func (s *Service) Get(ctx context.Context, id string) (*Complaint, error) {
	return service.Read(ctx, &s.Base, "get", func(ctx context.Context) (*Complaint, error) {
		c, ok := s.store.GetByID(ctx, id)
		if !ok {
			return nil, repository.NewNotFoundError(Entity, id)
		}
		return c, nil
	})
}

// Create files a new pending complaint. Priority defaults to medium.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Complaint, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationCreate, "create", "", func(ctx context.Context) (*Complaint, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}
		priority := in.Priority
		if priority == "" {
			priority = PriorityMedium
		}
		return s.store.Add(ctx, &Complaint{
			Date:            s.Now().UTC().Format("2006-01-02"),
			Complaint:       strings.TrimSpace(in.Complaint),
			FlaggedMessage:  strings.TrimSpace(in.FlaggedMessage),
			StudentUsername: strings.TrimSpace(in.StudentUsername),
			StudentEmail:    in.StudentEmail,
			ParentEmail:     in.ParentEmail,
			Status:          StatusPending,
			Priority:        priority,
		})
	})
}

// Update applies the non-nil fields of in to the complaint with id.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Complaint, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "update", id, func(ctx context.Context) (*Complaint, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}
		return s.store.Update(ctx, id, func(c *Complaint) error {
			if in.Status != nil {
				c.Status = *in.Status
			}
			if in.Priority != nil {
				c.Priority = *in.Priority
			}
			if in.AssignedTo != nil {
				if assignee := strings.TrimSpace(*in.AssignedTo); assignee != "" {
					c.AssignedTo = &assignee
				} else {
					c.AssignedTo = nil
				}
			}
			if in.Notes != nil {
				c.Notes = *in.Notes
			}
			return nil
		})
	})
}

// UpdateStatus moves the complaint with id to status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Complaint, error) {
	if status == "" {
		return nil, query.NewInvalidArgumentError("status", status, "is required")
	}
	return s.Update(ctx, id, UpdateInput{Status: &status})
}

// Delete removes the complaint with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := service.Mutate(ctx, &s.Base, tracing.SpanOperationDelete, "delete", id, func(ctx context.Context) (*Complaint, error) {
		return s.store.Remove(ctx, id)
	})
	return err
}

// Stats counts complaints per status.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return service.Read(ctx, &s.Base, "stats", func(ctx context.Context) (Stats, error) {
		var stats Stats
		for _, c := range s.store.Snapshot(ctx) {
			stats.Total++
			switch c.Status {
			case StatusPending:
				stats.Pending++
			case StatusInReview:
				stats.InReview++
			case StatusResolved:
				stats.Resolved++
			case StatusDismissed:
				stats.Dismissed++
			}
		}
		return stats, nil
	})
}

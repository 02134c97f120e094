package pricing

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/nimburion/tutoradmin/pkg/observability/tracing"
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/service"
)

// Store is the plan collection.
type Store = repository.MemoryStore[*Plan]

// NewStore creates an empty plan collection.
func NewStore(opts ...repository.Option) *Store {
	return repository.NewMemoryStore[*Plan](Entity, opts...)
}

// Service implements plan management.
type Service struct {
	service.Base
	store *Store
}

// NewService creates a pricing service over store.
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

// List returns one page of plans, cheapest first.
func (s *Service) List(ctx context.Context, params ListParams) (query.Page[*Plan], error) {
	return s.Query(ctx, params.Options())
}

// Query runs arbitrary query options over the plan collection.
func (s *Service) Query(ctx context.Context, opts query.Options) (query.Page[*Plan], error) {
	return service.List(ctx, &s.Base, Schema, opts, s.store.Snapshot)
}

// All returns every plan, cheapest first.
func (s *Service) All(ctx context.Context) ([]*Plan, error) {
	return service.Read(ctx, &s.Base, "all", func(ctx context.Context) ([]*Plan, error) {
		return query.ApplySort(s.store.Snapshot(ctx), Schema, DefaultSort), nil
	})
}

// Get returns the plan with id.
func (s *Service) Get(ctx context.Context, id string) (*Plan, error) {
	return service.Read(ctx, &s.Base, "get", func(ctx context.Context) (*Plan, error) {
		p, ok := s.store.GetByID(ctx, id)
		if !ok {
			return nil, repository.NewNotFoundError(Entity, id)
		}
		return p, nil
	})
}

// Create adds an active plan with no subscribers.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Plan, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationCreate, "create", "", func(ctx context.Context) (*Plan, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}
		features := slices.Clone(in.Features)
		if features == nil {
			features = []Feature{}
		}
		return s.store.Add(ctx, &Plan{
			Name:               strings.TrimSpace(in.Name),
			Description:        in.Description,
			MonthlyPrice:       in.MonthlyPrice,
			YearlyPrice:        in.YearlyPrice,
			Status:             StatusActive,
			MaxLearners:        cloneInt(in.MaxLearners),
			MaxLessonsPerMonth: cloneInt(in.MaxLessonsPerMonth),
			Features:           features,
		})
	})
}

// Update applies in to the plan with id.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Plan, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "update", id, func(ctx context.Context) (*Plan, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}
		if err := validateLimit("max_learners", in.MaxLearners); err != nil {
			return nil, err
		}
		if err := validateLimit("max_lessons_per_month", in.MaxLessonsPerMonth); err != nil {
			return nil, err
		}
		return s.store.Update(ctx, id, func(p *Plan) error {
			if in.Name != nil {
				p.Name = strings.TrimSpace(*in.Name)
			}
			if in.Description != nil {
				p.Description = *in.Description
			}
			if in.MonthlyPrice != nil {
				p.MonthlyPrice = *in.MonthlyPrice
			}
			if in.YearlyPrice != nil {
				p.YearlyPrice = *in.YearlyPrice
			}
			if in.Status != nil {
				p.Status = *in.Status
			}
			if in.MaxLearners.Set {
				p.MaxLearners = cloneInt(in.MaxLearners.Value)
			}
			if in.MaxLessonsPerMonth.Set {
				p.MaxLessonsPerMonth = cloneInt(in.MaxLessonsPerMonth.Value)
			}
			if in.Features != nil {
				p.Features = slices.Clone(*in.Features)
			}
			return nil
		})
	})
}

func validateLimit(field string, l Limit) error {
	if l.Set && l.Value != nil && *l.Value < 1 {
		return query.NewInvalidArgumentError(field, *l.Value, "must be at least 1")
	}
	return nil
}

// Delete removes the plan with id. The default plan and plans with
// subscribers cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := service.Mutate(ctx, &s.Base, tracing.SpanOperationDelete, "delete", id, func(ctx context.Context) (*Plan, error) {
		return s.store.RemoveIf(ctx, id, func(p *Plan) error {
			switch {
			case p.IsDefault:
				return repository.NewConflictError(Entity, "is_default", true, "cannot delete the default plan")
			case p.SubscriberCount > 0:
				return repository.NewConflictError(Entity, "subscriber_count", p.SubscriberCount,
					fmt.Sprintf("cannot delete plan with %d active subscribers", p.SubscriberCount))
			}
			return nil
		})
	})
	return err
}

// ToggleStatus activates an inactive or archived plan and deactivates an
// active one.
func (s *Service) ToggleStatus(ctx context.Context, id string) (*Plan, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "toggle_status", id, func(ctx context.Context) (*Plan, error) {
		return s.store.Update(ctx, id, func(p *Plan) error {
			if p.Status == StatusActive {
				p.Status = StatusInactive
			} else {
				p.Status = StatusActive
			}
			return nil
		})
	})
}

// Revenue sums price times subscribers over every plan.
func (s *Service) Revenue(ctx context.Context) (Revenue, error) {
	return service.Read(ctx, &s.Base, "revenue", func(ctx context.Context) (Revenue, error) {
		plans := query.ApplySort(s.store.Snapshot(ctx), Schema, DefaultSort)
		out := Revenue{ByPlan: make([]PlanRevenue, 0, len(plans))}
		for _, p := range plans {
			monthly := p.MonthlyPrice * float64(p.SubscriberCount)
			out.Monthly += monthly
			out.Subscribers += p.SubscriberCount
			out.ByPlan = append(out.ByPlan, PlanRevenue{
				PlanID:      p.ID,
				Name:        p.Name,
				Subscribers: p.SubscriberCount,
				Monthly:     monthly,
			})
		}
		return out, nil
	})
}

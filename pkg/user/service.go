package user

import (
	"context"
	"strings"
	"sync"

	"github.com/nimburion/tutoradmin/pkg/observability/tracing"
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/service"
)

// Store is the user collection.
type Store = repository.MemoryStore[*User]

// NewStore creates an empty user collection.
func NewStore(opts ...repository.Option) *Store {
	return repository.NewMemoryStore[*User](Entity, opts...)
}

// Service implements account management.
type Service struct {
	service.Base
	store *Store

	// writeMu serialises mutations that check other records first: email
	// uniqueness, parent existence and cascading deletes.
	writeMu sync.Mutex
}

// NewService creates a user service over store.
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

// List returns one page of parent accounts, newest first, each with the
// learners that match the same search attached.
func (s *Service) List(ctx context.Context, params ListParams) (query.Page[Parent], error) {
	opts := params.Options()
	var snapshot []*User
	load := func(ctx context.Context) []*User {
		snapshot = s.store.Snapshot(ctx)
		return snapshot
	}

	parents, err := service.List(ctx, &s.Base, Schema, opts, load)
	if err != nil {
		return query.Page[Parent]{}, err
	}

	children := make(map[string][]*User)
	for _, u := range query.ApplySearch(snapshot, Schema, opts.Search) {
		if u.UserType == TypeLearner && u.ParentID != nil {
			children[*u.ParentID] = append(children[*u.ParentID], u)
		}
	}
	return query.Map(parents, func(p *User) Parent {
		kids := children[p.ID]
		if kids == nil {
			kids = []*User{}
		}
		return Parent{User: p, Children: kids}
	}), nil
}

// Query runs arbitrary query options over every account.
func (s *Service) Query(ctx context.Context, opts query.Options) (query.Page[*User], error) {
	return service.List(ctx, &s.Base, Schema, opts, s.store.Snapshot)
}

// Get returns the account with id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return service.Read(ctx, &s.Base, "get", func(ctx context.Context) (*User, error) {
		u, ok := s.store.GetByID(ctx, id)
		if !ok {
			return nil, repository.NewNotFoundError(Entity, id)
		}
		return u, nil
	})
}

// Children returns the learners of parentID in insertion order.
func (s *Service) Children(ctx context.Context, parentID string) ([]*User, error) {
	return service.Read(ctx, &s.Base, "children", func(ctx context.Context) ([]*User, error) {
		parent, ok := s.store.GetByID(ctx, parentID)
		if !ok || !parent.IsParent() {
			return nil, repository.NewNotFoundError("parent", parentID)
		}
		return s.store.Find(ctx, func(u *User) bool { return u.IsChildOf(parentID) }), nil
	})
}

// Create adds an account. Emails are unique regardless of case. Learners get
// the default level and every account starts active on the free plan.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationCreate, "create", "", func(ctx context.Context) (*User, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}

		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		if err := s.checkEmailFree(ctx, in.Email, ""); err != nil {
			return nil, err
		}

		u := &User{
			Email:    strings.TrimSpace(in.Email),
			Username: strings.TrimSpace(in.Username),
			UserType: in.UserType,
			Plan:     DefaultPlan,
			Active:   true,
		}
		parentID := strings.TrimSpace(in.ParentID)
		switch in.UserType {
		case TypeLearner:
			if parentID == "" {
				return nil, query.NewInvalidArgumentError("parent_id", in.ParentID, "is required for learners")
			}
			parent, ok := s.store.GetByID(ctx, parentID)
			if !ok || !parent.IsParent() {
				return nil, query.NewInvalidArgumentError("parent_id", parentID, "must reference an existing parent")
			}
			level := DefaultLearnerLevel
			u.Level = &level
			u.ParentID = &parentID
		case TypeParent:
			if parentID != "" {
				return nil, query.NewInvalidArgumentError("parent_id", parentID, "must be empty for parents")
			}
		}
		return s.store.Add(ctx, u)
	})
}

// Update applies the non-nil fields of in to the account with id.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*User, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "update", id, func(ctx context.Context) (*User, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}

		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		if in.Email != nil {
			if err := s.checkEmailFree(ctx, *in.Email, id); err != nil {
				return nil, err
			}
		}
		return s.store.Update(ctx, id, func(u *User) error {
			if in.Level != nil {
				if u.IsParent() {
					return query.NewInvalidArgumentError("level", *in.Level, "only learners have a level")
				}
				level := strings.TrimSpace(*in.Level)
				u.Level = &level
			}
			if in.Email != nil {
				u.Email = strings.TrimSpace(*in.Email)
			}
			if in.Username != nil {
				u.Username = strings.TrimSpace(*in.Username)
			}
			if in.Paid != nil {
				u.Paid = *in.Paid
			}
			if in.Plan != nil {
				u.Plan = strings.TrimSpace(*in.Plan)
			}
			if in.Active != nil {
				u.Active = *in.Active
			}
			return nil
		})
	})
}

// ToggleStatus flips the active flag of the account with id.
func (s *Service) ToggleStatus(ctx context.Context, id string) (*User, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "toggle_status", id, func(ctx context.Context) (*User, error) {
		return s.store.Update(ctx, id, func(u *User) error {
			u.Active = !u.Active
			return nil
		})
	})
}

// Delete removes the account with id. Deleting a parent also removes its
// learners. It returns every removed account, the target first.
func (s *Service) Delete(ctx context.Context, id string) ([]*User, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationDelete, "delete", id, func(ctx context.Context) ([]*User, error) {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		removed, err := s.store.Remove(ctx, id)
		if err != nil {
			return nil, err
		}
		out := []*User{removed}
		if removed.IsParent() {
			learners := s.store.RemoveFunc(ctx, func(u *User) bool { return u.IsChildOf(id) })
			out = append(out, learners...)
			if len(learners) > 0 {
				s.Logger().WithContext(ctx).Info("cascaded parent delete", "parent_id", id, "learners", len(learners))
			}
		}
		return out, nil
	})
}

// Counts summarises the user base.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return service.Read(ctx, &s.Base, "counts", func(ctx context.Context) (Counts, error) {
		var c Counts
		for _, u := range s.store.Snapshot(ctx) {
			c.Total++
			if u.Paid {
				c.Paid++
			}
			if u.IsParent() {
				c.Parents++
				continue
			}
			c.Learners++
			if u.Active {
				c.ActiveLearners++
			}
		}
		return c, nil
	})
}

// checkEmailFree returns a *repository.ConflictError when another account
// than exceptID already uses email.
func (s *Service) checkEmailFree(ctx context.Context, email, exceptID string) error {
	email = strings.TrimSpace(email)
	taken := s.store.Count(ctx, func(u *User) bool {
		return u.ID != exceptID && strings.EqualFold(u.Email, email)
	})
	if taken > 0 {
		return repository.NewConflictError(Entity, "email", email, "email already exists")
	}
	return nil
}

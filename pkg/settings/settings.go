// Package settings holds the platform-wide settings: the disclaimers shown
// to children and parents, the logo and maintenance mode.
package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/nimburion/tutoradmin/pkg/observability/tracing"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/service"
)

// Entity is the collection name used in errors, logs and metrics.
const Entity = "settings"

// CurrentID is the ID of the single settings record.
const CurrentID = "current"

// MaxDisclaimerLength bounds both disclaimers.
const MaxDisclaimerLength = 500

// Settings are the platform-wide settings.
type Settings struct {
	repository.BaseModel `yaml:",inline"`
	ChildDisclaimer      string  `json:"child_disclaimer" yaml:"child_disclaimer"`
	ParentDisclaimer     string  `json:"parent_disclaimer" yaml:"parent_disclaimer"`
	MaintenanceMode      bool    `json:"maintenance_mode" yaml:"maintenance_mode"`
	Logo                 *string `json:"logo" yaml:"logo"`
}

// Clone returns a deep copy of s.
func (s *Settings) Clone() *Settings {
	cp := *s
	if s.Logo != nil {
		logo := *s.Logo
		cp.Logo = &logo
	}
	return &cp
}

// Defaults are the settings used before any are saved.
var Defaults = Settings{
	ChildDisclaimer:  "This tutor is an AI. Ask a parent or teacher if something seems wrong.",
	ParentDisclaimer: "Responses are generated by an AI tutor and may contain mistakes.",
}

// UpdateInput replaces the disclaimers. A nil MaintenanceMode or Logo is left
// unchanged; an empty Logo removes it.
type UpdateInput struct {
	ChildDisclaimer  string  `json:"child_disclaimer" validate:"notblank,max=500"`
	ParentDisclaimer string  `json:"parent_disclaimer" validate:"notblank,max=500"`
	MaintenanceMode  *bool   `json:"maintenance_mode"`
	Logo             *string `json:"logo"`
}

// Store holds the settings record.
type Store = repository.MemoryStore[*Settings]

// NewStore creates an empty settings store.
func NewStore(opts ...repository.Option) *Store {
	return repository.NewMemoryStore[*Settings](Entity, opts...)
}

// Service manages the platform settings.
type Service struct {
	service.Base
	store *Store
}

// NewService creates a settings service over store.
func NewService(store *Store, deps service.Deps) *Service {
	return &Service{
		Base:  service.NewBase(Entity, deps),
		store: store,
	}
}

// Store returns the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return service.Read(ctx, &s.Base, "get", s.current)
}

// Update validates in and saves it.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Settings, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "update", CurrentID, func(ctx context.Context) (*Settings, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}
		if _, err := s.current(ctx); err != nil {
			return nil, err
		}
		return s.store.Update(ctx, CurrentID, func(st *Settings) error {
			st.ChildDisclaimer = strings.TrimSpace(in.ChildDisclaimer)
			st.ParentDisclaimer = strings.TrimSpace(in.ParentDisclaimer)
			if in.MaintenanceMode != nil {
				st.MaintenanceMode = *in.MaintenanceMode
			}
			if in.Logo != nil {
				if logo := strings.TrimSpace(*in.Logo); logo != "" {
					st.Logo = &logo
				} else {
					st.Logo = nil
				}
			}
			return nil
		})
	})
}

// ToggleMaintenance flips maintenance mode.
func (s *Service) ToggleMaintenance(ctx context.Context) (*Settings, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "toggle_maintenance", CurrentID, func(ctx context.Context) (*Settings, error) {
		if _, err := s.current(ctx); err != nil {
			return nil, err
		}
		st, err := s.store.Update(ctx, CurrentID, func(st *Settings) error {
			st.MaintenanceMode = !st.MaintenanceMode
			return nil
		})
		if err == nil {
			s.Logger().WithContext(ctx).Warn("maintenance mode changed", "enabled", st.MaintenanceMode)
		}
		return st, err
	})
}

// MaintenanceEnabled reports whether maintenance mode is on. It reads the
// store directly, without simulated latency, so request middleware can call it.
func (s *Service) MaintenanceEnabled(ctx context.Context) bool {
	st, ok := s.store.GetByID(ctx, CurrentID)
	return ok && st.MaintenanceMode
}

func (s *Service) current(ctx context.Context) (*Settings, error) {
	if st, ok := s.store.GetByID(ctx, CurrentID); ok {
		return st, nil
	}
	defaults := Defaults.Clone()
	defaults.BaseModel = repository.BaseModel{ID: CurrentID}
	st, err := s.store.Add(ctx, defaults)
	if errors.Is(err, repository.ErrDuplicateID) {
		if st, ok := s.store.GetByID(ctx, CurrentID); ok {
			return st, nil
		}
	}
	return st, err
}

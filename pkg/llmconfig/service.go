package llmconfig

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nimburion/tutoradmin/pkg/observability/tracing"
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/service"
)

// Store holds the active configuration record.
type Store = repository.MemoryStore[*Config]

// NewStore creates an empty configuration store.
func NewStore(opts ...repository.Option) *Store {
	return repository.NewMemoryStore[*Config](Entity, opts...)
}

// Option configures a Service.
type Option func(*Service)

// WithModels replaces the model catalogue.
func WithModels(models []Model) Option {
	return func(s *Service) {
		s.models = slices.Clone(models)
	}
}

// WithDefaults replaces the configuration Reset restores.
func WithDefaults(cfg Config) Option {
	return func(s *Service) {
		s.defaults = cfg
	}
}

// Service manages the active model configuration.
type Service struct {
	service.Base
	store    *Store
	models   []Model
	defaults Config
}

// NewService creates a configuration service over store. The active record is
// created from the defaults the first time it is needed.
func NewService(store *Store, deps service.Deps, opts ...Option) *Service {
	s := &Service{
		Base:     service.NewBase(Entity, deps),
		store:    store,
		models:   slices.Clone(DefaultModels),
		defaults: DefaultConfig,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

// Get returns the active configuration.
func (s *Service) Get(ctx context.Context) (*Config, error) {
	return service.Read(ctx, &s.Base, "get", s.active)
}

// Models returns the model catalogue.
func (s *Service) Models(ctx context.Context) ([]Model, error) {
	return service.Read(ctx, &s.Base, "models", func(context.Context) ([]Model, error) {
		return slices.Clone(s.models), nil
	})
}

// Model returns the catalogue entry with id.
func (s *Service) Model(id string) (Model, bool) {
	i := slices.IndexFunc(s.models, func(m Model) bool { return m.ID == id })
	if i < 0 {
		return Model{}, false
	}
	return s.models[i], true
}

// Update validates in and applies it to the active configuration.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Config, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "update", ActiveID, func(ctx context.Context) (*Config, error) {
		if err := service.ValidateStruct(in); err != nil {
			return nil, err
		}
		model, ok := s.Model(in.ModelID)
		if !ok {
			return nil, query.NewInvalidArgumentError("model_id", in.ModelID, "unknown model")
		}
		if in.MaxTokens > model.MaxOutputTokens {
			return nil, query.NewInvalidArgumentError("max_tokens", in.MaxTokens,
				fmt.Sprintf("must not exceed %d for %s", model.MaxOutputTokens, model.Name))
		}
		if _, err := s.active(ctx); err != nil {
			return nil, err
		}
		return s.store.Update(ctx, ActiveID, func(c *Config) error {
			c.ModelID = model.ID
			c.ModelName = model.Name
			c.Provider = model.Provider
			c.Temperature = in.Temperature
			c.MaxTokens = in.MaxTokens
			c.TopP = in.TopP
			c.FrequencyPenalty = in.FrequencyPenalty
			c.PresencePenalty = in.PresencePenalty
			c.SystemPrompt = in.SystemPrompt
			return nil
		})
	})
}

// Reset restores the default configuration.
func (s *Service) Reset(ctx context.Context) (*Config, error) {
	return service.Mutate(ctx, &s.Base, tracing.SpanOperationUpdate, "reset", ActiveID, func(ctx context.Context) (*Config, error) {
		if _, err := s.active(ctx); err != nil {
			return nil, err
		}
		return s.store.Update(ctx, ActiveID, func(c *Config) error {
			base := c.BaseModel
			*c = s.defaults
			c.BaseModel = base
			return nil
		})
	})
}

// active returns the active record, creating it from the defaults if needed.
func (s *Service) active(ctx context.Context) (*Config, error) {
	if c, ok := s.store.GetByID(ctx, ActiveID); ok {
		return c, nil
	}
	cfg := s.defaults
	cfg.BaseModel = repository.BaseModel{ID: ActiveID}
	c, err := s.store.Add(ctx, &cfg)
	if errors.Is(err, repository.ErrDuplicateID) {
		// Created concurrently.
		if c, ok := s.store.GetByID(ctx, ActiveID); ok {
			return c, nil
		}
	}
	return c, err
}

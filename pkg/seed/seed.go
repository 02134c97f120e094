// Package seed loads fixture data into the domain stores at startup.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nimburion/tutoradmin/pkg/complaint"
	"github.com/nimburion/tutoradmin/pkg/knowledgebase"
	"github.com/nimburion/tutoradmin/pkg/llmconfig"
	"github.com/nimburion/tutoradmin/pkg/pricing"
	"github.com/nimburion/tutoradmin/pkg/repository"
	"github.com/nimburion/tutoradmin/pkg/settings"
	"github.com/nimburion/tutoradmin/pkg/user"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

// Fixtures is the content of a fixture file.
type Fixtures struct {
	Users      []*user.User           `yaml:"users"`
	Complaints []*complaint.Complaint `yaml:"complaints"`
	Plans      []*pricing.Plan        `yaml:"plans"`
	Files      []*knowledgebase.File  `yaml:"files"`
	Models     []llmconfig.Model      `yaml:"models"`
	LLMConfig  *llmconfig.Config      `yaml:"llm_config"`
	Settings   *settings.Settings     `yaml:"settings"`
}

// Stores are the collections fixtures are loaded into. Nil stores are skipped.
type Stores struct {
	Users      *user.Store
	Complaints *complaint.Store
	Plans      *pricing.Store
	Files      *knowledgebase.Store
	LLMConfig  *llmconfig.Store
	Settings   *settings.Store
}

// Summary counts the records loaded per collection.
type Summary map[string]int

// Default returns the embedded fixtures.
func Default() (*Fixtures, error) {
	return Parse(bytes.NewReader(defaultFixtures))
}

// LoadFile reads fixtures from path.
func LoadFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Resolve returns the fixtures in path, or the embedded ones when path is empty.
func Resolve(path string) (*Fixtures, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Parse decodes YAML fixtures. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fx Fixtures
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse seed fixtures: %w", err)
	}
	return &fx, nil
}

// Load inserts fx into stores through the normal Add path, so explicit IDs are
// kept and a repeated ID fails with a *repository.DuplicateIDError.
func Load(ctx context.Context, fx *Fixtures, stores Stores) (Summary, error) {
	summary := Summary{}
	if err := addAll(ctx, stores.Users, fx.Users, summary); err != nil {
		return summary, err
	}
	if err := addAll(ctx, stores.Complaints, fx.Complaints, summary); err != nil {
		return summary, err
	}
	if err := addAll(ctx, stores.Plans, fx.Plans, summary); err != nil {
		return summary, err
	}
	if err := addAll(ctx, stores.Files, fx.Files, summary); err != nil {
		return summary, err
	}
	if fx.LLMConfig != nil {
		cfg := fx.LLMConfig.Clone()
		cfg.ID = llmconfig.ActiveID
		if err := addAll(ctx, stores.LLMConfig, []*llmconfig.Config{cfg}, summary); err != nil {
			return summary, err
		}
	}
	if fx.Settings != nil {
		st := fx.Settings.Clone()
		st.ID = settings.CurrentID
		if err := addAll(ctx, stores.Settings, []*settings.Settings{st}, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func addAll[T repository.Record[T]](ctx context.Context, store *repository.MemoryStore[T], records []T, summary Summary) error {
	if store == nil || len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if _, err := store.Add(ctx, rec); err != nil {
			return fmt.Errorf("failed to seed %s: %w", store.Entity(), err)
		}
	}
	summary[store.Entity()] += len(records)
	return nil
}

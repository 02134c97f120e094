// Package llmconfig holds the language model configuration the tutor runs
// with and the catalogue of models an administrator can pick from.
package llmconfig

import (
	"github.com/nimburion/tutoradmin/pkg/repository"
)

// Entity is the collection name used in errors, logs and metrics.
const Entity = "llm_config"

// ActiveID is the ID of the single active configuration record.
const ActiveID = "active"

// Provider is the vendor of a model.
type Provider string

// Model providers
const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderMeta      Provider = "meta"
	ProviderCohere    Provider = "cohere"
)

// Model is an entry of the model catalogue.
type Model struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Provider        Provider `json:"provider" yaml:"provider"`
	Description     string   `json:"description" yaml:"description"`
	ContextWindow   int      `json:"context_window" yaml:"context_window"`
	MaxOutputTokens int      `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// Config is the active model configuration. ModelName and Provider are
// derived from the catalogue entry of ModelID.
type Config struct {
	repository.BaseModel `yaml:",inline"`
	ModelID              string   `json:"model_id" yaml:"model_id"`
	ModelName            string   `json:"model_name" yaml:"model_name"`
	Provider             Provider `json:"provider" yaml:"provider"`
	Temperature          float64  `json:"temperature" yaml:"temperature"`
	MaxTokens            int      `json:"max_tokens" yaml:"max_tokens"`
	TopP                 float64  `json:"top_p" yaml:"top_p"`
	FrequencyPenalty     float64  `json:"frequency_penalty" yaml:"frequency_penalty"`
	PresencePenalty      float64  `json:"presence_penalty" yaml:"presence_penalty"`
	SystemPrompt         string   `json:"system_prompt" yaml:"system_prompt"`
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// UpdateInput replaces the tunable settings of the active configuration.
type UpdateInput struct {
	ModelID          string  `json:"model_id" validate:"required"`
	Temperature      float64 `json:"temperature" validate:"gte=0,lte=1"`
	MaxTokens        int     `json:"max_tokens" validate:"gte=100"`
	TopP             float64 `json:"top_p" validate:"gte=0,lte=1"`
	FrequencyPenalty float64 `json:"frequency_penalty" validate:"gte=-2,lte=2"`
	PresencePenalty  float64 `json:"presence_penalty" validate:"gte=-2,lte=2"`
	SystemPrompt     string  `json:"system_prompt"`
}

// DefaultModels is the catalogue used when none is configured.
var DefaultModels = []Model{
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Provider: ProviderOpenAI, Description: "Most capable GPT-4 model with 128K context window", ContextWindow: 128000, MaxOutputTokens: 4096},
	{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: ProviderOpenAI, Description: "Fast and cost-effective for most tasks", ContextWindow: 16385, MaxOutputTokens: 4096},
	{ID: "claude-3-sonnet", Name: "Claude 3 Sonnet", Provider: ProviderAnthropic, Description: "Balanced performance and speed", ContextWindow: 200000, MaxOutputTokens: 4096},
	{ID: "claude-3-haiku", Name: "Claude 3 Haiku", Provider: ProviderAnthropic, Description: "Fastest Claude model for quick responses", ContextWindow: 200000, MaxOutputTokens: 4096},
	{ID: "gemini-pro", Name: "Gemini Pro", Provider: ProviderGoogle, Description: "Multimodal model from Google", ContextWindow: 32768, MaxOutputTokens: 8192},
	{ID: "llama-2-70b", Name: "Llama 2 70B", Provider: ProviderMeta, Description: "Open-source large language model", ContextWindow: 4096, MaxOutputTokens: 2048},
	{ID: "command", Name: "Command", Provider: ProviderCohere, Description: "Flagship text generation model from Cohere", ContextWindow: 4096, MaxOutputTokens: 2048},
}

// DefaultConfig is the configuration Reset restores when no other default is set.
var DefaultConfig = Config{
	ModelID:      "gpt-4-turbo",
	ModelName:    "GPT-4 Turbo",
	Provider:     ProviderOpenAI,
	Temperature:  0.7,
	MaxTokens:    2048,
	TopP:         1,
	SystemPrompt: "You are a patient tutor. Explain concepts step by step at the learner's level and never give away answers to assessments.",
}

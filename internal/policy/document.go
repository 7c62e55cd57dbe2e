package policy

import (
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Document is the on-disk shape of the policy file. It is decoded as-is
// and then compiled into a snapshot.
type Document struct {
	DefaultModel string            `mapstructure:"default_model" yaml:"default_model" json:"default_model"`
	Roles        []RoleDoc         `mapstructure:"roles"         yaml:"roles"         json:"roles"`
	Personas     []PersonaDoc      `mapstructure:"personas"      yaml:"personas"      json:"personas"`
	Backends     []BackendDoc      `mapstructure:"backends"      yaml:"backends"      json:"backends"`
	PII          PIIDoc            `mapstructure:"pii"           yaml:"pii"           json:"pii"`
}

type RoleDoc struct {
	ID          string   `mapstructure:"id"          yaml:"id"          json:"id"`
	Name        string   `mapstructure:"name"        yaml:"name"        json:"name"`
	Tier        string   `mapstructure:"tier"        yaml:"tier"        json:"tier"`
	Permissions []string `mapstructure:"permissions" yaml:"permissions" json:"permissions"`
}

type PersonaDoc struct {
	ID            string   `mapstructure:"id"             yaml:"id"             json:"id"`
	Name          string   `mapstructure:"name"           yaml:"name"           json:"name"`
	SystemPrompt  string   `mapstructure:"system_prompt"  yaml:"system_prompt"  json:"system_prompt"`
	AllowedModels []string `mapstructure:"allowed_models" yaml:"allowed_models" json:"allowed_models"`
}

type BackendDoc struct {
	ID        string     `mapstructure:"id"          yaml:"id"          json:"id"`
	Provider  string     `mapstructure:"provider"    yaml:"provider"    json:"provider"`
	ModelName string     `mapstructure:"model_name"  yaml:"model_name"  json:"model_name"`
	BaseURL   string     `mapstructure:"base_url"    yaml:"base_url"    json:"base_url"`
	APIKeyEnv string     `mapstructure:"api_key_env" yaml:"api_key_env" json:"api_key_env"`
	MaxTokens any        `mapstructure:"max_tokens"  yaml:"max_tokens"  json:"max_tokens"`
	Enabled   bool       `mapstructure:"enabled"     yaml:"enabled"     json:"enabled"`
	Pricing   PricingDoc `mapstructure:"pricing"     yaml:"pricing"     json:"pricing"`
}

type PricingDoc struct {
	InputPer1K  float64 `mapstructure:"input_per_1k_tokens"  yaml:"input_per_1k_tokens"  json:"input_per_1k_tokens"`
	OutputPer1K float64 `mapstructure:"output_per_1k_tokens" yaml:"output_per_1k_tokens" json:"output_per_1k_tokens"`
}

type PIIDoc struct {
	Patterns  []PatternDoc `mapstructure:"patterns"  yaml:"patterns"  json:"patterns"`
	Redaction RedactionDoc `mapstructure:"redaction" yaml:"redaction" json:"redaction"`
}

type PatternDoc struct {
	Name        string `mapstructure:"name"        yaml:"name"        json:"name"`
	Pattern     string `mapstructure:"pattern"     yaml:"pattern"     json:"pattern"`
	Sensitivity string `mapstructure:"sensitivity" yaml:"sensitivity" json:"sensitivity"`
}

type RedactionDoc struct {
	DefaultMethod string            `mapstructure:"default_method" yaml:"default_method" json:"default_method"`
	Methods       map[string]string `mapstructure:"methods"        yaml:"methods"        json:"methods"`
}

func (d BackendDoc) descriptor() BackendDescriptor {
	return BackendDescriptor{
		ID:        d.ID,
		Provider:  d.Provider,
		ModelName: d.ModelName,
		BaseURL:   d.BaseURL,
		APIKey:    os.Getenv(d.APIKeyEnv),
		MaxTokens: cast.ToInt64(d.MaxTokens),
		Enabled:   d.Enabled,
		Pricing:   d.Pricing.pricing(),
	}
}

func (d PricingDoc) pricing() Pricing {
	return Pricing{
		InputPer1K:  decimal.NewFromFloat(d.InputPer1K),
		OutputPer1K: decimal.NewFromFloat(d.OutputPer1K),
	}
}

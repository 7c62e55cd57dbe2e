package policy

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/neuraform/neuraform/internal/log"
)

// Config configures the policy store.
type Config struct {
	// File is the path of the policy YAML file.
	File string `conf:"file" yaml:"file" json:"file"`

	// Watch enables reloading when the policy file changes on disk.
	Watch bool `conf:"watch" yaml:"watch" json:"watch"`
}

// snapshot is one immutable generation of the policy tables. Concurrent
// readers always observe a fully-old or fully-new generation, never a mix.
type snapshot struct {
	roles            map[string]*Role
	personas         map[string]*PersonaProfile
	backends         []BackendDescriptor
	patterns         []*PIIPattern
	redactionMethods map[string]string
	defaultMethod    string
	defaultModel     string
}

// Store loads and serves the policy tables.
type Store struct {
	config Config
	snap   atomic.Pointer[snapshot]
}

// NewStore creates a store and performs the initial load. A policy file
// that cannot be read at all is a startup error; individual uncompilable
// PII patterns are skipped with a warning.
func NewStore(config Config) (*Store, error) {
	store := &Store{config: config}

	if err := store.Reload(context.Background()); err != nil {
		return nil, err
	}

	return store, nil
}

// NewStoreFromDocument creates a store from an in-memory document. Used by
// tests and embedded setups.
func NewStoreFromDocument(doc Document) *Store {
	store := &Store{}
	store.snap.Store(compile(context.Background(), doc))

	return store
}

// Reload re-reads the policy file and atomically swaps the table set.
func (s *Store) Reload(ctx context.Context) error {
	v := viper.New()
	v.SetConfigFile(s.config.File)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("policy: read %s: %w", s.config.File, err)
	}

	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return fmt.Errorf("policy: decode %s: %w", s.config.File, err)
	}

	s.snap.Store(compile(ctx, doc))

	log.Info(ctx, "policy tables loaded",
		log.String("file", s.config.File),
		log.Int("roles", len(doc.Roles)),
		log.Int("personas", len(doc.Personas)),
		log.Int("backends", len(doc.Backends)),
		log.Int("pii_patterns", len(doc.PII.Patterns)),
	)

	return nil
}

// compile turns a document into an immutable snapshot. Pattern compile
// failures are aggregated for the log report but never abort the load.
func compile(ctx context.Context, doc Document) *snapshot {
	snap := &snapshot{
		roles:            make(map[string]*Role, len(doc.Roles)),
		personas:         make(map[string]*PersonaProfile, len(doc.Personas)),
		backends:         make([]BackendDescriptor, 0, len(doc.Backends)),
		redactionMethods: make(map[string]string, len(doc.PII.Redaction.Methods)),
		defaultMethod:    doc.PII.Redaction.DefaultMethod,
		defaultModel:     doc.DefaultModel,
	}

	if snap.defaultMethod == "" {
		snap.defaultMethod = "mask_all"
	}

	for _, r := range doc.Roles {
		if r.ID == "" {
			continue
		}

		tier := ParseRoleTier(r.Tier)
		if r.Tier == "" {
			// Roles named after a tier carry that tier implicitly.
			tier = ParseRoleTier(r.ID)
		}

		snap.roles[r.ID] = &Role{
			ID:          r.ID,
			Name:        r.Name,
			Tier:        tier,
			Permissions: r.Permissions,
		}
	}

	for _, p := range doc.Personas {
		if p.ID == "" {
			continue
		}

		snap.personas[p.ID] = &PersonaProfile{
			ID:            p.ID,
			Name:          p.Name,
			SystemPrompt:  p.SystemPrompt,
			AllowedModels: p.AllowedModels,
		}
	}

	// Catalog declaration order is preserved: it is the documented
	// fallback order of the router.
	for _, b := range doc.Backends {
		if b.ID == "" {
			continue
		}

		snap.backends = append(snap.backends, b.descriptor())
	}

	var compileErrs *multierror.Error

	for _, p := range doc.PII.Patterns {
		pattern, err := CompilePattern(p.Name, p.Pattern, ParseSensitivity(p.Sensitivity))
		if err != nil {
			compileErrs = multierror.Append(compileErrs, err)

			log.Warn(ctx, "skipping invalid PII pattern",
				log.String("pattern", p.Name),
				log.Cause(err),
			)

			continue
		}

		snap.patterns = append(snap.patterns, pattern)
	}

	if err := compileErrs.ErrorOrNil(); err != nil {
		log.Warn(ctx, "policy loaded with pattern compile errors",
			log.Int("skipped", compileErrs.Len()),
			log.Cause(err),
		)
	}

	for piiType, method := range doc.PII.Redaction.Methods {
		snap.redactionMethods[piiType] = method
	}

	return snap
}

func (s *Store) snapshot() *snapshot {
	return s.snap.Load()
}

// GetRole returns the role with the given id.
func (s *Store) GetRole(id string) (*Role, bool) {
	role, ok := s.snapshot().roles[id]
	return role, ok
}

// GetPersona returns the persona profile with the given id.
func (s *Store) GetPersona(id string) (*PersonaProfile, bool) {
	persona, ok := s.snapshot().personas[id]
	return persona, ok
}

// ListBackends returns the backend catalog in declaration order.
func (s *Store) ListBackends(enabledOnly bool) []BackendDescriptor {
	backends := s.snapshot().backends
	if !enabledOnly {
		return backends
	}

	return lo.Filter(backends, func(b BackendDescriptor, _ int) bool {
		return b.Enabled
	})
}

// PIIPatterns returns the compiled PII patterns.
func (s *Store) PIIPatterns() []*PIIPattern {
	return s.snapshot().patterns
}

// RedactionMethod returns the redaction method configured for the given
// PII type, or the default method.
func (s *Store) RedactionMethod(piiType string) string {
	snap := s.snapshot()
	if method, ok := snap.redactionMethods[piiType]; ok {
		return method
	}

	return snap.defaultMethod
}

// DefaultModel returns the platform default backend id.
func (s *Store) DefaultModel() string {
	return s.snapshot().defaultModel
}

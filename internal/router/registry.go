package router

import (
	"context"
	"sync"
	"time"

	"github.com/zhenzou/executors"
	"golang.org/x/sync/errgroup"

	"github.com/neuraform/neuraform/internal/llm/backend"
	"github.com/neuraform/neuraform/internal/log"
	"github.com/neuraform/neuraform/internal/pkg/httpclient"
	"github.com/neuraform/neuraform/internal/policy"
)

// Config configures the registry's liveness probing.
type Config struct {
	// ProbeTimeout bounds one backend liveness probe.
	ProbeTimeout time.Duration `conf:"probe_timeout" yaml:"probe_timeout" json:"probe_timeout"`

	// ReProbeCron re-runs the probes on a cron schedule when set.
	ReProbeCron string `conf:"re_probe_cron" yaml:"re_probe_cron" json:"re_probe_cron"`
}

func DefaultConfig() Config {
	return Config{
		ProbeTimeout: 5 * time.Second,
		ReProbeCron:  "*/1 * * * *",
	}
}

// CatalogProvider is the policy surface the registry reads.
type CatalogProvider interface {
	ListBackends(enabledOnly bool) []policy.BackendDescriptor
}

// Registry holds the adapters built from the enabled backend catalog and
// tracks their liveness. Adapters keep the catalog's declaration order.
type Registry struct {
	config   Config
	adapters []backend.Adapter
	byID     map[string]backend.Adapter

	mu   sync.RWMutex
	live map[string]bool
}

// NewRegistry builds an adapter per enabled descriptor and probes them
// concurrently. An unavailable backend is excluded from routing without
// failing construction; zero live backends is not an error here.
func NewRegistry(ctx context.Context, config Config, catalog CatalogProvider, client *httpclient.HttpClient) *Registry {
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = DefaultConfig().ProbeTimeout
	}

	registry := &Registry{
		config: config,
		byID:   map[string]backend.Adapter{},
		live:   map[string]bool{},
	}

	for _, desc := range catalog.ListBackends(true) {
		adapter, err := backend.New(desc, client)
		if err != nil {
			log.Warn(ctx, "skipping backend", log.String("backend", desc.ID), log.Cause(err))
			continue
		}

		registry.adapters = append(registry.adapters, adapter)
		registry.byID[desc.ID] = adapter
	}

	registry.Probe(ctx)

	return registry
}

// Probe refreshes every adapter's liveness concurrently.
func (r *Registry) Probe(ctx context.Context) {
	group, ctx := errgroup.WithContext(ctx)

	results := make([]bool, len(r.adapters))

	for i, adapter := range r.adapters {
		group.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, r.config.ProbeTimeout)
			defer cancel()

			results[i] = adapter.IsAvailable(probeCtx)

			return nil
		})
	}

	_ = group.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, adapter := range r.adapters {
		id := adapter.Descriptor().ID
		if r.live[id] != results[i] {
			log.Info(ctx, "backend liveness changed",
				log.String("backend", id),
				log.Bool("live", results[i]),
			)
		}

		r.live[id] = results[i]
	}
}

// ScheduleProbes re-runs the probes on the configured cron schedule.
func (r *Registry) ScheduleProbes(executor executors.ScheduledExecutor) error {
	if r.config.ReProbeCron == "" {
		return nil
	}

	_, err := executor.ScheduleFuncAtCronRate(
		func(ctx context.Context) {
			r.Probe(ctx)
		},
		executors.CRONRule{Expr: r.config.ReProbeCron},
	)

	return err
}

// Adapter returns the adapter for a backend id, live or not.
func (r *Registry) Adapter(id string) (backend.Adapter, bool) {
	adapter, ok := r.byID[id]
	return adapter, ok
}

// IsLive reports the backend's last probed liveness.
func (r *Registry) IsLive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.live[id]
}

// MarkDown records a backend as not live after a failed call. The next
// probe cycle may bring it back.
func (r *Registry) MarkDown(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.live[id] {
		log.Warn(ctx, "backend marked down", log.String("backend", id))
	}

	r.live[id] = false
}

// Backends returns all registered adapters in declaration order.
func (r *Registry) Backends() []backend.Adapter {
	return r.adapters
}

// LiveBackends returns the live adapters in declaration order.
func (r *Registry) LiveBackends() []backend.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []backend.Adapter

	for _, adapter := range r.adapters {
		if r.live[adapter.Descriptor().ID] {
			result = append(result, adapter)
		}
	}

	return result
}

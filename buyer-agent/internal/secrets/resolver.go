// Package secrets resolves the supplier's A2A endpoint configuration from a
// secrets backend, with a TTL cache in front so rotation does not require a
// restart and the backend is not hit on every RFQ.
package secrets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/partsgrid/agents/pkg/secrets"

	"github.com/partsgrid/agents/buyer-agent/internal/a2a"
	"github.com/partsgrid/agents/buyer-agent/internal/metrics"
)

// SecretName returns the conventional secret path for the supplier endpoint
// config in the given environment, e.g. "production/supplier-quoter/a2a".
func SecretName(env string) string {
	return env + "/supplier-quoter/a2a"
}

// Resolver looks up the supplier endpoint and token. Values resolved from the
// provider are cached; a statically configured fallback covers local
// development, where no secrets backend is available.
type Resolver struct {
	logger   *zap.Logger
	provider secrets.Provider
	cache    *secrets.Cache[*a2a.SupplierConfig]
	secret   string
	fallback *a2a.SupplierConfig
}

// NewResolver builds a resolver. provider may be nil, in which case only the
// fallback is served; fallback may be nil when a provider is set.
func NewResolver(logger *zap.Logger, provider secrets.Provider, secretName string, cacheTTL time.Duration, fallback *a2a.SupplierConfig) *Resolver {
	return &Resolver{
		logger:   logger,
		provider: provider,
		cache:    secrets.NewCache[*a2a.SupplierConfig](cacheTTL),
		secret:   secretName,
		fallback: fallback,
	}
}

// Resolve implements a2a.ConfigResolver.
func (r *Resolver) Resolve(ctx context.Context) (*a2a.SupplierConfig, error) {
	if cfg, ok := r.cache.Get(r.secret); ok {
		return cfg, nil
	}

	if r.provider != nil {
		values, err := r.provider.GetSecret(ctx, r.secret)
		if err == nil {
			cfg, perr := fromSecret(values)
			if perr != nil {
				return nil, fmt.Errorf("secret [%s]: %w", r.secret, perr)
			}
			r.cache.Put(r.secret, cfg)
			return cfg, nil
		}
		metrics.IncError("secrets")
		if r.fallback == nil {
			return nil, fmt.Errorf("resolving secret [%s]: %w", r.secret, err)
		}
		r.logger.Warn("secrets.fallback_to_static",
			zap.String("secret", r.secret),
			zap.Error(err))
	}

	if r.fallback == nil {
		return nil, fmt.Errorf("no supplier endpoint configured")
	}
	return r.fallback, nil
}

// Bust drops the cached config so the next Resolve hits the backend again.
func (r *Resolver) Bust() {
	r.cache.Bust(r.secret)
}

// StartCleaner runs the cache janitor until stop closes.
func (r *Resolver) StartCleaner(interval time.Duration, stop <-chan struct{}) {
	r.cache.StartCleaner(interval, stop)
}

func fromSecret(values map[string]string) (*a2a.SupplierConfig, error) {
	endpoint, ok := values["endpoint"]
	if !ok || endpoint == "" {
		return nil, fmt.Errorf("missing endpoint")
	}
	return &a2a.SupplierConfig{
		Endpoint: endpoint,
		Token:    values["token"],
	}, nil
}

package structure

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/molvista/molvista/internal/config"
	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
	"github.com/molvista/molvista/pkg/errors"
)

// Resolver looks up a human-readable IUPAC name for an identifier. The lookup
// is strictly best-effort: every failure mode maps to an error the caller is
// expected to swallow, and nothing downstream may depend on a name existing.
type Resolver struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  logging.Logger
	metrics *prometheus.Metrics
}

// NewResolver builds a Resolver from the structure configuration. A nil
// client gets a default one; metrics may be nil.
func NewResolver(cfg config.StructureConfig, client *http.Client, log logging.Logger, metrics *prometheus.Metrics) *Resolver {
	baseURL := cfg.ResolverBaseURL
	if baseURL == "" {
		baseURL = defaultCactusBaseURL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &Resolver{
		baseURL: baseURL,
		timeout: cfg.ResolverTimeout,
		client:  client,
		logger:  log,
		metrics: metrics,
	}
}

// Resolve returns the IUPAC name for the identifier, or a name-unavailable
// error when the resolver cannot produce one. The error never carries more
// severity than that: a missing name is a normal outcome, not a failure.
func (r *Resolver) Resolve(ctx context.Context, id molecule.Identifier) (string, error) {
	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	u := r.baseURL + "/chemical/structure/" + url.PathEscape(id.String()) + "/iupac_name"
	body, err := doGet(rctx, r.client, u)
	if err != nil {
		r.record("error")
		r.logger.Debug("Name lookup failed",
			logging.String("identifier", id.String()), logging.Err(err))
		return "", errors.Wrap(err, errors.ErrCodeNameUnavailable, "name lookup failed")
	}

	name := strings.TrimSpace(body)
	if name == "" || strings.Contains(name, "Page not found") {
		r.record("miss")
		return "", errors.New(errors.ErrCodeNameUnavailable, "no name known for identifier").
			WithDetail("identifier=" + id.String())
	}

	// Multi-line responses list alternate names; the first is canonical.
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}

	r.record("ok")
	return name, nil
}

func (r *Resolver) record(outcome string) {
	if r.metrics != nil {
		r.metrics.NameLookupsTotal.WithLabelValues(outcome).Inc()
	}
}

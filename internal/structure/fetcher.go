package structure

import (
	"context"
	"net/http"
	"time"

	"github.com/molvista/molvista/internal/config"
	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
	"github.com/molvista/molvista/pkg/errors"
)

// Cache is the read-through cache the Fetcher consults before contacting any
// source. Implementations live in the infrastructure layer; a nil Cache
// disables caching without changing fetch semantics. GetOrSet must collapse
// concurrent loads of the same key into a single loader invocation.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) error
}

// cachedStructure is the cache entry format: the validated raw payload plus
// the source that produced it, so provenance survives a cache round-trip.
type cachedStructure struct {
	Raw    string `json:"raw"`
	Source string `json:"source"`
}

// Fetcher retrieves a validated 3D structure by trying configured sources
// strictly in order. The first source whose payload validates wins; remaining
// sources are never contacted. A failing or invalid source is logged and
// skipped, never surfaced to the caller — only total exhaustion is an error.
type Fetcher struct {
	sources    []Source
	timeout    time.Duration
	cache      Cache
	cacheTTL   time.Duration
	logger     logging.Logger
	metrics    *prometheus.Metrics
	httpClient *http.Client
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithCache attaches a read-through cache with the given entry TTL.
func WithCache(cache Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = cache
		f.cacheTTL = ttl
	}
}

// WithMetrics attaches the metrics sink.
func WithMetrics(m *prometheus.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// WithHTTPClient overrides the HTTP client used by sources built from config.
// Only honored by NewFetcherFromConfig.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.httpClient = client }
}

// NewFetcher builds a Fetcher over pre-constructed sources.
func NewFetcher(sources []Source, timeout time.Duration, log logging.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		sources: sources,
		timeout: timeout,
		logger:  log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFetcherFromConfig builds a Fetcher with sources instantiated from the
// structure configuration.
func NewFetcherFromConfig(cfg config.StructureConfig, log logging.Logger, opts ...FetcherOption) (*Fetcher, error) {
	f := &Fetcher{
		timeout: cfg.SourceTimeout,
		logger:  log,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.httpClient == nil {
		f.httpClient = defaultHTTPClient()
	}
	for _, sc := range cfg.Sources {
		src, err := NewSource(sc, f.httpClient)
		if err != nil {
			return nil, err
		}
		f.sources = append(f.sources, src)
	}
	if f.cache != nil && f.cacheTTL == 0 {
		f.cacheTTL = cfg.CacheTTL
	}
	return f, nil
}

// Fetch returns a validated structure for the identifier, or a
// structure-not-found error once every source has been tried. A context
// cancelled mid-sequence aborts immediately with a cancellation error.
func (f *Fetcher) Fetch(ctx context.Context, id molecule.Identifier) (*molecule.Structure, error) {
	if f.cache == nil {
		return f.fetchFromSources(ctx, id)
	}
	if s := f.cacheLookup(ctx, id); s != nil {
		return s, nil
	}

	// Simultaneous misses for the same identifier share one pass over the
	// sources; the winning payload is cached before anyone unblocks.
	var entry cachedStructure
	err := f.cache.GetOrSet(ctx, cacheKey(id), &entry, f.cacheTTL,
		func(ctx context.Context) (interface{}, error) {
			s, err := f.fetchFromSources(ctx, id)
			if err != nil {
				return nil, err
			}
			return cachedStructure{Raw: s.Raw, Source: s.Source}, nil
		})
	if err != nil {
		return nil, err
	}

	s, err := molecule.NewStructure(entry.Raw, entry.Source)
	if err != nil {
		// An invalid entry slipped in from another writer; skip the cache.
		f.logger.Warn("Invalid structure from cache after load",
			logging.String("identifier", id.String()), logging.Err(err))
		return f.fetchFromSources(ctx, id)
	}
	return s, nil
}

// fetchFromSources tries the configured sources strictly in order and returns
// the first payload that validates.
func (f *Fetcher) fetchFromSources(ctx context.Context, id molecule.Identifier) (*molecule.Structure, error) {
	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			return nil, contextError(err)
		}

		raw, err := f.fetchOne(ctx, src, id)
		if err != nil {
			// Parent cancellation aborts the sequence; a per-source timeout
			// just moves on to the next source.
			if ctx.Err() != nil {
				return nil, contextError(ctx.Err())
			}
			f.recordAttempt(src.Name(), "error")
			f.logger.Warn("Structure source failed",
				logging.String("source", src.Name()),
				logging.String("identifier", id.String()),
				logging.Err(err))
			continue
		}

		s, err := molecule.NewStructure(raw, src.Name())
		if err != nil {
			f.recordAttempt(src.Name(), "invalid")
			f.logger.Warn("Structure source returned invalid payload",
				logging.String("source", src.Name()),
				logging.String("identifier", id.String()),
				logging.Err(err))
			continue
		}

		f.recordAttempt(src.Name(), "ok")
		f.logger.Info("Structure fetched",
			logging.String("source", src.Name()),
			logging.String("identifier", id.String()),
			logging.Int("atoms", s.AtomCount))
		return s, nil
	}

	return nil, errors.New(errors.ErrCodeStructureNotFound, "no source returned a valid structure").
		WithDetail("identifier=" + id.String())
}

// fetchOne runs a single source attempt under the per-source timeout and
// records its duration.
func (f *Fetcher) fetchOne(ctx context.Context, src Source, id molecule.Identifier) (string, error) {
	sctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	raw, err := src.Fetch(sctx, id)
	if f.metrics != nil {
		f.metrics.FetchDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())
	}
	return raw, err
}

func (f *Fetcher) cacheLookup(ctx context.Context, id molecule.Identifier) *molecule.Structure {
	if f.cache == nil {
		return nil
	}
	var entry cachedStructure
	if err := f.cache.Get(ctx, cacheKey(id), &entry); err != nil {
		if f.metrics != nil {
			f.metrics.CacheMissesTotal.Inc()
		}
		if !errors.IsNotFound(err) {
			f.logger.Warn("Structure cache read failed", logging.Err(err))
		}
		return nil
	}
	// Re-validate; a corrupt or truncated entry is evicted and falls through
	// to the sources.
	s, err := molecule.NewStructure(entry.Raw, entry.Source)
	if err != nil {
		if f.metrics != nil {
			f.metrics.CacheMissesTotal.Inc()
		}
		f.logger.Warn("Discarding invalid cached structure",
			logging.String("identifier", id.String()), logging.Err(err))
		if delErr := f.cache.Delete(ctx, cacheKey(id)); delErr != nil {
			f.logger.Warn("Structure cache eviction failed",
				logging.String("identifier", id.String()), logging.Err(delErr))
		}
		return nil
	}
	if f.metrics != nil {
		f.metrics.CacheHitsTotal.Inc()
	}
	return s
}

func (f *Fetcher) recordAttempt(source, outcome string) {
	if f.metrics != nil {
		f.metrics.FetchAttemptsTotal.WithLabelValues(source, outcome).Inc()
	}
}

func cacheKey(id molecule.Identifier) string {
	return "structure:" + id.String()
}

// contextError converts a context error into the matching AppError.
func contextError(err error) error {
	if err == context.DeadlineExceeded {
		return errors.Wrap(err, errors.ErrCodeTimeout, "structure fetch deadline exceeded")
	}
	return errors.Wrap(err, errors.ErrCodeCancelled, "structure fetch cancelled")
}

// Package structure implements the 3D-structure retrieval pipeline: ordered
// external sources, payload validation, a read-through cache, and the
// best-effort IUPAC name resolver.
package structure

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/molvista/molvista/internal/config"
	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/pkg/errors"
)

// maxResponseBytes caps how much of a source response is read. Structure
// files for small molecules are a few KB; anything past this is not a
// molecule we can render.
const maxResponseBytes = 4 << 20

// Source is one external provider of 3D structure payloads. Implementations
// return the raw response text without validating it; the Fetcher owns
// validation so that every source is judged by the same rules.
type Source interface {
	// Name returns the stable source label used in logs, metrics, and the
	// Structure.Source field.
	Name() string

	// Fetch retrieves the raw payload for the identifier. The context carries
	// the per-source timeout.
	Fetch(ctx context.Context, id molecule.Identifier) (string, error)
}

// NewSource constructs the Source implementation named by cfg. The client is
// shared across sources; per-request deadlines come from the context.
func NewSource(cfg config.SourceConfig, client *http.Client) (Source, error) {
	switch cfg.Name {
	case "pubchem":
		return NewPubChemSource(cfg.BaseURL, client), nil
	case "cactus":
		return NewCactusSource(cfg.BaseURL, client), nil
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown structure source %q", cfg.Name)
	}
}

// doGet issues a GET request and returns the response body as text.
// Any non-200 status is an error; sources have no partial-success responses.
func doGet(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to build source request")
	}
	req.Header.Set("Accept", "chemical/x-mdl-sdfile, text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "source request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeExternalService, "source returned non-200 status").
			WithDetail("status=" + strconv.Itoa(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to read source response")
	}
	return string(body), nil
}

// defaultHTTPClient returns the client used when the caller does not inject
// one. Redirects are followed; connection reuse matters more than tuning here
// since per-request deadlines come from contexts.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

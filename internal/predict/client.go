package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/molvista/molvista/internal/config"
	"github.com/molvista/molvista/pkg/errors"
)

// Inference is the remote model serving interface. The model is opaque: it
// takes a SMILES string and returns one raw value per catalog property, in
// catalog order.
type Inference interface {
	Infer(ctx context.Context, smiles string) ([]float64, error)
}

// HTTPInference calls a remote inference service over HTTP.
type HTTPInference struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPInference builds the default Inference implementation.
func NewHTTPInference(cfg config.PredictionConfig, client *http.Client) *HTTPInference {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPInference{
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		client:  client,
	}
}

type inferRequest struct {
	SMILES string `json:"smiles"`
}

type inferResponse struct {
	Values []float64 `json:"values"`
}

// Infer posts the identifier and returns the raw prediction vector.
func (c *HTTPInference) Infer(ctx context.Context, smiles string) ([]float64, error) {
	if c.baseURL == "" {
		return nil, errors.New(errors.ErrCodePredictionUnavailable, "no inference service configured")
	}

	body, err := json.Marshal(inferRequest{SMILES: smiles})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode inference request")
	}

	ictx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ictx, http.MethodPost, c.baseURL+"/infer", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build inference request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePredictionUnavailable, "inference service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodePredictionUnavailable, "inference service returned non-200 status").
			WithDetail("status=" + strconv.Itoa(resp.StatusCode))
	}

	var out inferResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode inference response")
	}
	if len(out.Values) != len(Catalog) {
		return nil, errors.Newf(errors.ErrCodePredictionFailed,
			"inference returned %d values, expected %d", len(out.Values), len(Catalog))
	}
	return out.Values, nil
}

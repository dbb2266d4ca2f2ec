package predict

import (
	"context"
	"math"

	"github.com/samber/lo"

	"github.com/molvista/molvista/internal/domain/molecule"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
	"github.com/molvista/molvista/pkg/errors"
)

// PropertyPrediction is one predicted property in the API response shape.
type PropertyPrediction struct {
	PropertyName string     `json:"property_name"`
	Value        float64    `json:"value"`
	Unit         string     `json:"unit"`
	Confidence   Confidence `json:"confidence"`
}

// Response is the full prediction result for one molecule.
type Response struct {
	SMILES          string               `json:"smiles"`
	MoleculeInfo    molecule.Info        `json:"molecule_info"`
	Predictions     []PropertyPrediction `json:"predictions"`
	ModelConfidence Confidence           `json:"model_confidence"`
}

// Service runs predictions: identifier validation, molecule metadata, remote
// inference, and the confidence grading of the raw vector.
type Service struct {
	inference Inference
	logger    logging.Logger
	metrics   *prometheus.Metrics
}

// NewService wires a prediction service.
func NewService(inference Inference, log logging.Logger, metrics *prometheus.Metrics) *Service {
	return &Service{inference: inference, logger: log, metrics: metrics}
}

// Predict validates the raw identifier, queries the inference service, and
// grades the result.
func (s *Service) Predict(ctx context.Context, raw string) (*Response, error) {
	id, err := molecule.ParseIdentifier(raw)
	if err != nil {
		s.record("invalid_input")
		return nil, err
	}

	values, err := s.inference.Infer(ctx, id.String())
	if err != nil {
		s.record("error")
		s.logger.Warn("Inference failed",
			logging.String("identifier", id.String()), logging.Err(err))
		return nil, errors.Wrap(err, errors.CodeUnknown, "property prediction failed")
	}

	overall := ModelConfidence(values)
	predictions := lo.Map(values, func(v float64, i int) PropertyPrediction {
		p := Catalog[i]
		confidence := overall
		if math.IsNaN(v) || math.IsInf(v, 0) {
			// Non-finite values have no JSON representation; report them as
			// zero with low confidence rather than dropping the property.
			v = 0
			confidence = ConfidenceLow
		}
		return PropertyPrediction{
			PropertyName: p.Name,
			Value:        round6(v),
			Unit:         p.Unit,
			Confidence:   confidence,
		}
	})

	s.record("ok")
	return &Response{
		SMILES:          id.String(),
		MoleculeInfo:    molecule.InfoFromIdentifier(id),
		Predictions:     predictions,
		ModelConfidence: overall,
	}, nil
}

func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.PredictionsTotal.WithLabelValues(outcome).Inc()
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

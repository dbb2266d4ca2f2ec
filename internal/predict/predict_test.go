package predict

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molvista/molvista/internal/config"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/pkg/errors"
)

// goodVector returns an in-range value for every catalog property.
func goodVector() []float64 {
	values := make([]float64, len(Catalog))
	for i, p := range Catalog {
		switch p.Code {
		case "mu":
			values[i] = 2.5
		case "alpha":
			values[i] = 75
		case "homo":
			values[i] = -6.5
		case "lumo":
			values[i] = 0.2
		case "gap":
			values[i] = 6.7
		default:
			values[i] = 1.0
		}
	}
	return values
}

type fakeInference struct {
	values []float64
	err    error
}

func (f *fakeInference) Infer(_ context.Context, _ string) ([]float64, error) {
	return f.values, f.err
}

func TestCatalogHasNineteenProperties(t *testing.T) {
	assert.Len(t, Catalog, 19)

	p, ok := Lookup("gap")
	require.True(t, ok)
	assert.Equal(t, "HOMO-LUMO gap", p.Name)
	assert.Equal(t, "eV", p.Unit)

	_, ok = Lookup("boiling_point")
	assert.False(t, ok)
}

func TestModelConfidenceGrading(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ModelConfidence(goodVector()))

	// Knock enough properties out of range to land between 60% and 85%.
	mid := goodVector()
	for i := 0; i < 5; i++ {
		mid[i] = math.NaN()
	}
	assert.Equal(t, ConfidenceMedium, ModelConfidence(mid))

	low := make([]float64, len(Catalog))
	for i := range low {
		low[i] = math.Inf(1)
	}
	assert.Equal(t, ConfidenceLow, ModelConfidence(low))

	assert.Equal(t, ConfidenceLow, ModelConfidence(nil))
}

func TestModelConfidenceRangeChecks(t *testing.T) {
	v := goodVector()
	for i, p := range Catalog {
		switch p.Code {
		case "mu":
			v[i] = 42 // above the 0-10 range
		case "alpha":
			v[i] = 5 // below the 10-300 range
		case "homo", "lumo":
			v[i] = -30
		case "gap":
			v[i] = 25
		}
	}
	// 14 of 19 in range: ratio ~0.74 → Medium.
	assert.Equal(t, ConfidenceMedium, ModelConfidence(v))
}

func TestServicePredictHappyPath(t *testing.T) {
	svc := NewService(&fakeInference{values: goodVector()}, logging.NewNopLogger(), nil)

	resp, err := svc.Predict(context.Background(), "CCO and trailing junk")
	require.NoError(t, err)

	assert.Equal(t, "CCO", resp.SMILES)
	assert.Equal(t, ConfidenceHigh, resp.ModelConfidence)
	require.Len(t, resp.Predictions, 19)
	assert.Equal(t, "Rotational constant A", resp.Predictions[0].PropertyName)
	assert.Equal(t, "GHz", resp.Predictions[0].Unit)
	assert.Equal(t, "C2O", resp.MoleculeInfo.Formula)
}

func TestServicePredictNonFiniteValueIsLowConfidenceZero(t *testing.T) {
	values := goodVector()
	values[3] = math.NaN() // mu
	svc := NewService(&fakeInference{values: values}, logging.NewNopLogger(), nil)

	resp, err := svc.Predict(context.Background(), "CCO")
	require.NoError(t, err)

	mu := resp.Predictions[3]
	assert.Zero(t, mu.Value)
	assert.Equal(t, ConfidenceLow, mu.Confidence)
}

func TestServicePredictRejectsInvalidIdentifier(t *testing.T) {
	svc := NewService(&fakeInference{values: goodVector()}, logging.NewNopLogger(), nil)

	_, err := svc.Predict(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeEmptyInput))

	_, err = svc.Predict(context.Background(), "CC{O}")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES))
}

func TestServicePredictPropagatesInferenceCode(t *testing.T) {
	svc := NewService(&fakeInference{err: errors.New(errors.ErrCodePredictionUnavailable, "down")},
		logging.NewNopLogger(), nil)

	_, err := svc.Predict(context.Background(), "CCO")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePredictionUnavailable))
}

func TestHTTPInferenceRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/infer", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"values":[1,1,1,1,11,1,1,1,1,1,1,1,1,1,1,1,1,1,1]}`))
	}))
	defer srv.Close()

	c := NewHTTPInference(config.PredictionConfig{BaseURL: srv.URL, Timeout: time.Second}, srv.Client())
	values, err := c.Infer(context.Background(), "CCO")
	require.NoError(t, err)
	assert.Len(t, values, 19)
}

func TestHTTPInferenceWrongArityRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"values":[1,2,3]}`))
	}))
	defer srv.Close()

	c := NewHTTPInference(config.PredictionConfig{BaseURL: srv.URL, Timeout: time.Second}, srv.Client())
	_, err := c.Infer(context.Background(), "CCO")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePredictionFailed))
}

func TestHTTPInferenceUnconfigured(t *testing.T) {
	c := NewHTTPInference(config.PredictionConfig{Timeout: time.Second}, nil)
	_, err := c.Infer(context.Background(), "CCO")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePredictionUnavailable))
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/molvista/molvista/internal/predict"
	"github.com/molvista/molvista/pkg/errors"
)

// Predictor is the prediction service surface the handler needs.
type Predictor interface {
	Predict(ctx context.Context, raw string) (*predict.Response, error)
}

// PredictHandler serves property predictions and the property catalog.
type PredictHandler struct {
	predictor Predictor
}

// NewPredictHandler wires the prediction endpoints.
func NewPredictHandler(predictor Predictor) *PredictHandler {
	return &PredictHandler{predictor: predictor}
}

// PredictRequest is the POST /api/v1/predict body.
type PredictRequest struct {
	SMILES string `json:"smiles" binding:"required"`
}

// Predict handles POST /api/v1/predict.
func (h *PredictHandler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("request body must carry a smiles field").WithCause(err))
		return
	}

	resp, err := h.predictor.Predict(c.Request.Context(), req.SMILES)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PropertiesResponse lists the predictable properties.
type PropertiesResponse struct {
	Total      int                `json:"total"`
	Properties []predict.Property `json:"properties"`
}

// Properties handles GET /api/v1/properties.
func (h *PredictHandler) Properties(c *gin.Context) {
	c.JSON(http.StatusOK, PropertiesResponse{
		Total:      len(predict.Catalog),
		Properties: predict.Catalog,
	})
}

// Package chat implements the chemistry assistant: prompt assembly over the
// property catalog and a client for the hosted Gemini generateContent API.
package chat

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

// defaultGeminiBaseURL is the hosted Generative Language API endpoint.
const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Generator produces a completion for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the generateContent endpoint of the Gemini API.
type GeminiClient struct {
	baseURL string
	model   string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewGeminiClient builds a client from the chat configuration. A nil client
// gets a default one.
func NewGeminiClient(cfg config.ChatConfig, client *http.Client) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &GeminiClient{
		baseURL: baseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		client:  client,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate submits the prompt and returns the first candidate's text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode chat request")
	}

	gctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + "/v1beta/models/" + c.model + ":generateContent?key=" + c.apiKey
	req, err := http.NewRequestWithContext(gctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to build chat request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeChatFailed, "chat model unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeChatFailed, "chat model returned non-200 status").
			WithDetail("status=" + strconv.Itoa(resp.StatusCode))
	}

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode chat response")
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New(errors.ErrCodeChatFailed, "chat model returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

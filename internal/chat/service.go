package chat

import (
	"context"
	"strings"
	"time"

	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
	"github.com/molvista/molvista/internal/predict"
	"github.com/molvista/molvista/pkg/errors"
)

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// systemContext is the assistant persona prepended to every conversation.
const systemContext = `You are an expert AI chemistry assistant specializing in molecular properties and computational chemistry.

Your capabilities:
- Explain molecular structures, properties, and chemistry concepts
- Interpret SMILES notation and molecular representations
- Discuss quantum mechanical properties from the QM9 dataset
- Help users understand molecular property predictions
- Provide educational information about chemistry

Available properties you can discuss:
`

// systemGuidelines closes the system block after the property list.
const systemGuidelines = `
Guidelines:
- Be clear, helpful, and scientifically accurate
- Explain concepts at an appropriate level for the user
- When discussing molecules, mention SMILES if relevant
- Suggest the prediction endpoint for property predictions
- Always note this is educational, not professional advice
- Be friendly and encouraging
`

// Service assembles prompts and delegates to the generator. A nil generator
// means the feature is disabled (no API key configured); every call then
// fails with a typed error and the rest of the service is unaffected.
type Service struct {
	gen        Generator
	maxHistory int
	logger     logging.Logger
	metrics    *prometheus.Metrics
}

// NewService wires the chat service. maxHistory bounds how many trailing
// history turns are included in the prompt.
func NewService(gen Generator, maxHistory int, log logging.Logger, metrics *prometheus.Metrics) *Service {
	return &Service{
		gen:        gen,
		maxHistory: maxHistory,
		logger:     log,
		metrics:    metrics,
	}
}

// Enabled reports whether a generator is configured.
func (s *Service) Enabled() bool { return s.gen != nil }

// Chat generates a reply to the message given the conversation history.
func (s *Service) Chat(ctx context.Context, message string, history []Message) (string, error) {
	if s.gen == nil {
		s.record("disabled")
		return "", errors.New(errors.ErrCodeChatDisabled, "chat is not configured; set an API key")
	}
	if strings.TrimSpace(message) == "" {
		s.record("invalid_input")
		return "", errors.InvalidParam("chat message must not be empty")
	}

	start := time.Now()
	reply, err := s.gen.Generate(ctx, s.buildPrompt(message, history))
	if s.metrics != nil {
		s.metrics.ChatDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.record("error")
		s.logger.Warn("Chat generation failed", logging.Err(err))
		return "", errors.Wrap(err, errors.CodeUnknown, "chat generation failed")
	}

	s.record("ok")
	return reply, nil
}

// buildPrompt assembles system context, the property catalog, the trailing
// history window, and the new message.
func (s *Service) buildPrompt(message string, history []Message) string {
	var sb strings.Builder
	sb.WriteString(systemContext)
	for _, p := range predict.Catalog {
		sb.WriteString("- " + p.Code + ": " + p.Name + " (" + p.Unit + ")\n")
	}
	sb.WriteString(systemGuidelines)
	sb.WriteString("\n")

	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	for _, msg := range history {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		sb.WriteString(capitalize(role) + ": " + msg.Content + "\n")
	}

	sb.WriteString("User: " + message + "\nAssistant:")
	return sb.String()
}

func (s *Service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.ChatRequestsTotal.WithLabelValues(outcome).Inc()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

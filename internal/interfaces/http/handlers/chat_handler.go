package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/molvista/molvista/internal/chat"
	"github.com/molvista/molvista/pkg/errors"
)

// Chatter is the chat service surface the handler needs.
type Chatter interface {
	Chat(ctx context.Context, message string, history []chat.Message) (string, error)
}

// ChatHandler serves the chemistry assistant endpoint.
type ChatHandler struct {
	chatter Chatter
}

// NewChatHandler wires the chat endpoint.
func NewChatHandler(chatter Chatter) *ChatHandler {
	return &ChatHandler{chatter: chatter}
}

// ChatRequest is the POST /api/v1/chat body.
type ChatRequest struct {
	Message string         `json:"message" binding:"required"`
	History []chat.Message `json:"history"`
}

// ChatResponse carries the generated reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("request body must carry a message field").WithCause(err))
		return
	}

	reply, err := h.chatter.Chat(c.Request.Context(), req.Message, req.History)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Response: reply})
}

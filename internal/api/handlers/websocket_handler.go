package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/query"
	"github.com/journey-rag/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine *query.Engine
}

func NewWebSocketHandler(engine *query.Engine) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type     string `json:"type"`
			Question string `json:"question"`
			PresetID string `json:"preset_id"`
			Category string `json:"category"`
			Method   string `json:"method"`
			UserID   string `json:"user_id"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Error("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "query" {
			continue
		}

		logger.Info("Processing WebSocket query",
			zap.String("question", msg.Question),
			zap.String("method", msg.Method),
		)

		req := query.Request{
			Question: msg.Question,
			PresetID: msg.PresetID,
			Category: msg.Category,
			UserID:   msg.UserID,
		}

		err = h.streamResponse(c, req, msg.Method)
		if err != nil {
			logger.Error("Failed to stream response", zap.Error(err))
			h.sendError(c, "Failed to process query")
		}
	}
}

func (h *WebSocketHandler) streamResponse(c *websocket.Conn, req query.Request, method string) error {
	ctx := context.Background()

	h.sendChunk(c, "status", "Retrieving journey statistics...")

	var response *query.Response
	var err error
	if method == query.MethodNaive {
		response, err = h.engine.QueryNaive(ctx, req)
	} else {
		response, err = h.engine.QueryGraphRAG(ctx, req)
	}
	if err != nil {
		return err
	}

	words := splitIntoWords(response.Answer)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}

		err := h.sendChunk(c, "chunk", chunk)
		if err != nil {
			return err
		}
	}

	return h.sendComplete(c, response)
}

func (h *WebSocketHandler) sendChunk(c *websocket.Conn, msgType, content string) error {
	msg := map[string]interface{}{
		"type":    msgType,
		"content": content,
	}

	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, response *query.Response) error {
	msg := map[string]interface{}{
		"type":       "complete",
		"message_id": response.ID,
		"method":     response.Method,
		"intent":     response.Intent,
		"statistics": response.Statistics,
		"warning":    response.Warning,
		"latency_ms": response.LatencyMS,
	}

	return c.WriteJSON(msg)
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	c.WriteJSON(msg)
}

func splitIntoWords(text string) []string {
	words := []string{}
	currentWord := ""

	for _, char := range text {
		if char == ' ' || char == '\n' {
			if currentWord != "" {
				words = append(words, currentWord)
				currentWord = ""
			}
			if char == '\n' {
				words = append(words, "\n")
			}
		} else {
			currentWord += string(char)
		}
	}

	if currentWord != "" {
		words = append(words, currentWord)
	}

	return words
}

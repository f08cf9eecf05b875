package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/query"
	"github.com/journey-rag/backend/internal/retrieval"
	"github.com/journey-rag/backend/internal/storage/models"
	"github.com/journey-rag/backend/pkg/logger"
)

type QueryHandler struct {
	engine *query.Engine
}

func NewQueryHandler(engine *query.Engine) *QueryHandler {
	return &QueryHandler{
		engine: engine,
	}
}

type queryRequest struct {
	Question string `json:"question"`
	PresetID string `json:"preset_id"`
	Category string `json:"category"`
	UserID   string `json:"user_id"`
}

func (r *queryRequest) validate() string {
	if r.Question == "" && r.PresetID == "" {
		return "question or preset_id is required"
	}
	if r.PresetID != "" {
		if _, ok := retrieval.PresetByID(r.PresetID); !ok {
			return "unknown preset_id"
		}
	}
	return ""
}

func (h *QueryHandler) HandleGraphRAG(c *fiber.Ctx) error {
	req, errMsg := parseQueryRequest(c)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errMsg,
		})
	}

	response, err := h.engine.QueryGraphRAG(c.Context(), req)
	if err != nil {
		logger.Error("Failed to process graphrag query", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process query",
		})
	}

	return c.JSON(response)
}

func (h *QueryHandler) HandleNaive(c *fiber.Ctx) error {
	req, errMsg := parseQueryRequest(c)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errMsg,
		})
	}

	response, err := h.engine.QueryNaive(c.Context(), req)
	if err != nil {
		logger.Error("Failed to process naive query", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process query",
		})
	}

	return c.JSON(response)
}

func (h *QueryHandler) HandleCompare(c *fiber.Ctx) error {
	req, errMsg := parseQueryRequest(c)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errMsg,
		})
	}

	response, err := h.engine.Compare(c.Context(), req)
	if err != nil {
		logger.Error("Failed to process comparison query", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process query",
		})
	}

	return c.JSON(response)
}

func (h *QueryHandler) GetPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets": retrieval.Presets(),
	})
}

func (h *QueryHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.engine.Stats(c.Context())
	if err != nil {
		logger.Error("Failed to collect stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to collect stats",
		})
	}

	return c.JSON(stats)
}

func (h *QueryHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	limit := c.QueryInt("limit", 20)

	records, err := h.engine.History(userID, limit)
	if err != nil {
		logger.Error("Failed to load query history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	if records == nil {
		records = []models.QueryRecord{}
	}

	return c.JSON(fiber.Map{
		"history": records,
	})
}

func (h *QueryHandler) PostFeedback(c *fiber.Ctx) error {
	var req struct {
		QueryID string `json:"query_id"`
		Helpful *bool  `json:"helpful"`
		Comment string `json:"comment"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.QueryID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query_id is required",
		})
	}
	if req.Helpful == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "helpful is required",
		})
	}

	if err := h.engine.StoreFeedback(req.QueryID, *req.Helpful, req.Comment); err != nil {
		logger.Error("Failed to store feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store feedback",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "recorded",
	})
}

func parseQueryRequest(c *fiber.Ctx) (query.Request, string) {
	var req queryRequest

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return query.Request{}, "Invalid request body"
	}

	if msg := req.validate(); msg != "" {
		return query.Request{}, msg
	}

	return query.Request{
		Question: req.Question,
		PresetID: req.PresetID,
		Category: req.Category,
		UserID:   req.UserID,
	}, ""
}

package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/cache/redis"
	"github.com/journey-rag/backend/internal/graph"
	"github.com/journey-rag/backend/internal/llm"
	"github.com/journey-rag/backend/internal/metrics"
	"github.com/journey-rag/backend/internal/rag"
	"github.com/journey-rag/backend/internal/retrieval"
	"github.com/journey-rag/backend/internal/storage/models"
	"github.com/journey-rag/backend/internal/storage/sqlite"
	"github.com/journey-rag/backend/pkg/logger"
	"github.com/journey-rag/backend/pkg/utils"
)

const (
	MethodGraphRAG = "graphrag"
	MethodNaive    = "naive"
)

// Engine serves analytic questions over the shared read-only journey graph.
// The graph handle is passed in explicitly; the engine holds no mutable
// graph state, so concurrent requests need no locking.
type Engine struct {
	db           *sqlite.Client
	graph        *graph.Graph
	orchestrator *retrieval.Orchestrator
	naive        *rag.Index
	llmClient    *llm.Client
	cache        *redis.Client
}

type Request struct {
	Question string
	PresetID string
	Category string
	UserID   string
}

type Response struct {
	ID         string               `json:"id"`
	Question   string               `json:"question"`
	Method     string               `json:"method"`
	Intent     string               `json:"intent,omitempty"`
	Context    string               `json:"context"`
	Answer     string               `json:"answer"`
	Statistics *retrieval.Grounding `json:"statistics,omitempty"`
	Warning    string               `json:"warning,omitempty"`
	LatencyMS  int                  `json:"latency_ms"`
	Cached     bool                 `json:"cached,omitempty"`
}

type ComparisonResponse struct {
	Question string    `json:"question"`
	GraphRAG *Response `json:"graphrag"`
	Naive    *Response `json:"naive"`
}

type Stats struct {
	Graph             graph.Stats `json:"graph"`
	BaselineDocuments int64       `json:"baseline_documents"`
}

// cache may be nil when Redis is disabled.
func NewEngine(db *sqlite.Client, g *graph.Graph, orchestrator *retrieval.Orchestrator,
	naive *rag.Index, llmClient *llm.Client, cache *redis.Client) *Engine {
	return &Engine{
		db:           db,
		graph:        g,
		orchestrator: orchestrator,
		naive:        naive,
		llmClient:    llmClient,
		cache:        cache,
	}
}

// QueryGraphRAG answers a question with graph-grounded statistics. If LLM
// synthesis fails the grounded statistics are still returned with a warning,
// so the caller always gets real numbers.
func (e *Engine) QueryGraphRAG(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	question := e.resolveQuestion(req)
	if cached := e.cacheLookup(ctx, MethodGraphRAG, question, req.Category); cached != nil {
		return cached, nil
	}

	intent, opts := e.orchestrator.Route(question, req.PresetID, req.Category)
	metrics.IntentTotal.WithLabelValues(intent.String()).Inc()

	grounding, err := e.orchestrator.Retrieve(intent, opts)
	if err != nil {
		metrics.QueryTotal.WithLabelValues(MethodGraphRAG, "error").Inc()
		return nil, fmt.Errorf("intent %s: %w", intent, err)
	}

	if grounding.PathStats != nil {
		metrics.CohortSessions.Observe(float64(grounding.PathStats.Sessions))
	}
	if !grounding.Sufficient {
		metrics.InsufficientData.Inc()
	}

	resp := &Response{
		ID:         uuid.New().String(),
		Question:   question,
		Method:     MethodGraphRAG,
		Intent:     grounding.Intent,
		Context:    grounding.Context,
		Statistics: grounding,
	}

	answer, err := e.llmClient.Analyze(ctx, question, grounding.Context)
	if err != nil {
		// Synthesis is best-effort; the statistics are the contract.
		metrics.SynthesisFailures.Inc()
		resp.Warning = fmt.Sprintf("synthesis unavailable: %v", err)
		logger.Warn("LLM synthesis failed, returning statistics only",
			zap.String("intent", grounding.Intent),
			zap.Error(err),
		)
	} else {
		resp.Answer = answer
	}

	resp.LatencyMS = int(time.Since(start).Milliseconds())
	e.finish(ctx, req.UserID, req.Category, resp)

	return resp, nil
}

// QueryNaive answers the same question through the vector baseline.
func (e *Engine) QueryNaive(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	question := e.resolveQuestion(req)
	if cached := e.cacheLookup(ctx, MethodNaive, question, req.Category); cached != nil {
		return cached, nil
	}

	context_, err := e.naive.RetrieveContext(ctx, question)
	if err != nil {
		metrics.QueryTotal.WithLabelValues(MethodNaive, "error").Inc()
		return nil, fmt.Errorf("baseline retrieval: %w", err)
	}

	resp := &Response{
		ID:       uuid.New().String(),
		Question: question,
		Method:   MethodNaive,
		Context:  context_,
	}

	answer, err := e.llmClient.Analyze(ctx, question, context_)
	if err != nil {
		metrics.SynthesisFailures.Inc()
		resp.Warning = fmt.Sprintf("synthesis unavailable: %v", err)
	} else {
		resp.Answer = answer
	}

	resp.LatencyMS = int(time.Since(start).Milliseconds())
	e.finish(ctx, req.UserID, req.Category, resp)

	return resp, nil
}

// Compare runs both retrievers side by side for the same question.
func (e *Engine) Compare(ctx context.Context, req Request) (*ComparisonResponse, error) {
	graphResp, err := e.QueryGraphRAG(ctx, req)
	if err != nil {
		return nil, err
	}

	naiveResp, err := e.QueryNaive(ctx, req)
	if err != nil {
		return nil, err
	}

	return &ComparisonResponse{
		Question: graphResp.Question,
		GraphRAG: graphResp,
		Naive:    naiveResp,
	}, nil
}

func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	gs := e.graph.Stats()
	for t, n := range gs.NodeTypes {
		metrics.GraphNodes.WithLabelValues(t).Set(float64(n))
	}
	for t, n := range gs.EdgeTypes {
		metrics.GraphEdges.WithLabelValues(t).Set(float64(n))
	}

	docs, err := e.naive.NumDocuments(ctx)
	if err != nil {
		logger.Warn("Failed to count baseline documents", zap.Error(err))
		docs = 0
	}
	metrics.BaselineDocuments.Set(float64(docs))

	return &Stats{Graph: gs, BaselineDocuments: docs}, nil
}

func (e *Engine) History(userID string, limit int) ([]models.QueryRecord, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return e.db.GetQueryHistory(userID, limit)
}

func (e *Engine) StoreFeedback(queryID string, helpful bool, comment string) error {
	return e.db.StoreFeedback(&models.Feedback{
		QueryID: queryID,
		Helpful: helpful,
		Comment: comment,
	})
}

func (e *Engine) resolveQuestion(req Request) string {
	if req.Question != "" {
		return req.Question
	}
	if p, ok := retrieval.PresetByID(req.PresetID); ok {
		return p.Query
	}
	return req.Question
}

func (e *Engine) cacheLookup(ctx context.Context, method, question, category string) *Response {
	if e.cache == nil {
		return nil
	}

	key := utils.HashKey(method, question, category)
	var cached Response
	hit, err := e.cache.GetAnswer(ctx, key, &cached)
	if err != nil {
		logger.Warn("Cache lookup failed", zap.Error(err))
		return nil
	}
	if !hit {
		metrics.CacheMisses.WithLabelValues(method).Inc()
		return nil
	}

	metrics.CacheHits.WithLabelValues(method).Inc()
	cached.Cached = true
	return &cached
}

func (e *Engine) finish(ctx context.Context, userID, category string, resp *Response) {
	metrics.QueryTotal.WithLabelValues(resp.Method, "success").Inc()
	metrics.QueryDuration.WithLabelValues(resp.Method).Observe(float64(resp.LatencyMS) / 1000)

	err := e.db.InsertQueryRecord(&models.QueryRecord{
		ID:        resp.ID,
		UserID:    userID,
		Question:  resp.Question,
		Method:    resp.Method,
		Intent:    resp.Intent,
		Context:   resp.Context,
		Response:  resp.Answer,
		LatencyMS: resp.LatencyMS,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logger.Warn("Failed to record query", zap.Error(err))
	}

	if e.cache != nil && resp.Warning == "" {
		key := utils.HashKey(resp.Method, resp.Question, category)
		if err := e.cache.SetAnswer(ctx, key, resp); err != nil {
			logger.Warn("Failed to cache answer", zap.Error(err))
		}
	}
}

package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/journey-rag/backend/pkg/logger"
)

type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

// SessionDoc is one embedded session document for the naive baseline.
type SessionDoc struct {
	ID        string
	Embedding []float32
	Text      string
	SessionID int64
	UserID    int64
	Segment   string
	Churned   bool
}

type SearchResult struct {
	DocID     string
	Text      string
	SessionID int64
	Segment   string
	Churned   bool
	Score     float32
}

func NewClient(endpoint, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) CreateCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Session document embeddings for the naive retrieval baseline",
		Fields: []*entity.Field{
			{
				Name:       "doc_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "embedding",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": fmt.Sprintf("%d", m.vectorDim)},
			},
			{
				Name:       "text",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "4096"},
			},
			{
				Name:     "session_id",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "user_id",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:       "segment",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "32"},
			},
			{
				Name:     "churned",
				DataType: entity.FieldTypeBool,
			},
		},
	}

	err = m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, _ := entity.NewIndexIvfFlat(entity.IP, 1024)
	err = m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = m.client.LoadCollection(ctx, m.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

func (m *Client) Insert(ctx context.Context, docs []SessionDoc) error {
	if len(docs) == 0 {
		return nil
	}

	docIDs := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	texts := make([]string, len(docs))
	sessionIDs := make([]int64, len(docs))
	userIDs := make([]int64, len(docs))
	segments := make([]string, len(docs))
	churned := make([]bool, len(docs))

	for i, doc := range docs {
		docIDs[i] = doc.ID
		embeddings[i] = doc.Embedding
		texts[i] = doc.Text
		sessionIDs[i] = doc.SessionID
		userIDs[i] = doc.UserID
		segments[i] = doc.Segment
		churned[i] = doc.Churned
	}

	_, err := m.client.Insert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("doc_id", docIDs),
		entity.NewColumnFloatVector("embedding", m.vectorDim, embeddings),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnInt64("session_id", sessionIDs),
		entity.NewColumnInt64("user_id", userIDs),
		entity.NewColumnVarChar("segment", segments),
		entity.NewColumnBool("churned", churned),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session docs: %w", err)
	}

	err = m.client.Flush(ctx, m.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Session documents inserted", zap.Int("count", len(docs)))

	return nil
}

func (m *Client) Search(ctx context.Context, queryEmbedding []float32, topK int, segmentFilter string) ([]SearchResult, error) {
	expr := ""
	if segmentFilter != "" {
		expr = fmt.Sprintf(`segment == "%s"`, segmentFilter)
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		expr,
		[]string{"doc_id", "text", "session_id", "segment", "churned"},
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		"embedding",
		entity.IP,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0)
	for _, sr := range searchResult {
		for i := 0; i < sr.ResultCount; i++ {
			docID, _ := sr.Fields.GetColumn("doc_id").Get(i)
			text, _ := sr.Fields.GetColumn("text").Get(i)
			sessionID, _ := sr.Fields.GetColumn("session_id").Get(i)
			segment, _ := sr.Fields.GetColumn("segment").Get(i)
			churnedVal, _ := sr.Fields.GetColumn("churned").Get(i)

			results = append(results, SearchResult{
				DocID:     docID.(string),
				Text:      text.(string),
				SessionID: sessionID.(int64),
				Segment:   segment.(string),
				Churned:   churnedVal.(bool),
				Score:     sr.Scores[i],
			})
		}
	}

	logger.Debug("Vector search completed",
		zap.Int("topK", topK),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// NumDocuments reports the collection row count for the stats endpoint.
func (m *Client) NumDocuments(ctx context.Context) (int64, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.collectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}
	n, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count: %w", err)
	}
	return n, nil
}

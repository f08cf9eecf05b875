package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/ingestion"
	"github.com/journey-rag/backend/internal/llm"
	"github.com/journey-rag/backend/internal/vector/milvus"
	"github.com/journey-rag/backend/pkg/logger"
)

// Index is the naive vector baseline: session documents embedded and searched
// by nearest neighbor, with no awareness of graph structure. It exists to
// define the comparison contract against the graph-grounded retriever.
type Index struct {
	vectorDB *milvus.Client
	llm      *llm.Client
	topK     int
}

func NewIndex(vectorDB *milvus.Client, llmClient *llm.Client, topK int) *Index {
	if topK < 1 {
		topK = 10
	}
	return &Index{vectorDB: vectorDB, llm: llmClient, topK: topK}
}

// Build embeds the session documents and inserts them into the vector
// collection. Skips work when the collection is already populated, so a
// restart with a warm collection serves immediately.
func (idx *Index) Build(ctx context.Context, docs []ingestion.SessionDocument) error {
	existing, err := idx.vectorDB.NumDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to check baseline index: %w", err)
	}
	if existing >= int64(len(docs)) {
		logger.Info("Baseline index already populated", zap.Int64("documents", existing))
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	embeddings, err := idx.llm.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed session documents: %w", err)
	}

	vecDocs := make([]milvus.SessionDoc, len(docs))
	for i, d := range docs {
		vecDocs[i] = milvus.SessionDoc{
			ID:        d.ID,
			Embedding: embeddings[i],
			Text:      d.Text,
			SessionID: d.SessionID,
			UserID:    d.UserID,
			Segment:   d.Segment,
			Churned:   d.Churned,
		}
	}

	if err := idx.vectorDB.Insert(ctx, vecDocs); err != nil {
		return fmt.Errorf("failed to index session documents: %w", err)
	}

	logger.Info("Baseline index built", zap.Int("documents", len(docs)))
	return nil
}

// RetrieveContext embeds the question and formats the top-K similar session
// documents as LLM context.
func (idx *Index) RetrieveContext(ctx context.Context, question string) (string, error) {
	embedding, err := idx.llm.GenerateEmbedding(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := idx.vectorDB.Search(ctx, embedding, idx.topK, "")
	if err != nil {
		return "", fmt.Errorf("vector search failed: %w", err)
	}

	if len(results) == 0 {
		return "No relevant sessions found.", nil
	}

	var b strings.Builder
	b.WriteString("## Retrieved Session Context (Vector Search)\n\n")
	for i, doc := range results {
		fmt.Fprintf(&b, "**Session %d** (similarity: %.3f):\n  %s\n\n", i+1, doc.Score, doc.Text)
	}

	return b.String(), nil
}

// NumDocuments reports the baseline collection size for diagnostics.
func (idx *Index) NumDocuments(ctx context.Context) (int64, error) {
	return idx.vectorDB.NumDocuments(ctx)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data/journeyrag.db", cfg.SQLite.Path)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "session_docs", cfg.Milvus.CollectionName)
	assert.Equal(t, 1536, cfg.Milvus.VectorDim)
	assert.Equal(t, "./data/journey_graph.json", cfg.Data.GraphSnapshot)
	assert.Equal(t, 2, cfg.Retrieval.PatternWindow)
	assert.Equal(t, 10, cfg.Retrieval.MaxPatterns)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, 60, cfg.RateLimit.MaxRequestsPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("JOURNEY_RAG_SERVER_PORT", "9999")
	t.Setenv("JOURNEY_RAG_RETRIEVAL_PATTERNWINDOW", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Retrieval.PatternWindow)
}

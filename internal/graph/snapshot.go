package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/journey-rag/backend/pkg/logger"
)

const snapshotVersion = 1

var ErrSnapshotVersion = errors.New("graph snapshot version mismatch")

type snapshot struct {
	Version  int       `json:"version"`
	Users    []User    `json:"users"`
	Sessions []Session `json:"sessions"`
	Events   []Event   `json:"events"`
	Products []Product `json:"products"`
}

// Save writes the graph to disk so later processes can skip the build step.
// The snapshot round-trips every entity, edge, and ordering exactly.
func (g *Graph) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.Marshal(snapshot{
		Version:  snapshotVersion,
		Users:    g.users,
		Sessions: g.sessions,
		Events:   g.events,
		Products: g.products,
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	logger.Info("Graph snapshot saved", zap.String("path", path))
	return nil
}

// LoadSnapshot restores a previously saved graph. A version mismatch returns
// ErrSnapshotVersion so the caller rebuilds from the input tables instead of
// trusting a stale layout.
func LoadSnapshot(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrSnapshotVersion, snap.Version, snapshotVersion)
	}

	g := &Graph{
		users:      snap.Users,
		sessions:   snap.Sessions,
		events:     snap.Events,
		products:   snap.Products,
		userIdx:    make(map[int64]int32, len(snap.Users)),
		sessionIdx: make(map[int64]int32, len(snap.Sessions)),
		productIdx: make(map[int64]int32, len(snap.Products)),
	}
	for i := range g.users {
		g.userIdx[g.users[i].ID] = int32(i)
	}
	for i := range g.sessions {
		g.sessionIdx[g.sessions[i].ID] = int32(i)
	}
	for i := range g.products {
		g.productIdx[g.products[i].ID] = int32(i)
	}

	logger.Info("Graph snapshot loaded",
		zap.String("path", path),
		zap.Int32("sessions", g.NumSessions()),
	)

	return g, nil
}

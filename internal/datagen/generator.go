package datagen

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/storage/models"
	"github.com/journey-rag/backend/pkg/logger"
)

// Generator produces a seeded synthetic clickstream: users split into
// value segments, a product catalog, and per-session event sequences that
// follow browse/cart/purchase patterns. The same seed always yields the
// same tables.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

type Config struct {
	Users    int
	Products int
	Sessions int
	Seed     int64
}

type segmentProfile struct {
	name          string
	ratio         float64
	ltvMean       float64
	ltvStd        float64
	churnRate     float64
	minEvents     int
	maxEvents     int
	purchaseProb  float64
	sessionWeight float64
}

var segments = []segmentProfile{
	{name: "high_value", ratio: 0.15, ltvMean: 500, ltvStd: 150, churnRate: 0.10, minEvents: 5, maxEvents: 12, purchaseProb: 0.60, sessionWeight: 3.0},
	{name: "medium", ratio: 0.50, ltvMean: 150, ltvStd: 50, churnRate: 0.30, minEvents: 3, maxEvents: 7, purchaseProb: 0.30, sessionWeight: 1.5},
	{name: "low", ratio: 0.35, ltvMean: 30, ltvStd: 15, churnRate: 0.60, minEvents: 1, maxEvents: 4, purchaseProb: 0.10, sessionWeight: 1.0},
}

var categories = []string{"Electronics", "Fashion", "Home", "Books", "Sports", "Beauty"}

func New(cfg Config) *Generator {
	if cfg.Users < 1 {
		cfg.Users = 5000
	}
	if cfg.Products < 1 {
		cfg.Products = 800
	}
	if cfg.Sessions < 1 {
		cfg.Sessions = 20000
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (g *Generator) Generate() *models.Tables {
	users := g.generateUsers()
	products, popularity := g.generateProducts()
	events := g.generateEvents(users, popularity)

	logger.Info("Synthetic tables generated",
		zap.Int("users", len(users)),
		zap.Int("products", len(products)),
		zap.Int("events", len(events)),
	)

	return &models.Tables{
		Users:    users,
		Products: products,
		Events:   events,
	}
}

func (g *Generator) generateUsers() []models.UserRecord {
	users := make([]models.UserRecord, g.cfg.Users)
	for i := range users {
		seg := g.pickSegment()
		ltv := math.Max(0, g.rng.NormFloat64()*seg.ltvStd+seg.ltvMean)
		users[i] = models.UserRecord{
			ID:      int64(i),
			Segment: seg.name,
			LTV:     math.Round(ltv*100) / 100,
			Churned: g.rng.Float64() < seg.churnRate,
		}
	}
	return users
}

// generateProducts also returns a hidden popularity weight per product,
// used to bias which products sessions interact with.
func (g *Generator) generateProducts() ([]models.ProductRecord, []float64) {
	products := make([]models.ProductRecord, g.cfg.Products)
	popularity := make([]float64, g.cfg.Products)

	for i := range products {
		// Log-normal price, clamped to a realistic range.
		price := math.Exp(g.rng.NormFloat64()*1.2 + 4)
		price = math.Max(5, math.Min(price, 2000))

		products[i] = models.ProductRecord{
			ID:       int64(i),
			Category: categories[g.rng.Intn(len(categories))],
			Price:    math.Round(price*100) / 100,
		}
		// Skewed toward low popularity, a few hits.
		popularity[i] = math.Pow(g.rng.Float64(), 2)
	}

	return products, popularity
}

func (g *Generator) generateEvents(users []models.UserRecord, popularity []float64) []models.EventRecord {
	var events []models.EventRecord
	eventID := int64(0)

	userWeights := make([]float64, len(users))
	for i, u := range users {
		userWeights[i] = segmentByName(u.Segment).sessionWeight
	}

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	for sessionID := 0; sessionID < g.cfg.Sessions; sessionID++ {
		user := users[g.weightedIndex(userWeights)]
		seg := segmentByName(user.Segment)

		purchaseProb := seg.purchaseProb
		if user.Churned {
			purchaseProb *= 0.1
		}

		numEvents := seg.minEvents + g.rng.Intn(seg.maxEvents-seg.minEvents+1)
		current := base.Add(time.Duration(g.rng.Intn(180*24*3600)) * time.Second)

		var viewed, cart []int64
		ended := false

		// Sessions open on a landing page or a search.
		firstType := "page_view"
		if g.rng.Float64() < 0.5 {
			firstType = "search"
		}
		events = append(events, models.EventRecord{
			ID:        eventID,
			SessionID: int64(sessionID),
			UserID:    user.ID,
			Type:      firstType,
			Timestamp: current,
		})
		eventID++
		current = current.Add(time.Duration(5+g.rng.Intn(26)) * time.Second)

		for n := 1; n < numEvents && !ended; n++ {
			var eventType string
			if len(cart) > 0 {
				eventType = g.pickWeighted(
					[]string{"page_view", "click", "add_to_cart", "exit", "checkout_view"},
					[]float64{0.3, 0.2, 0.1, 0.2, 0.2},
				)
			} else {
				eventType = g.pickWeighted(
					[]string{"page_view", "click", "add_to_cart", "exit"},
					[]float64{0.45, 0.30, 0.15, 0.10},
				)
			}

			switch eventType {
			case "page_view", "click":
				pid := int64(g.weightedIndex(popularity))
				viewed = append(viewed, pid)
				events = append(events, models.EventRecord{
					ID:        eventID,
					SessionID: int64(sessionID),
					UserID:    user.ID,
					Type:      eventType,
					Timestamp: current,
					ProductID: &pid,
				})
				eventID++

			case "add_to_cart":
				if len(viewed) == 0 {
					break
				}
				pid := viewed[g.rng.Intn(len(viewed))]
				cart = append(cart, pid)
				events = append(events, models.EventRecord{
					ID:        eventID,
					SessionID: int64(sessionID),
					UserID:    user.ID,
					Type:      "add_to_cart",
					Timestamp: current,
					ProductID: &pid,
				})
				eventID++

			case "exit":
				events = append(events, models.EventRecord{
					ID:        eventID,
					SessionID: int64(sessionID),
					UserID:    user.ID,
					Type:      "exit",
					Timestamp: current,
				})
				eventID++
				ended = true

			case "checkout_view":
				events = append(events, models.EventRecord{
					ID:        eventID,
					SessionID: int64(sessionID),
					UserID:    user.ID,
					Type:      "page_view",
					Timestamp: current,
				})
				eventID++
			}

			current = current.Add(time.Duration(10+g.rng.Intn(51)) * time.Second)
		}

		if len(cart) > 0 && !ended && g.rng.Float64() < purchaseProb {
			pid := cart[0]
			events = append(events, models.EventRecord{
				ID:        eventID,
				SessionID: int64(sessionID),
				UserID:    user.ID,
				Type:      "purchase",
				Timestamp: current,
				ProductID: &pid,
			})
			eventID++
		}
	}

	return events
}

func (g *Generator) pickSegment() segmentProfile {
	r := g.rng.Float64()
	acc := 0.0
	for _, s := range segments {
		acc += s.ratio
		if r < acc {
			return s
		}
	}
	return segments[len(segments)-1]
}

func (g *Generator) pickWeighted(choices []string, weights []float64) string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := g.rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}

func (g *Generator) weightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := g.rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return i
		}
	}
	return len(weights) - 1
}

func segmentByName(name string) segmentProfile {
	for _, s := range segments {
		if s.name == name {
			return s
		}
	}
	return segments[len(segments)-1]
}

// WriteCSV writes the three tables in the layout the ingestion loader reads.
func WriteCSV(t *models.Tables, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	err := writeCSVFile(filepath.Join(dir, "users.csv"),
		[]string{"user_id", "segment", "ltv", "churned"},
		len(t.Users),
		func(i int) []string {
			u := t.Users[i]
			return []string{
				strconv.FormatInt(u.ID, 10),
				u.Segment,
				strconv.FormatFloat(u.LTV, 'f', 2, 64),
				strconv.FormatBool(u.Churned),
			}
		})
	if err != nil {
		return err
	}

	err = writeCSVFile(filepath.Join(dir, "products.csv"),
		[]string{"product_id", "category", "price"},
		len(t.Products),
		func(i int) []string {
			p := t.Products[i]
			return []string{
				strconv.FormatInt(p.ID, 10),
				p.Category,
				strconv.FormatFloat(p.Price, 'f', 2, 64),
			}
		})
	if err != nil {
		return err
	}

	return writeCSVFile(filepath.Join(dir, "events.csv"),
		[]string{"event_id", "session_id", "user_id", "event_type", "timestamp", "product_id"},
		len(t.Events),
		func(i int) []string {
			e := t.Events[i]
			productID := ""
			if e.ProductID != nil {
				productID = strconv.FormatInt(*e.ProductID, 10)
			}
			return []string{
				strconv.FormatInt(e.ID, 10),
				strconv.FormatInt(e.SessionID, 10),
				strconv.FormatInt(e.UserID, 10),
				e.Type,
				e.Timestamp.Format(time.RFC3339),
				productID,
			}
		})
}

func writeCSVFile(path string, header []string, rows int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < rows; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	logger.Info("CSV written", zap.String("path", path), zap.Int("rows", rows))
	return nil
}

package ingestion

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/storage/models"
	"github.com/journey-rag/backend/pkg/logger"
)

// LoadTables reads the three input CSVs (users.csv, products.csv,
// events.csv) from dir. Field-level validation happens here; referential
// integrity across tables is the graph builder's job.
func LoadTables(dir string) (*models.Tables, error) {
	users, err := loadUsers(filepath.Join(dir, "users.csv"))
	if err != nil {
		return nil, err
	}
	products, err := loadProducts(filepath.Join(dir, "products.csv"))
	if err != nil {
		return nil, err
	}
	events, err := loadEvents(filepath.Join(dir, "events.csv"))
	if err != nil {
		return nil, err
	}

	logger.Info("Input tables loaded",
		zap.String("dir", dir),
		zap.Int("users", len(users)),
		zap.Int("products", len(products)),
		zap.Int("events", len(events)),
	)

	return &models.Tables{Users: users, Products: products, Events: events}, nil
}

func loadUsers(path string) ([]models.UserRecord, error) {
	rows, err := readCSV(path, []string{"user_id", "segment", "ltv", "churned"})
	if err != nil {
		return nil, err
	}

	users := make([]models.UserRecord, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad user_id %q", path, i+2, row[0])
		}
		ltv, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad ltv %q", path, i+2, row[2])
		}
		churned, err := strconv.ParseBool(row[3])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad churned %q", path, i+2, row[3])
		}
		users = append(users, models.UserRecord{
			ID:      id,
			Segment: row[1],
			LTV:     ltv,
			Churned: churned,
		})
	}
	return users, nil
}

func loadProducts(path string) ([]models.ProductRecord, error) {
	rows, err := readCSV(path, []string{"product_id", "category", "price"})
	if err != nil {
		return nil, err
	}

	products := make([]models.ProductRecord, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad product_id %q", path, i+2, row[0])
		}
		price, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad price %q", path, i+2, row[2])
		}
		products = append(products, models.ProductRecord{
			ID:       id,
			Category: row[1],
			Price:    price,
		})
	}
	return products, nil
}

func loadEvents(path string) ([]models.EventRecord, error) {
	rows, err := readCSV(path, []string{"event_id", "session_id", "user_id", "event_type", "timestamp", "product_id"})
	if err != nil {
		return nil, err
	}

	events := make([]models.EventRecord, 0, len(rows))
	for i, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad event_id %q", path, i+2, row[0])
		}
		sessionID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad session_id %q", path, i+2, row[1])
		}
		userID, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad user_id %q", path, i+2, row[2])
		}
		ts, err := time.Parse(time.RFC3339, row[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad timestamp %q", path, i+2, row[4])
		}

		var productID *int64
		if row[5] != "" {
			pid, err := strconv.ParseInt(row[5], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: bad product_id %q", path, i+2, row[5])
			}
			productID = &pid
		}

		events = append(events, models.EventRecord{
			ID:        id,
			SessionID: sessionID,
			UserID:    userID,
			Type:      row[3],
			Timestamp: ts,
			ProductID: productID,
		})
	}
	return events, nil
}

func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}

	if len(records[0]) != len(header) {
		return nil, fmt.Errorf("%s: expected %d columns, got %d", path, len(header), len(records[0]))
	}
	for i, name := range header {
		if records[0][i] != name {
			return nil, fmt.Errorf("%s: expected column %q at position %d, got %q", path, name, i, records[0][i])
		}
	}

	return records[1:], nil
}

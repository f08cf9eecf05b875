package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/journey-rag/backend/internal/datagen"
	appLogger "github.com/journey-rag/backend/pkg/logger"
)

func main() {
	out := flag.String("out", "./data", "output directory for CSV files")
	users := flag.Int("users", 5000, "number of users")
	products := flag.Int("products", 800, "number of products")
	sessions := flag.Int("sessions", 20000, "number of sessions")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	err := appLogger.Init("info", "console", "stdout")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	gen := datagen.New(datagen.Config{
		Users:    *users,
		Products: *products,
		Sessions: *sessions,
		Seed:     *seed,
	})

	tables := gen.Generate()

	if err := datagen.WriteCSV(tables, *out); err != nil {
		appLogger.Fatal("Failed to write CSV files", zap.Error(err))
	}

	appLogger.Info("Data generation complete", zap.String("dir", *out))
}

// catalog-seed validates a product seed file and builds the on-disk
// catalog index ahead of service start.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/retail-query-kernel/internal/catalog"
)

func main() {
	seedPath := flag.String("seed", "./data/products.yaml", "path to product seed file")
	indexPath := flag.String("index", "./data/catalog.bleve", "path for the bleve index")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	entries, err := catalog.LoadSeed(*seedPath)
	if err != nil {
		logger.Fatal("seed file rejected", zap.Error(err))
	}

	store := catalog.NewMemoryStore(logger)
	index, err := catalog.NewIndex(catalog.IndexConfig{
		IndexPath: *indexPath,
		Fuzziness: 2,
		MaxHits:   25,
	}, store, logger)
	if err != nil {
		logger.Fatal("failed to open index", zap.Error(err))
	}
	defer index.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := index.AddBatch(ctx, entries); err != nil {
		logger.Fatal("failed to index products", zap.Error(err))
	}

	logger.Info("catalog index built",
		zap.String("index", *indexPath),
		zap.Int("products", len(entries)))
}

// nlu-eval replays a labeled query set through the router and reports
// intent and extraction accuracy, for tuning vocabulary and thresholds.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/retail-query-kernel/internal/catalog"
	"github.com/retail-query-kernel/internal/classify"
	"github.com/retail-query-kernel/internal/keywords"
	"github.com/retail-query-kernel/internal/nlu"
)

type evalCase struct {
	Query          string `yaml:"query"`
	Intent         string `yaml:"intent"`
	ProductID      string `yaml:"product_id"`
	Disambiguation *bool  `yaml:"disambiguation"`
}

type evalFile struct {
	Cases []evalCase `yaml:"cases"`
}

func main() {
	evalPath := flag.String("eval", "./data/eval.yaml", "path to labeled query set")
	seedPath := flag.String("seed", "./data/products.yaml", "path to product seed file")
	vocabPath := flag.String("vocab", "", "optional vocabulary override file")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	data, err := os.ReadFile(*evalPath)
	if err != nil {
		logger.Fatal("failed to read eval set", zap.Error(err))
	}
	var ef evalFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		logger.Fatal("failed to parse eval set", zap.Error(err))
	}
	if len(ef.Cases) == 0 {
		logger.Fatal("eval set is empty")
	}

	dictionary := keywords.Default()
	if *vocabPath != "" {
		if dictionary, err = keywords.Load(*vocabPath); err != nil {
			logger.Fatal("failed to load vocabulary", zap.Error(err))
		}
	}

	entries, err := catalog.LoadSeed(*seedPath)
	if err != nil {
		logger.Fatal("failed to load product seed", zap.Error(err))
	}

	store := catalog.NewMemoryStore(logger)
	index, err := catalog.NewIndex(catalog.IndexConfig{InMemory: true, Fuzziness: 2, MaxHits: 25}, store, logger)
	if err != nil {
		logger.Fatal("failed to build index", zap.Error(err))
	}
	defer index.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := index.AddBatch(ctx, entries); err != nil {
		logger.Fatal("failed to index products", zap.Error(err))
	}

	router, err := nlu.Build(nlu.DefaultConfig(), keywords.NewHolder(dictionary), index, logger)
	if err != nil {
		logger.Fatal("failed to build router", zap.Error(err))
	}

	var intentHits, productHits, productTotal, disambHits, disambTotal int
	for _, c := range ef.Cases {
		res, err := router.Route(ctx, c.Query)
		if err != nil {
			logger.Fatal("routing failed", zap.String("query", c.Query), zap.Error(err))
		}

		if res.Intent == classify.Intent(c.Intent) {
			intentHits++
		} else {
			logger.Warn("intent mismatch",
				zap.String("query", c.Query),
				zap.String("want", c.Intent),
				zap.String("got", string(res.Intent)))
		}

		if c.ProductID != "" {
			productTotal++
			if len(res.Candidates) > 0 && res.Candidates[0].ProductID == c.ProductID {
				productHits++
			} else {
				logger.Warn("product mismatch",
					zap.String("query", c.Query),
					zap.String("want", c.ProductID))
			}
		}

		if c.Disambiguation != nil {
			disambTotal++
			if res.DisambiguationNeeded == *c.Disambiguation {
				disambHits++
			} else {
				logger.Warn("disambiguation mismatch",
					zap.String("query", c.Query),
					zap.Bool("want", *c.Disambiguation))
			}
		}
	}

	fmt.Printf("cases:           %d\n", len(ef.Cases))
	fmt.Printf("intent accuracy: %d/%d (%.1f%%)\n", intentHits, len(ef.Cases), pct(intentHits, len(ef.Cases)))
	if productTotal > 0 {
		fmt.Printf("top-product hit: %d/%d (%.1f%%)\n", productHits, productTotal, pct(productHits, productTotal))
	}
	if disambTotal > 0 {
		fmt.Printf("disambiguation:  %d/%d (%.1f%%)\n", disambHits, disambTotal, pct(disambHits, disambTotal))
	}
}

func pct(hit, total int) float64 {
	return float64(hit) / float64(total) * 100
}

// Command seed imports the product catalog from the upstream REST source
// into the local database. It pages through the upstream with limit/skip
// parameters and upserts each product, so re-running is safe.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nextshop/storefront/internal/config"
	"github.com/nextshop/storefront/internal/domain"
	"github.com/nextshop/storefront/internal/repository/postgres"
	"github.com/nextshop/storefront/migrations"
	"github.com/nextshop/storefront/pkg/database"
	"github.com/nextshop/storefront/pkg/httpclient"
	"github.com/nextshop/storefront/pkg/logger"
)

const pageSize = 50

// upstreamProduct mirrors the upstream catalog payload.
type upstreamProduct struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Category    string      `json:"category"`
	Stock       int         `json:"stock"`
	Tags        []string    `json:"tags"`
	Thumbnail   string      `json:"thumbnail"`
	Images      []string    `json:"images"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("storefront-seed", cfg.LogLevel)
	log.Info("seeding catalog", slog.String("upstream", cfg.UpstreamCatalogURL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresConfig(), log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	client := httpclient.NewBreakerClient(
		httpclient.New(httpclient.DefaultConfig(), log),
		httpclient.DefaultBreakerConfig("upstream-catalog"),
		log,
	)
	repo := postgres.NewProductRepository(pool)

	total := 0
	for skip := 0; ; skip += pageSize {
		batch, err := fetchPage(ctx, client, cfg.UpstreamCatalogURL, pageSize, skip)
		if err != nil {
			return fmt.Errorf("fetch products at skip=%d: %w", skip, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, up := range batch {
			product := toDomain(up)
			if product.ID == "" || product.Title == "" {
				log.Warn("skipping malformed upstream product", slog.String("id", up.ID.String()))
				continue
			}
			if err := repo.Upsert(ctx, product); err != nil {
				return fmt.Errorf("upsert product %s: %w", product.ID, err)
			}
			total++
		}
		log.Info("imported page", slog.Int("skip", skip), slog.Int("count", len(batch)))

		if len(batch) < pageSize {
			break
		}
	}

	log.Info("catalog seed complete", slog.Int("products", total))
	return nil
}

func fetchPage(ctx context.Context, client *httpclient.BreakerClient, baseURL string, limit, skip int) ([]upstreamProduct, error) {
	url := fmt.Sprintf("%s/products?limit=%d&skip=%d", baseURL, limit, skip)

	resp, err := client.Get(ctx, url)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			return nil, fmt.Errorf("upstream unavailable: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, body)
	}

	var batch []upstreamProduct
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}
	return batch, nil
}

func toDomain(up upstreamProduct) *domain.Product {
	thumbnail := up.Thumbnail
	if thumbnail == "" && len(up.Images) > 0 {
		thumbnail = up.Images[0]
	}
	stock := up.Stock
	if stock < 0 {
		stock = 0
	}
	return &domain.Product{
		ID:          up.ID.String(),
		Title:       up.Title,
		Description: up.Description,
		Price:       up.Price,
		Category:    up.Category,
		Stock:       stock,
		Tags:        up.Tags,
		Thumbnail:   thumbnail,
		Images:      up.Images,
	}
}

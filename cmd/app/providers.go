package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valkey-io/valkey-go"

	"github.com/undownding/city-card/internal/domain/card"
	"github.com/undownding/city-card/internal/domain/cityprofile"
	"github.com/undownding/city-card/internal/infra/cardlog"
	"github.com/undownding/city-card/internal/infra/cardmeta"
	"github.com/undownding/city-card/internal/infra/cardstore"
	"github.com/undownding/city-card/internal/infra/config"
	"github.com/undownding/city-card/internal/infra/gateway"
	"github.com/undownding/city-card/internal/infra/geocode/nominatim"
	"github.com/undownding/city-card/internal/infra/imaging"
	"github.com/undownding/city-card/pkg/metrics"
)

func provideCardConfig(cfg *config.Config) card.Config {
	return card.Config{
		ImageModel:    cfg.Gateway.ImageModel,
		PromptVersion: cfg.Card.PromptVersion,
		CDNBaseURL:    cfg.Card.CDNBaseURL,
		AspectRatio:   cfg.Card.AspectRatio,
		ImageSize:     cfg.Card.ImageSize,
		Enrichment:    cfg.Card.Enrichment,
		NormalizeWebP: cfg.Card.NormalizeWebP,
		MetaTTL:       cfg.Card.MetaTTL,
	}
}

func provideProfileConfig(cfg *config.Config) cityprofile.Config {
	return cityprofile.Config{
		TextModel: cfg.Gateway.TextModel,
	}
}

func provideGatewayClient(cfg *config.Config) (*gateway.Client, error) {
	return gateway.NewClient(cfg.Gateway.APIKey, cfg.Gateway.BaseURL)
}

func provideGeocodeClient(cfg *config.Config) *nominatim.Client {
	return nominatim.NewClient(nominatim.Config{
		BaseURL:   cfg.Geocode.BaseURL,
		UserAgent: cfg.Geocode.UserAgent,
		Zoom:      cfg.Geocode.Zoom,
	})
}

func provideBlobStore(cfg *config.Config, logger *slog.Logger) card.BlobStore {
	if strings.TrimSpace(cfg.Storage.Endpoint) == "" {
		logger.Info("storage endpoint not set, using memory blob store")
		return cardstore.NewMemoryStore()
	}
	store, err := cardstore.NewR2Store(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.Region, logger)
	if err != nil {
		logger.Error("failed to initialize r2 store, using memory blob store", "error", err)
		return cardstore.NewMemoryStore()
	}
	return store
}

func provideDescriptorStore(cfg *config.Config, logger *slog.Logger) card.DescriptorStore {
	if cfg.Meta.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory descriptor store", "error", err)
			return cardmeta.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory descriptor store", "error", err)
			return cardmeta.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory descriptor store", "error", err)
		} else {
			logger.Info("valkey descriptor store enabled", "addr", cfg.Meta.Valkey.Addr)
			return cardmeta.NewValkeyStore(client, "card")
		}
	}
	return cardmeta.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Meta.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Meta.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Meta.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideGenerationLog(cfg *config.Config, logger *slog.Logger) card.GenerationLog {
	fallback := cardlog.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Audit.Postgres.DSN)
	if dsn == "" {
		logger.Info("audit postgres dsn not set, using memory generation log")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory generation log", "error", err)
		return fallback
	}
	if cfg.Audit.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Audit.Postgres.MaxConns
	}
	if cfg.Audit.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Audit.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory generation log", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	repo, err := cardlog.NewPostgresRepository(ctx, pool)
	if err != nil {
		logger.Error("postgres generation log setup failed, using memory generation log", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres generation log enabled")
	return repo
}

func provideImageNormalizer() card.ImageNormalizer {
	return imaging.NewConverter()
}

func provideCardMetrics() *metrics.CardMetrics {
	return metrics.NewCardMetrics(prometheus.DefaultRegisterer)
}

package card

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/undownding/city-card/internal/domain/cityprofile"
	"github.com/undownding/city-card/internal/infra/gateway"
	apperrors "github.com/undownding/city-card/pkg/errors"
	"github.com/undownding/city-card/pkg/metrics"
	"github.com/undownding/city-card/pkg/util"
)

// Service exposes the weather card operations.
type Service interface {
	// GetOrCreateCard returns the public URL of today's card for the city,
	// generating and persisting it first when no object exists yet.
	GetOrCreateCard(ctx context.Context, city string) (Result, error)
	// CardMeta returns the stored descriptor for today's card, when known.
	CardMeta(ctx context.Context, city string) (Descriptor, bool, error)
	// RecentCards lists the latest generation records.
	RecentCards(ctx context.Context, limit int) ([]GenerationRecord, error)
}

type service struct {
	cfg      Config
	blobs    BlobStore
	model    ModelClient
	profiles ProfileResolver
	meta     DescriptorStore
	audit    GenerationLog
	convert  ImageNormalizer
	counters *metrics.CardMetrics
	logger   *slog.Logger
	now      func() time.Time
	group    singleflight.Group
}

// NewService wires up the card domain.
func NewService(cfg Config, blobs BlobStore, model ModelClient, profiles ProfileResolver, meta DescriptorStore, audit GenerationLog, convert ImageNormalizer, counters *metrics.CardMetrics, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		blobs:    blobs,
		model:    model,
		profiles: profiles,
		meta:     meta,
		audit:    audit,
		convert:  convert,
		counters: counters,
		logger:   logger.With("component", "card.service"),
		now:      util.NowUTC,
	}
}

func (s *service) GetOrCreateCard(ctx context.Context, city string) (Result, error) {
	trimmed := strings.TrimSpace(city)
	if trimmed == "" {
		return Result{}, apperrors.Wrap("invalid_input", "city cannot be empty", nil)
	}

	slug := Slugify(trimmed)
	key := ObjectKey(slug, PartitionFor(s.now()), s.cfg.PromptVersion)
	imageURL := PublicURL(s.cfg.CDNBaseURL, key)

	exists, err := s.blobs.Head(ctx, key)
	if err != nil {
		return Result{}, apperrors.Wrap("storage_error", "card existence probe failed", err)
	}
	if exists {
		s.counters.CacheHits.Inc()
		return Result{ImageURL: imageURL}, nil
	}
	s.counters.CacheMisses.Inc()

	// Concurrent misses for the same key collapse into one generation per
	// process. Across processes the last Put wins, which is acceptable since
	// generation is idempotent in effect.
	_, err, _ = s.group.Do(key, func() (any, error) {
		return nil, s.generate(ctx, trimmed, slug, key)
	})
	if err != nil {
		s.counters.GenerationFailures.Inc()
		return Result{}, err
	}

	return Result{ImageURL: imageURL}, nil
}

func (s *service) generate(ctx context.Context, city, slug, key string) error {
	// A flight that queued behind a finished generation can skip its own.
	if exists, err := s.blobs.Head(ctx, key); err == nil && exists {
		return nil
	}

	start := s.now()

	var profile *cityprofile.Profile
	if s.cfg.Enrichment {
		resolved, err := s.profiles.Analyze(ctx, city)
		if err != nil {
			s.logger.Warn("city analysis failed, using fallback profile", "city", city, "error", err)
			resolved = cityprofile.FallbackProfile(city)
		}
		profile = &resolved
	}

	req := gateway.GenerateContentRequest{
		Tools: []gateway.Tool{{GoogleSearch: &gateway.GoogleSearch{}}},
		Contents: []gateway.Content{
			{
				Role:  "user",
				Parts: []gateway.Part{{Text: buildImagePrompt(city, profile)}},
			},
		},
		GenerationConfig: &gateway.GenerationConfig{
			ResponseModalities: []string{"IMAGE"},
			ThinkingConfig:     &gateway.ThinkingConfig{IncludeThoughts: false},
			ImageConfig: &gateway.ImageConfig{
				AspectRatio: s.cfg.AspectRatio,
				ImageSize:   s.cfg.ImageSize,
			},
		},
	}

	resp, err := s.model.GenerateContent(ctx, s.cfg.ImageModel, req)
	if err != nil {
		return apperrors.Wrap("upstream_error", "card generation request failed", err)
	}

	data, mimeType, err := extractImage(resp)
	if err != nil {
		return apperrors.Wrap("malformed_response", "gateway returned no usable image", err)
	}

	if s.cfg.NormalizeWebP && s.convert != nil && mimeType != defaultImageMime {
		converted, convertedMime, convErr := s.convert.EnsureWebP(data, mimeType)
		if convErr != nil {
			s.logger.Warn("webp normalization failed, storing original payload", "key", key, "mime", mimeType, "error", convErr)
		} else {
			data, mimeType = converted, convertedMime
		}
	}

	if err := s.blobs.Put(ctx, key, data, mimeType); err != nil {
		return apperrors.Wrap("storage_error", "persist card failed", err)
	}
	s.counters.Generations.Inc()
	s.logger.Info("card generated", "city", city, "key", key, "mime", mimeType, "bytes", len(data))

	if desc, ok := extractDescriptor(resp); ok && s.meta != nil {
		desc.ObjectKey = key
		if err := s.meta.Save(ctx, desc, s.cfg.MetaTTL); err != nil {
			s.logger.Warn("descriptor save failed", "key", key, "error", err)
		}
	}

	if s.audit != nil {
		rec := GenerationRecord{
			ID:            uuid.New(),
			City:          city,
			Slug:          slug,
			ObjectKey:     key,
			PromptVersion: s.cfg.PromptVersion,
			MimeType:      mimeType,
			ByteSize:      int64(len(data)),
			Duration:      s.now().Sub(start),
			CreatedAt:     start.UTC(),
		}
		if err := s.audit.Record(ctx, rec); err != nil {
			s.logger.Warn("generation audit write failed", "key", key, "error", err)
		}
	}

	return nil
}

func (s *service) CardMeta(ctx context.Context, city string) (Descriptor, bool, error) {
	trimmed := strings.TrimSpace(city)
	if trimmed == "" {
		return Descriptor{}, false, apperrors.Wrap("invalid_input", "city cannot be empty", nil)
	}
	if s.meta == nil {
		return Descriptor{}, false, nil
	}
	key := ObjectKey(Slugify(trimmed), PartitionFor(s.now()), s.cfg.PromptVersion)
	return s.meta.Get(ctx, key)
}

func (s *service) RecentCards(ctx context.Context, limit int) ([]GenerationRecord, error) {
	if s.audit == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.audit.Recent(ctx, limit)
}

package card

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/undownding/city-card/internal/domain/cityprofile"
	"github.com/undownding/city-card/internal/infra/gateway"
)

// Result is serialized back to API consumers.
type Result struct {
	ImageURL string `json:"imageUrl"`
}

// Descriptor is the structured card summary the model emits next to the image.
// The json tags mirror the wire format the generation prompt asks for.
type Descriptor struct {
	ObjectKey    string `json:"objectKey"`
	CitySlug     string `json:"city_slug"`
	ResolvedName string `json:"resolved_name"`
	Condition    string `json:"condition"`
	Icon         string `json:"icon"`
	TempMin      int    `json:"temp_min"`
	TempMax      int    `json:"temp_max"`
	CurrentTemp  int    `json:"current_temp"`
}

// GenerationRecord is one completed generation written to the audit log.
type GenerationRecord struct {
	ID            uuid.UUID     `json:"id"`
	City          string        `json:"city"`
	Slug          string        `json:"slug"`
	ObjectKey     string        `json:"objectKey"`
	PromptVersion string        `json:"promptVersion"`
	MimeType      string        `json:"mimeType"`
	ByteSize      int64         `json:"byteSize"`
	Duration      time.Duration `json:"durationMs"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// BlobStore is the bucket holding persisted card images.
type BlobStore interface {
	Head(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data []byte, mimeType string) error
}

// ModelClient invokes the generative gateway.
type ModelClient interface {
	GenerateContent(ctx context.Context, model string, req gateway.GenerateContentRequest) (gateway.GenerateContentResponse, error)
}

// ProfileResolver produces architectural facts used to ground generation.
type ProfileResolver interface {
	Analyze(ctx context.Context, city string) (cityprofile.Profile, error)
}

// DescriptorStore caches card descriptors keyed by object key.
type DescriptorStore interface {
	Save(ctx context.Context, d Descriptor, ttl time.Duration) error
	Get(ctx context.Context, objectKey string) (Descriptor, bool, error)
}

// GenerationLog records completed generations.
type GenerationLog interface {
	Record(ctx context.Context, rec GenerationRecord) error
	Recent(ctx context.Context, limit int) ([]GenerationRecord, error)
}

// ImageNormalizer converts model output into the stored format.
type ImageNormalizer interface {
	EnsureWebP(data []byte, mimeType string) ([]byte, string, error)
}

// Config wires runtime settings for the card domain.
type Config struct {
	ImageModel    string
	PromptVersion string
	CDNBaseURL    string
	AspectRatio   string
	ImageSize     string
	Enrichment    bool
	NormalizeWebP bool
	MetaTTL       time.Duration
}

package cityprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/undownding/city-card/internal/infra/gateway"
	apperrors "github.com/undownding/city-card/pkg/errors"
)

// Resolver produces an architecture profile for a city.
type Resolver interface {
	Analyze(ctx context.Context, city string) (Profile, error)
}

// ModelClient invokes the generative gateway for the analysis call.
type ModelClient interface {
	GenerateContent(ctx context.Context, model string, req gateway.GenerateContentRequest) (gateway.GenerateContentResponse, error)
}

// Config wires runtime settings for the resolver.
type Config struct {
	TextModel string
}

type resolver struct {
	cfg    Config
	client ModelClient
	logger *slog.Logger
}

// NewResolver wires up the profile analysis domain.
func NewResolver(cfg Config, client ModelClient, logger *slog.Logger) Resolver {
	return &resolver{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "cityprofile.resolver"),
	}
}

// Analyze queries the gateway for architectural facts about the city. Errors
// carry codes so the caller knows why its fallback triggered; the returned
// profile is always fully populated when err is nil.
func (r *resolver) Analyze(ctx context.Context, city string) (Profile, error) {
	req := gateway.GenerateContentRequest{
		Tools: []gateway.Tool{{GoogleSearch: &gateway.GoogleSearch{}}},
		Contents: []gateway.Content{
			{
				Role:  "user",
				Parts: []gateway.Part{{Text: buildAnalysisPrompt(city)}},
			},
		},
		GenerationConfig: &gateway.GenerationConfig{
			ResponseModalities: []string{"TEXT"},
			ThinkingConfig:     &gateway.ThinkingConfig{IncludeThoughts: false},
		},
	}

	resp, err := r.client.GenerateContent(ctx, r.cfg.TextModel, req)
	if err != nil {
		return Profile{}, apperrors.Wrap("analysis_transport", "city analysis request failed", err)
	}

	text := collectText(resp)
	if strings.TrimSpace(text) == "" {
		return Profile{}, apperrors.Wrap("analysis_empty", "city analysis returned no text", nil)
	}

	raw, ok := ExtractJSONObject(text)
	if !ok {
		return Profile{}, apperrors.Wrap("analysis_invalid_json", "city analysis returned no parseable JSON object", nil)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Profile{}, apperrors.Wrap("analysis_invalid_json", "city analysis JSON is not an object", err)
	}

	r.logger.Debug("city analysis parsed", "city", city, "fields", len(fields))
	return normalize(fields, city), nil
}

func collectText(resp gateway.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// normalize replaces every absent, blank, or malformed field with its
// deterministic default and caps list fields.
func normalize(fields map[string]any, city string) Profile {
	fallback := FallbackProfile(city)
	return Profile{
		NativeName:    stringField(fields, "native_name", fallback.NativeName),
		EnglishName:   stringField(fields, "english_name", fallback.EnglishName),
		Skyline:       stringField(fields, "skyline", fallback.Skyline),
		Landmarks:     listField(fields, "landmarks", fallback.Landmarks),
		Styles:        listField(fields, "styles", fallback.Styles),
		Materials:     listField(fields, "materials", fallback.Materials),
		Palette:       listField(fields, "palette", fallback.Palette),
		StreetPattern: stringField(fields, "street_pattern", fallback.StreetPattern),
		WeatherCues:   listField(fields, "weather_cues", fallback.WeatherCues),
		Avoid:         listField(fields, "avoid", fallback.Avoid),
	}
}

func stringField(fields map[string]any, key, fallback string) string {
	value, ok := fields[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func listField(fields map[string]any, key string, fallback []string) []string {
	raw, ok := fields[key].([]any)
	if !ok {
		return fallback
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(s))
		if len(out) == maxListItems {
			break
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func buildAnalysisPrompt(city string) string {
	return fmt.Sprintf(`You have access to Google Search. Research the architecture of %q and respond with ONLY a JSON object (no markdown fences, no prose) matching this schema:
{"native_name":string,"english_name":string,"skyline":string,"landmarks":string[],"styles":string[],"materials":string[],"palette":string[],"street_pattern":string,"weather_cues":string[],"avoid":string[]}
landmarks: up to 8 recognizable structures. styles: dominant architectural styles. materials: typical facade materials. palette: dominant city colors. street_pattern: one sentence on the street layout. weather_cues: how weather visually reads against this city. avoid: visual elements that would misrepresent the city.`, city)
}

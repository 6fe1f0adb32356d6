package geo

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	apperrors "github.com/undownding/city-card/pkg/errors"
)

// Address is the raw reverse-geocoder address object, passed through to the
// consumer, which picks the first usable locality name.
type Address map[string]any

// CityName returns the first non-empty of city, town, village.
func (a Address) CityName() string {
	for _, key := range []string{"city", "town", "village"} {
		if value, ok := a[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// Service exposes reverse geocoding to the HTTP layer.
type Service interface {
	Locate(ctx context.Context, lat, lon string) (Address, error)
}

// GeocodeClient resolves coordinates against the upstream geocoder.
type GeocodeClient interface {
	Reverse(ctx context.Context, lat, lon string) (Address, error)
}

type service struct {
	client GeocodeClient
	logger *slog.Logger
}

// NewService wires up the geocoding domain.
func NewService(client GeocodeClient, logger *slog.Logger) Service {
	return &service{
		client: client,
		logger: logger.With("component", "geo.service"),
	}
}

func (s *service) Locate(ctx context.Context, lat, lon string) (Address, error) {
	lat = strings.TrimSpace(lat)
	lon = strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return nil, apperrors.Wrap("invalid_input", "lat and lon parameters are required", nil)
	}
	if _, err := strconv.ParseFloat(lat, 64); err != nil {
		return nil, apperrors.Wrap("invalid_input", "lat must be a number", err)
	}
	if _, err := strconv.ParseFloat(lon, 64); err != nil {
		return nil, apperrors.Wrap("invalid_input", "lon must be a number", err)
	}

	address, err := s.client.Reverse(ctx, lat, lon)
	if err != nil {
		return nil, apperrors.Wrap("geocode_error", "failed to fetch location data", err)
	}
	s.logger.Debug("reverse geocode resolved", "city", address.CityName())
	return address, nil
}

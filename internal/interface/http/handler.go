package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/undownding/city-card/internal/domain/card"
	"github.com/undownding/city-card/internal/domain/geo"
	apperrors "github.com/undownding/city-card/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	cardSvc card.Service
	geoSvc  geo.Service
	logger  *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cardSvc card.Service, geoSvc geo.Service, logger *slog.Logger) *Handler {
	return &Handler{
		cardSvc: cardSvc,
		geoSvc:  geoSvc,
		logger:  logger.With("component", "http.handler"),
	}
}

// GetImage returns the card URL for a city, generating the card on first use.
func (h *Handler) GetImage(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "City parameter is required", nil))
		return
	}

	result, err := h.cardSvc.GetOrCreateCard(c.Request.Context(), city)
	if err != nil {
		if apperrors.IsCode(err, "invalid_input") {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "generation_failed", "Failed to generate image", err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReverseGeocode proxies coordinate lookups to the upstream geocoder.
func (h *Handler) ReverseGeocode(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	address, err := h.geoSvc.Locate(c.Request.Context(), c.Query("lat"), c.Query("lon"))
	if err != nil {
		switch {
		case apperrors.IsCode(err, "invalid_input"):
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		case apperrors.IsCode(err, "geocode_error"):
			abortWithError(c, NewHTTPError(http.StatusBadGateway, "geocode_error", "Failed to fetch location data", err))
		default:
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, "geocode_error", "Failed to fetch location data", err))
		}
		return
	}

	if address == nil {
		c.JSON(http.StatusOK, gin.H{"address": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address})
}

// CardMeta returns the stored descriptor for today's card, when known.
func (h *Handler) CardMeta(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "City parameter is required", nil))
		return
	}

	desc, found, err := h.cardSvc.CardMeta(c.Request.Context(), city)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "meta_failed", errMessage(err), err))
		return
	}
	if !found {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "no descriptor for today's card", nil))
		return
	}
	c.JSON(http.StatusOK, desc)
}

// RecentCards lists the latest generation records.
func (h *Handler) RecentCards(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a number", err))
		return
	}
	records, err := h.cardSvc.RecentCards(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "audit_failed", errMessage(err), err))
		return
	}
	if records == nil {
		records = []card.GenerationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"cards": records})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

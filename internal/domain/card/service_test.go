package card

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/undownding/city-card/internal/domain/cityprofile"
	"github.com/undownding/city-card/internal/infra/gateway"
	apperrors "github.com/undownding/city-card/pkg/errors"
	"github.com/undownding/city-card/pkg/metrics"
)

var testTime = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func newTestService(blobs *stubBlobStore, model *stubModelClient, profiles ProfileResolver, enrichment bool) (*service, *stubDescriptorStore, *stubGenerationLog) {
	meta := &stubDescriptorStore{entries: make(map[string]Descriptor)}
	audit := &stubGenerationLog{}
	svc := &service{
		cfg: Config{
			ImageModel:    "image-model",
			PromptVersion: "v2",
			CDNBaseURL:    "https://cdn.example.com",
			AspectRatio:   "1:1",
			ImageSize:     "2k",
			Enrichment:    enrichment,
			MetaTTL:       time.Hour,
		},
		blobs:    blobs,
		model:    model,
		profiles: profiles,
		meta:     meta,
		audit:    audit,
		counters: metrics.NewCardMetrics(prometheus.NewRegistry()),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return testTime },
	}
	return svc, meta, audit
}

func validImageResponse() gateway.GenerateContentResponse {
	return gateway.GenerateContentResponse{
		Candidates: []gateway.Candidate{
			{
				Content: gateway.Content{
					Parts: []gateway.Part{
						{InlineData: &gateway.InlineData{MimeType: "image/webp", Data: base64.StdEncoding.EncodeToString([]byte("card-bytes"))}},
						{Text: `{"city_slug":"paris","resolved_name":"Paris","condition":"Ensoleillé","icon":"☀️","temp_min":12,"temp_max":24,"current_temp":19}`},
					},
				},
			},
		},
	}
}

func TestGetOrCreateCardRejectsBlankCity(t *testing.T) {
	svc, _, _ := newTestService(&stubBlobStore{}, &stubModelClient{}, &stubResolver{}, false)

	_, err := svc.GetOrCreateCard(context.Background(), "   ")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestGetOrCreateCardCacheHitSkipsGeneration(t *testing.T) {
	blobs := &stubBlobStore{exists: true}
	model := &stubModelClient{resp: validImageResponse()}
	svc, _, audit := newTestService(blobs, model, &stubResolver{}, true)

	result, err := svc.GetOrCreateCard(context.Background(), "Paris")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/2024-07/01/v2/paris.webp", result.ImageURL)
	require.Zero(t, model.calls)
	require.Zero(t, blobs.putCalls)
	require.Empty(t, audit.records)
}

func TestGetOrCreateCardGeneratesOnMiss(t *testing.T) {
	blobs := &stubBlobStore{}
	model := &stubModelClient{resp: validImageResponse()}
	resolver := &stubResolver{profile: cityprofile.FallbackProfile("Paris")}
	svc, meta, audit := newTestService(blobs, model, resolver, true)

	result, err := svc.GetOrCreateCard(context.Background(), "Paris")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/2024-07/01/v2/paris.webp", result.ImageURL)

	require.Equal(t, 1, model.calls)
	require.Equal(t, "image-model", model.lastModel)
	require.NotEmpty(t, model.lastReq.Tools)
	require.Equal(t, []string{"IMAGE"}, model.lastReq.GenerationConfig.ResponseModalities)

	require.Equal(t, 1, blobs.putCalls)
	require.Equal(t, "2024-07/01/v2/paris.webp", blobs.putKey)
	require.Equal(t, "image/webp", blobs.putMime)
	require.Equal(t, []byte("card-bytes"), blobs.putData)

	require.Equal(t, 1, resolver.calls)
	require.Len(t, audit.records, 1)
	require.Equal(t, "paris", audit.records[0].Slug)

	desc, found, err := meta.Get(context.Background(), blobs.putKey)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Paris", desc.ResolvedName)
}

func TestGetOrCreateCardUnversionedLayout(t *testing.T) {
	blobs := &stubBlobStore{}
	model := &stubModelClient{resp: validImageResponse()}
	svc, _, _ := newTestService(blobs, model, &stubResolver{}, false)
	svc.cfg.PromptVersion = ""

	result, err := svc.GetOrCreateCard(context.Background(), "Paris")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/2024-07/01/paris.webp", result.ImageURL)
	require.Equal(t, "2024-07/01/paris.webp", blobs.putKey)
}

func TestGetOrCreateCardAnalysisFailureFallsBack(t *testing.T) {
	blobs := &stubBlobStore{}
	model := &stubModelClient{resp: validImageResponse()}
	resolver := &stubResolver{err: apperrors.Wrap("analysis_transport", "boom", nil)}
	svc, _, _ := newTestService(blobs, model, resolver, true)

	_, err := svc.GetOrCreateCard(context.Background(), "Paris")
	require.NoError(t, err)
	require.Equal(t, 1, resolver.calls)
	require.Equal(t, 1, model.calls)
	require.Equal(t, 1, blobs.putCalls)
	// prompt still carries the fallback profile facts
	require.Contains(t, model.lastReq.Contents[0].Parts[0].Text, "City reference")
}

func TestGetOrCreateCardEnrichmentDisabled(t *testing.T) {
	blobs := &stubBlobStore{}
	model := &stubModelClient{resp: validImageResponse()}
	resolver := &stubResolver{}
	svc, _, _ := newTestService(blobs, model, resolver, false)

	_, err := svc.GetOrCreateCard(context.Background(), "Paris")
	require.NoError(t, err)
	require.Zero(t, resolver.calls)
	require.NotContains(t, model.lastReq.Contents[0].Parts[0].Text, "City reference")
}

func TestGetOrCreateCardCollapsesConcurrentMisses(t *testing.T) {
	blobs := &stubBlobStore{}
	model := &stubModelClient{resp: validImageResponse(), delay: 50 * time.Millisecond}
	svc, _, audit := newTestService(blobs, model, &stubResolver{}, false)

	const workers = 8
	results := make([]Result, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetOrCreateCard(context.Background(), "Paris")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "https://cdn.example.com/2024-07/01/v2/paris.webp", results[i].ImageURL)
	}
	require.Equal(t, 1, model.calls)
	require.Equal(t, 1, blobs.putCalls)
	require.Len(t, audit.records, 1)
}

func TestGetOrCreateCardUpstreamFailure(t *testing.T) {
	blobs := &stubBlobStore{}
	model := &stubModelClient{err: errors.New("gateway down")}
	svc, _, _ := newTestService(blobs, model, &stubResolver{}, false)

	_, err := svc.GetOrCreateCard(context.Background(), "Paris")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "upstream_error"))
	require.Zero(t, blobs.putCalls)
}

func TestGetOrCreateCardMalformedResponse(t *testing.T) {
	blobs := &stubBlobStore{}
	model := &stubModelClient{resp: gateway.GenerateContentResponse{
		Candidates: []gateway.Candidate{
			{Content: gateway.Content{Parts: []gateway.Part{{Text: "text only, no image"}}}},
		},
	}}
	svc, _, _ := newTestService(blobs, model, &stubResolver{}, false)

	_, err := svc.GetOrCreateCard(context.Background(), "Paris")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "malformed_response"))
	require.Zero(t, blobs.putCalls)
}

func TestGetOrCreateCardNormalizesMime(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	blobs := &stubBlobStore{}
	model := &stubModelClient{resp: gateway.GenerateContentResponse{
		Candidates: []gateway.Candidate{
			{Content: gateway.Content{Parts: []gateway.Part{
				{InlineData: &gateway.InlineData{MimeType: "image/png", Data: payload}},
			}}},
		},
	}}
	svc, _, _ := newTestService(blobs, model, &stubResolver{}, false)
	svc.cfg.NormalizeWebP = true
	svc.convert = &stubNormalizer{out: []byte("webp-bytes")}

	_, err := svc.GetOrCreateCard(context.Background(), "Paris")
	require.NoError(t, err)
	require.Equal(t, "image/webp", blobs.putMime)
	require.Equal(t, []byte("webp-bytes"), blobs.putData)
}

func TestCardMeta(t *testing.T) {
	blobs := &stubBlobStore{}
	model := &stubModelClient{resp: validImageResponse()}
	svc, meta, _ := newTestService(blobs, model, &stubResolver{}, false)

	_, found, err := svc.CardMeta(context.Background(), "Paris")
	require.NoError(t, err)
	require.False(t, found)

	meta.entries["2024-07/01/v2/paris.webp"] = Descriptor{ObjectKey: "2024-07/01/v2/paris.webp", ResolvedName: "Paris"}

	desc, found, err := svc.CardMeta(context.Background(), "Paris")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Paris", desc.ResolvedName)

	_, _, err = svc.CardMeta(context.Background(), " ")
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

type stubBlobStore struct {
	mu        sync.Mutex
	exists    bool
	headErr   error
	headCalls int
	putCalls  int
	putKey    string
	putMime   string
	putData   []byte
	putErr    error
}

func (s *stubBlobStore) Head(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headCalls++
	if s.headErr != nil {
		return false, s.headErr
	}
	if s.exists {
		return true, nil
	}
	return s.putCalls > 0 && s.putKey == key, nil
}

func (s *stubBlobStore) Put(_ context.Context, key string, data []byte, mimeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	s.putKey = key
	s.putData = data
	s.putMime = mimeType
	return s.putErr
}

type stubModelClient struct {
	mu        sync.Mutex
	resp      gateway.GenerateContentResponse
	err       error
	delay     time.Duration
	calls     int
	lastModel string
	lastReq   gateway.GenerateContentRequest
}

func (s *stubModelClient) GenerateContent(_ context.Context, model string, req gateway.GenerateContentRequest) (gateway.GenerateContentResponse, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastModel = model
	s.lastReq = req
	if s.err != nil {
		return gateway.GenerateContentResponse{}, s.err
	}
	return s.resp, nil
}

type stubResolver struct {
	profile cityprofile.Profile
	err     error
	calls   int
}

func (s *stubResolver) Analyze(_ context.Context, city string) (cityprofile.Profile, error) {
	s.calls++
	if s.err != nil {
		return cityprofile.Profile{}, s.err
	}
	if s.profile.NativeName == "" {
		return cityprofile.FallbackProfile(city), nil
	}
	return s.profile, nil
}

type stubDescriptorStore struct {
	mu      sync.Mutex
	entries map[string]Descriptor
}

func (s *stubDescriptorStore) Save(_ context.Context, d Descriptor, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[d.ObjectKey] = d
	return nil
}

func (s *stubDescriptorStore) Get(_ context.Context, objectKey string) (Descriptor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.entries[objectKey]
	return d, ok, nil
}

type stubGenerationLog struct {
	mu      sync.Mutex
	records []GenerationRecord
}

func (s *stubGenerationLog) Record(_ context.Context, rec GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *stubGenerationLog) Recent(_ context.Context, limit int) ([]GenerationRecord, error) {
	if limit > len(s.records) {
		limit = len(s.records)
	}
	return s.records[:limit], nil
}

type stubNormalizer struct {
	out []byte
	err error
}

func (s *stubNormalizer) EnsureWebP(_ []byte, _ string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.out, "image/webp", nil
}

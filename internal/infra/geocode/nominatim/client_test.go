package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReverseSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reverse", r.URL.Path)
		query := r.URL.Query()
		require.Equal(t, "json", query.Get("format"))
		require.Equal(t, "48.8566", query.Get("lat"))
		require.Equal(t, "2.3522", query.Get("lon"))
		require.Equal(t, "10", query.Get("zoom"))
		require.Equal(t, "1", query.Get("addressdetails"))
		require.Equal(t, "city-card/1.0", r.Header.Get("User-Agent"))

		w.Write([]byte(`{"address":{"city":"Paris","country":"France"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, UserAgent: "city-card/1.0"})

	address, err := client.Reverse(context.Background(), "48.8566", "2.3522")
	require.NoError(t, err)
	require.Equal(t, "Paris", address.CityName())
	require.Equal(t, "France", address["country"])
}

func TestReverseRetriesTransientFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"address":{"town":"Giverny"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	address, err := client.Reverse(context.Background(), "49.0756", "1.5339")
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, "Giverny", address.CityName())
}

func TestReverseGivesUpAfterRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Reverse(context.Background(), "1", "2")
	require.Error(t, err)
	require.Equal(t, 3, calls)
	require.Contains(t, err.Error(), "status=502")
}

func TestReverseClientErrorFailsFast(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Reverse(context.Background(), "999", "999")
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Contains(t, err.Error(), "status=400")
}

func TestReverseMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Reverse(context.Background(), "1", "2")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode reverse geocode response")
}

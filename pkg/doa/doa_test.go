package doa

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	t.Run("numeric coercion", func(t *testing.T) {
		reading, err := ParseCSV(strings.NewReader("bearing,confidence\n135,0.92"))
		require.NoError(t, err)
		assert.Equal(t, 135.0, reading["bearing"])
		assert.Equal(t, 0.92, reading["confidence"])
	})

	t.Run("text fields stay text, unknown columns preserved", func(t *testing.T) {
		csv := "Epoch Time,Max DOA Angle (Degrees),Station ID,Firmware Extra\n" +
			"1735689600000,135.5,NOCALL,whatever"
		reading, err := ParseCSV(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1735689600000.0, reading["Epoch Time"])
		assert.Equal(t, 135.5, reading["Max DOA Angle (Degrees)"])
		assert.Equal(t, "NOCALL", reading["Station ID"])
		assert.Equal(t, "whatever", reading["Firmware Extra"])
	})

	t.Run("column count mismatch", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("bearing,confidence\n135"))
		assert.True(t, errors.Is(err, ErrMalformed), "got: %v", err)

		_, err = ParseCSV(strings.NewReader("bearing\n135,0.92"))
		assert.True(t, errors.Is(err, ErrMalformed), "got: %v", err)
	})

	t.Run("missing rows", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""))
		assert.True(t, errors.Is(err, ErrMalformed))

		_, err = ParseCSV(strings.NewReader("bearing,confidence\n"))
		assert.True(t, errors.Is(err, ErrMalformed))
	})
}

func TestFetch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("bearing,confidence\n135,0.92"))
		}))
		defer server.Close()

		bridge := NewBridge(server.URL, time.Second)
		reading, err := bridge.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 135.0, reading["bearing"])
	})

	t.Run("endpoint down", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		bridge := NewBridge(server.URL, time.Second)
		_, err := bridge.Fetch(context.Background())
		assert.True(t, errors.Is(err, ErrUnavailable), "got: %v", err)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		bridge := NewBridge(server.URL, time.Second)
		_, err := bridge.Fetch(context.Background())
		assert.True(t, errors.Is(err, ErrUnavailable), "got: %v", err)
	})

	t.Run("slow endpoint times out", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		bridge := NewBridge(server.URL, 50*time.Millisecond)
		start := time.Now()
		_, err := bridge.Fetch(context.Background())
		assert.True(t, errors.Is(err, ErrUnavailable), "got: %v", err)
		assert.Less(t, time.Since(start), 2*time.Second, "fetch did not respect its timeout")
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("bearing,confidence\n135,0.92,extra"))
		}))
		defer server.Close()

		bridge := NewBridge(server.URL, time.Second)
		_, err := bridge.Fetch(context.Background())
		assert.True(t, errors.Is(err, ErrMalformed), "got: %v", err)
	})
}

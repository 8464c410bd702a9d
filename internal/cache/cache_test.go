package cache

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flood-geoservice/internal/models"
	"flood-geoservice/internal/observability"
)

func testEnvelope(body string) models.ResponseEnvelope {
	return models.ResponseEnvelope{
		Status: 200,
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   []byte(body),
	}
}

func TestCache(t *testing.T) {
	t.Run("put then get returns the same envelope", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		c := New(5*time.Minute, clock, observability.NewMetricsForTesting())

		env := testEnvelope(`{"a":1}`)
		c.Put("/api/v1/flood-areas", env)

		got, ok := c.Get("/api/v1/flood-areas")
		require.True(t, ok)
		assert.Equal(t, env, got)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		c := New(5*time.Minute, clock, observability.NewMetricsForTesting())

		c.Put("sig", testEnvelope("x"))
		clock.Advance(5 * time.Minute)

		_, ok := c.Get("sig")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len(), "expired entry is removed on read")
	})

	t.Run("entry survives until the TTL elapses", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		c := New(5*time.Minute, clock, observability.NewMetricsForTesting())

		c.Put("sig", testEnvelope("x"))
		clock.Advance(5*time.Minute - time.Second)

		_, ok := c.Get("sig")
		assert.True(t, ok)
	})

	t.Run("put overwrites wholesale and restarts the lifetime", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		c := New(5*time.Minute, clock, observability.NewMetricsForTesting())

		c.Put("sig", testEnvelope("old"))
		clock.Advance(4 * time.Minute)
		c.Put("sig", testEnvelope("new"))
		clock.Advance(4 * time.Minute)

		got, ok := c.Get("sig")
		require.True(t, ok)
		assert.Equal(t, "new", string(got.Body))
	})

	t.Run("sweep drops only expired entries", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		c := New(5*time.Minute, clock, observability.NewMetricsForTesting())

		c.Put("old", testEnvelope("x"))
		clock.Advance(3 * time.Minute)
		c.Put("fresh", testEnvelope("y"))
		clock.Advance(2 * time.Minute)

		assert.Equal(t, 1, c.Sweep())
		assert.Equal(t, 1, c.Len())
		_, ok := c.Get("fresh")
		assert.True(t, ok)
	})
}

func TestSignature(t *testing.T) {
	t.Run("path only", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/flood-areas", nil)
		assert.Equal(t, "/api/v1/flood-areas", Signature(r))
	})

	t.Run("query string kept verbatim", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/flood-areas?format=cap&x=1", nil)
		assert.Equal(t, "/api/v1/flood-areas?format=cap&x=1", Signature(r))
	})

	t.Run("parameter order is significant", func(t *testing.T) {
		a := httptest.NewRequest("GET", "/p?a=1&b=2", nil)
		b := httptest.NewRequest("GET", "/p?b=2&a=1", nil)
		assert.NotEqual(t, Signature(a), Signature(b))
	})
}

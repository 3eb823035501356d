package pricing

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, time.Second, log.New(io.Discard, "", 0))
}

func TestPriceInFiat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		assert.Equal(t, "sui", r.URL.Query().Get("ids"))
		assert.Equal(t, "eur", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"sui":{"eur":1.42}}`))
	}))
	defer server.Close()

	price := newTestClient(server.URL).PriceInFiat(context.Background(), "sui", "eur")
	assert.Equal(t, 1.42, price)
}

func TestPriceInFiat_ServerErrorYieldsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	price := newTestClient(server.URL).PriceInFiat(context.Background(), "sui", "eur")
	assert.Zero(t, price)
}

func TestPriceInFiat_MalformedBodyYieldsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	price := newTestClient(server.URL).PriceInFiat(context.Background(), "sui", "eur")
	assert.Zero(t, price)
}

func TestPriceInFiat_UnreachableEndpointYieldsZero(t *testing.T) {
	price := newTestClient("http://127.0.0.1:1").PriceInFiat(context.Background(), "sui", "eur")
	assert.Zero(t, price)
}

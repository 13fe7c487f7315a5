package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Totarae/relay/internal/downstream"
	"github.com/Totarae/relay/internal/relay"
)

// fakeDownstream запоминает тела исходящих запросов
type fakeDownstream struct {
	mu     sync.Mutex
	bodies []string
}

func (f *fakeDownstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies = append(f.bodies, string(b))
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeDownstream) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

func newTestHandler(t *testing.T, downstreamURL string) *Handler {
	t.Helper()
	fwd := downstream.NewHTTPForwarder(downstreamURL, time.Second, zap.NewNop())
	return NewHandler(relay.NewRelayService(fwd, zap.NewNop(), nil), zap.NewNop())
}

func doRelay(h *Handler, body string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Relay(w, req)
	return w.Result()
}

func TestRelay_Success(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantBody     string
		wantUpstream string
	}{
		{name: "doubles positive", body: `{"duration": 5}`, wantBody: `{"status":"success","result":10}`, wantUpstream: `{"duration":10}`},
		{name: "missing field", body: `{}`, wantBody: `{"status":"success","result":0}`, wantUpstream: `{"duration":0}`},
		{name: "doubles negative", body: `{"duration": -3}`, wantBody: `{"status":"success","result":-6}`, wantUpstream: `{"duration":-6}`},
		{name: "fraction", body: `{"duration": 1.25}`, wantBody: `{"status":"success","result":2.5}`, wantUpstream: `{"duration":2.5}`},
		{name: "integer above 2^53", body: `{"duration": 9007199254740993}`, wantBody: `{"status":"success","result":18014398509481986}`, wantUpstream: `{"duration":18014398509481986}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDownstream{}
			srv := httptest.NewServer(fake)
			defer srv.Close()

			resp := doRelay(newTestHandler(t, srv.URL+"/"), tt.body)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.wantBody, string(body))

			received := fake.received()
			require.Len(t, received, 1)
			assert.Equal(t, tt.wantUpstream, received[0])
		})
	}
}

func TestRelay_InvalidInput(t *testing.T) {
	bodies := []string{
		`not json`,
		``,
		`{"duration": {"a": 1}}`,
		`{"duration": [1, 2]}`,
		`{"duration": "5"}`,
		`{"duration": null}`,
		`[{"duration": 1}]`,
	}

	fake := &fakeDownstream{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	h := newTestHandler(t, srv.URL)

	for _, b := range bodies {
		resp := doRelay(h, b)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, b)
		assert.Equal(t, InvalidInputMessage, string(body), b)
		assert.NotContains(t, resp.Header.Get("Content-Type"), "application/json", b)
	}

	assert.Empty(t, fake.received(), "invalid input must not be forwarded")
}

func TestRelay_DownstreamUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	resp := doRelay(newTestHandler(t, url), `{"duration": 21}`)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"success","result":42}`, string(body))
}

func TestRelay_Idempotent(t *testing.T) {
	fake := &fakeDownstream{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	h := newTestHandler(t, srv.URL)

	var first string
	for i := 0; i < 5; i++ {
		resp := doRelay(h, `{"duration": 4}`)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if i == 0 {
			first = string(body)
		}
		assert.Equal(t, first, string(body))
	}
	assert.Len(t, fake.received(), 5)
}

type failingRelayer struct{}

func (failingRelayer) Relay(context.Context, []byte) (relay.Result, error) {
	return relay.Result{}, errors.New("unexpected")
}

func TestRelay_UnexpectedError(t *testing.T) {
	h := NewHandler(failingRelayer{}, nil)
	resp := doRelay(h, `{"duration": 1}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestPing(t *testing.T) {
	h := NewHandler(failingRelayer{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	h.Ping(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

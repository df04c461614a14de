package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/scrypster/ephemera/internal/client"
	"github.com/scrypster/ephemera/pkg/types"
	"github.com/scrypster/ephemera/web/handlers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

var samplePayload = types.StatePayload{
	PendingQuestion: &types.QuestionPayload{ID: 3, Text: "What felt new today?"},
	MemoriesCount:   2,
	State:           types.MoodPayload{Mood: "curious", Curiosity: 0.5},
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/state", r.URL.Path)
		assert.Equal(t, "no-store", r.Header.Get("Cache-Control"))
		_ = json.NewEncoder(w).Encode(samplePayload)
	}))
	defer srv.Close()

	got, err := client.New(srv.URL + "/").FetchState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, samplePayload, *got)
}

func TestPostReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/reply", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req types.ReplyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(3), req.QuestionID)
		assert.Equal(t, "the river was loud", req.Text)

		_ = json.NewEncoder(w).Encode(samplePayload)
	}))
	defer srv.Close()

	got, err := client.New(srv.URL).PostReply(context.Background(), 3, "the river was loud")
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemoriesCount)
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		reason  string
	}{
		{"json error body", http.StatusBadRequest, `{"error":"text must be provided","code":"Bad Request"}` + "\n",
			`{"error":"text must be provided","code":"Bad Request"}`, "text must be provided"},
		{"plain text body", http.StatusBadGateway, "upstream down\n", "upstream down", ""},
		{"empty body", http.StatusServiceUnavailable, "", "Request failed with status 503", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := client.New(srv.URL).FetchState(context.Background())
			require.Error(t, err)

			var apiErr *client.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Error())
			assert.Equal(t, tt.reason, apiErr.Reason)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, apiErr.Friendly())
			} else {
				assert.Equal(t, tt.message, apiErr.Friendly())
			}
		})
	}
}

func TestSeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/seed", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(samplePayload)
	}))
	defer srv.Close()

	got, err := client.New(srv.URL).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "curious", got.State.Mood)
}

func TestPoller_ImmediateAndPeriodic(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(samplePayload)
	}))
	defer srv.Close()

	states := make(chan types.StatePayload, 16)
	p, err := client.NewPoller(client.New(srv.URL), 20*time.Millisecond, func(s types.StatePayload) {
		select {
		case states <- s:
		default:
		}
	}, nil, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case s := <-states:
			assert.Equal(t, int64(3), s.PendingQuestion.ID)
		case <-time.After(2 * time.Second):
			t.Fatal("poller did not deliver state")
		}
	}
	cancel()
	<-done
	assert.GreaterOrEqual(t, hits.Load(), int32(3))
}

func TestPoller_ReportsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	errs := make(chan error, 4)
	p, err := client.NewPoller(client.New(srv.URL), time.Hour, nil, func(err error) {
		select {
		case errs <- err:
		default:
		}
	}, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-errs:
		assert.EqualError(t, err, "Request failed with status 500")
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not report error")
	}
	cancel()
	<-done
}

func TestStreamURL(t *testing.T) {
	assert.Equal(t, "ws://127.0.0.1:8101/ws", client.New("http://127.0.0.1:8101/").StreamURL())
	assert.Equal(t, "wss://lifeform.example/ws", client.New("https://lifeform.example").StreamURL())
}

func TestSubscribe_ReceivesStateEvents(t *testing.T) {
	hub := handlers.NewWebSocketHub(nil, quietLogger())
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan types.StatePayload, 1)
	done := make(chan error, 1)
	go func() {
		done <- client.New(srv.URL).Subscribe(ctx, func(s types.StatePayload) {
			received <- s
			cancel()
		})
	}()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.NotifyState(context.Background(), samplePayload)

	select {
	case s := <-received:
		assert.Equal(t, samplePayload, s)
	case <-time.After(2 * time.Second):
		t.Fatal("no state event received")
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}

func TestSubscribe_DialFailure(t *testing.T) {
	err := client.New("http://127.0.0.1:1").Subscribe(context.Background(), nil)
	assert.Error(t, err)
}

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/example/duty-bot/internal/config"
	httptransport "github.com/example/duty-bot/internal/http"
)

type fakeVK struct {
	mu   sync.Mutex
	sent []url.Values
}

func (f *fakeVK) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch strings.TrimPrefix(r.URL.Path, "/") {
	case "groups.getById":
		_, _ = io.WriteString(w, `{"response":[{"id":777}]}`)
	case "users.get":
		_, _ = io.WriteString(w, `{"response":[{"id":100,"first_name":"Иван","last_name":"Петров"}]}`)
	case "messages.send":
		f.mu.Lock()
		f.sent = append(f.sent, r.PostForm)
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"response":1}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeVK) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, form := range f.sent {
		out[i] = form.Get("message")
	}
	return out
}

func testConfig(t *testing.T, apiURL string) config.Config {
	t.Helper()
	return config.Config{
		DataDir:           t.TempDir(),
		VKToken:           "token",
		VKAPIVersion:      "5.103",
		VKAPIURL:          apiURL,
		CallbackSecret:    "secret",
		ConfirmationToken: "confirm-me",
		BootstrapAdmin:    100,
		Floor:             config.DefaultFloor(),
		RateLimit:         100,
		RateBurst:         100,
	}
}

func callback(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, httptransport.CallbackPath, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestNewAppEndToEnd(t *testing.T) {
	vkServer := &fakeVK{}
	server := httptest.NewServer(vkServer)
	defer server.Close()

	cfg := testConfig(t, server.URL)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("newApp returned error: %v", err)
	}
	defer a.Close()

	if a.groupID != 777 {
		t.Fatalf("groupID = %d, want 777 from groups.getById", a.groupID)
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, "777.sqlite")); err != nil {
		t.Fatalf("expected per-community database: %v", err)
	}

	if rec := callback(t, a.handler, `{"type":"confirmation","group_id":777}`); rec.Body.String() != "confirm-me" {
		t.Fatalf("confirmation body = %q", rec.Body.String())
	}

	messages := []string{
		`{"type":"message_new","group_id":777,"secret":"secret","object":{"message":{"peer_id":2000000001,"from_id":100,"text":"-602-638"}}}`,
		`{"type":"message_new","group_id":777,"secret":"secret","object":{"message":{"peer_id":2000000001,"from_id":5,"text":"+602"}}}`,
		`{"type":"message_new","group_id":777,"secret":"secret","object":{"message":{"peer_id":2000000001,"from_id":5,"text":"список"}}}`,
		`{"type":"message_new","group_id":777,"secret":"secret","object":{"message":{"peer_id":2000000001,"from_id":5,"text":"когда 601"}}}`,
	}
	for _, body := range messages {
		if rec := callback(t, a.handler, body); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Fatalf("callback %s = %d %q", body, rec.Code, rec.Body.String())
		}
	}

	sent := vkServer.messages()
	want := []string{
		"➖ Убраны комнаты: " + joinRange(602, 638),
		"📋 Дежурящие комнаты:\n| 601 | ___ |",
		"601 комната дежурит сегодня",
	}
	if len(sent) != len(want) {
		t.Fatalf("sent %d messages, want %d: %q", len(sent), len(want), sent)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, sent[i], want[i])
		}
	}
}

func TestNewAppReopensExistingState(t *testing.T) {
	server := httptest.NewServer(&fakeVK{})
	defer server.Close()

	cfg := testConfig(t, server.URL)
	cfg.GroupID = 42
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for i := 0; i < 2; i++ {
		a, err := newApp(context.Background(), cfg, logger)
		if err != nil {
			t.Fatalf("newApp run %d returned error: %v", i, err)
		}
		a.Close()
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, "42.sqlite")); err != nil {
		t.Fatalf("expected configured community database: %v", err)
	}
}

func TestNewAppFailsOnUnreachableRedis(t *testing.T) {
	server := httptest.NewServer(&fakeVK{})
	defer server.Close()

	cfg := testConfig(t, server.URL)
	cfg.GroupID = 1
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	if _, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

func joinRange(first, last int) string {
	var sb strings.Builder
	for room := first; room <= last; room++ {
		if room > first {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(room))
	}
	return sb.String()
}

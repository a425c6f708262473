package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/example/duty-bot/internal/bot"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testGroupID      = 193328432
	testSecret       = "callback-secret"
	testConfirmation = "a1b2c3d4"
)

type stubBot struct {
	mu       sync.Mutex
	received []bot.Incoming
	err      error
}

func (s *stubBot) HandleMessage(_ context.Context, in bot.Incoming) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, in)
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(b *stubBot, signingSecret string, limiter *RateLimiter) http.Handler {
	handler := NewCallbackHandler(CallbackConfig{
		GroupID:           testGroupID,
		Secret:            testSecret,
		ConfirmationToken: testConfirmation,
	}, b, discardLogger())
	return NewRouter(RouterConfig{
		Callback:      handler,
		Metrics:       http.NotFoundHandler(),
		Limiter:       limiter,
		SigningSecret: signingSecret,
		Logger:        discardLogger(),
	})
}

func post(t *testing.T, router http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, CallbackPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestCallbackHandler(t *testing.T) {
	t.Parallel()

	messageBody := `{"type":"message_new","group_id":193328432,"secret":"callback-secret","object":{"message":{"peer_id":2000000001,"from_id":100,"text":"когда 610","payload":"{\"command\":\"main\"}"}}}`

	tests := []struct {
		name       string
		body       string
		botErr     error
		wantStatus int
		wantBody   string
		wantCalls  []bot.Incoming
	}{
		{
			name:       "confirmation",
			body:       `{"type":"confirmation","group_id":193328432}`,
			wantStatus: http.StatusOK,
			wantBody:   testConfirmation,
		},
		{
			name:       "confirmation for another group needs the secret",
			body:       `{"type":"confirmation","group_id":1}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   http.StatusText(http.StatusUnauthorized),
		},
		{
			name:       "wrong secret",
			body:       `{"type":"message_new","group_id":193328432,"secret":"nope","object":{"message":{"peer_id":1,"from_id":1,"text":"список"}}}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   http.StatusText(http.StatusUnauthorized),
		},
		{
			name:       "malformed body",
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   http.StatusText(http.StatusBadRequest),
		},
		{
			name:       "message dispatched",
			body:       messageBody,
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantCalls:  []bot.Incoming{{PeerID: 2000000001, FromID: 100, Text: "когда 610", Payload: `{"command":"main"}`}},
		},
		{
			name:       "invite action",
			body:       `{"type":"message_new","group_id":193328432,"secret":"callback-secret","object":{"message":{"peer_id":5,"from_id":100,"text":"","action":{"type":"chat_invite_user","member_id":-193328432}}}}`,
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantCalls:  []bot.Incoming{{PeerID: 5, FromID: 100, Invited: true}},
		},
		{
			name:       "other events are acknowledged",
			body:       `{"type":"message_reply","group_id":193328432,"secret":"callback-secret","object":{}}`,
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "handler failure",
			body:       messageBody,
			botErr:     errors.New("database is locked"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   http.StatusText(http.StatusInternalServerError),
			wantCalls:  []bot.Incoming{{PeerID: 2000000001, FromID: 100, Text: "когда 610", Payload: `{"command":"main"}`}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := &stubBot{err: tc.botErr}
			recorder := post(t, newTestRouter(b, "", nil), tc.body, nil)

			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", recorder.Code, tc.wantStatus, recorder.Body.String())
			}
			if got := recorder.Body.String(); got != tc.wantBody {
				t.Fatalf("body = %q, want %q", got, tc.wantBody)
			}
			if diff := cmp.Diff(tc.wantCalls, b.received); diff != "" {
				t.Fatalf("dispatched messages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouterIndexAndRequestID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubBot{}, "", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusOK || recorder.Body.String() != "Hello, world!" {
		t.Fatalf("GET / = %d %q", recorder.Code, recorder.Body.String())
	}
	if recorder.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, CallbackPath, nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET %s = %d, want 405", CallbackPath, recorder.Code)
	}
}

func sign(algorithm string, body, secret string) string {
	newHash := sha256.New
	if algorithm == "sha1" {
		newHash = sha1.New
	}
	mac := hmac.New(newHash, []byte(secret))
	mac.Write([]byte(body))
	return algorithm + "=" + hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerification(t *testing.T) {
	t.Parallel()

	const signingSecret = "hub-secret"
	body := `{"type":"confirmation","group_id":193328432}`

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		recorder := post(t, newTestRouter(&stubBot{}, signingSecret, nil), body, map[string]string{SignatureHeader: sign("sha256", body, signingSecret)})
		if recorder.Code != http.StatusOK || recorder.Body.String() != testConfirmation {
			t.Fatalf("got %d %q", recorder.Code, recorder.Body.String())
		}
	})

	for name, header := range map[string]string{
		"missing":     "",
		"wrong key":   sign("sha256", body, "other"),
		"unsupported": "md5=abcdef",
		"not hex":     "sha256=zz",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			headers := map[string]string{}
			if header != "" {
				headers[SignatureHeader] = header
			}
			recorder := post(t, newTestRouter(&stubBot{}, signingSecret, nil), body, headers)
			if recorder.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", recorder.Code)
			}
		})
	}
}

func TestValidSignatureSHA1(t *testing.T) {
	t.Parallel()

	if !ValidSignature(sign("sha1", "payload", "key"), []byte("payload"), "key") {
		t.Fatal("sha1 signature rejected")
	}
	if !ValidSignature(strings.ToUpper(sign("sha1", "payload", "key")[:4])+sign("sha1", "payload", "key")[4:], []byte("payload"), "key") {
		t.Fatal("algorithm name must be case insensitive")
	}
	if ValidSignature(sign("sha1", "payload", "key"), []byte("tampered"), "key") {
		t.Fatal("signature of another body accepted")
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(1, 2)
	router := newTestRouter(&stubBot{}, "", limiter)
	body := `{"type":"confirmation","group_id":193328432}`

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, post(t, router, body, nil).Code)
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Fatalf("status codes mismatch (-want +got):\n%s", diff)
	}

	if !limiter.Allow("198.51.100.7") {
		t.Fatal("a different client must have its own bucket")
	}
}

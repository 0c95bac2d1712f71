package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// withLogBuffer swaps the global logger for one writing JSON lines to a buffer.
func withLogBuffer(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

// accessLines decodes the "request" lines written by Logger.
func accessLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line is not JSON: %q", line)
		}
		if m["message"] == "request" {
			out = append(out, m)
		}
	}
	return out
}

func scoresEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(), Recovery())
	r.GET("/hanoi/api/v1/scores", func(c *gin.Context) { c.String(http.StatusOK, "[]") })
	r.POST("/hanoi/api/v1/scores", func(c *gin.Context) {
		c.String(http.StatusBadRequest, "Json deserialize error: missing field `player`")
	})
	r.GET("/hanoi/api/v1/boom", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "no such table: scores")
	})
	return r
}

func TestRequestID_MintsOrReuses(t *testing.T) {
	r := scoresEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hanoi/api/v1/scores", nil))
	minted := w.Header().Get(requestIDHeader)
	if len(minted) != 36 {
		t.Fatalf("expected a UUID request id, got %q", minted)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/hanoi/api/v1/scores", nil)
	req.Header.Set("x-request-id", "game-42")
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "game-42" {
		t.Fatalf("incoming id not reused: %q", got)
	}
}

func TestLogger_AccessLineFieldsAndLevels(t *testing.T) {
	buf := withLogBuffer(t)
	r := scoresEngine()

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/hanoi/api/v1/scores?x=1"},
		{http.MethodPost, "/hanoi/api/v1/scores"},
		{http.MethodGet, "/hanoi/api/v1/boom"},
		{http.MethodGet, "/nowhere"},
	} {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		req.Header.Set(requestIDHeader, "rid-"+tc.method)
		req.Header.Set("Referer", "http://game.test/")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	lines := accessLines(t, buf)
	if len(lines) != 4 {
		t.Fatalf("expected 4 access lines, got %d:\n%s", len(lines), buf.String())
	}

	want := []struct {
		level, path string
		status      float64
	}{
		{"info", "/hanoi/api/v1/scores", 200},
		{"warn", "/hanoi/api/v1/scores", 400},
		{"error", "/hanoi/api/v1/boom", 500},
		{"warn", "/nowhere", 404},
	}
	for i, w := range want {
		l := lines[i]
		if l["level"] != w.level || l["path"] != w.path || l["status"] != w.status {
			t.Fatalf("line %d = %v; want level=%s path=%s status=%v", i, l, w.level, w.path, w.status)
		}
		for _, k := range []string{"request_id", "method", "latency", "bytes_out", "remote_ip"} {
			if _, ok := l[k]; !ok {
				t.Fatalf("line %d missing %q: %v", i, k, l)
			}
		}
		for _, k := range []string{"user_id", "referer"} {
			if _, ok := l[k]; ok {
				t.Fatalf("line %d carries %q, which this service does not log: %v", i, k, l)
			}
		}
	}
	if lines[0]["query"] != "x=1" || lines[1]["request_id"] != "rid-POST" {
		t.Fatalf("query or request id not recorded: %v / %v", lines[0], lines[1])
	}
}

func TestLogger_ErrorsOnContextForceErrorLevel(t *testing.T) {
	buf := withLogBuffer(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/scores", func(c *gin.Context) {
		_ = c.Error(http.ErrBodyNotAllowed)
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/scores", nil))

	lines := accessLines(t, buf)
	if len(lines) != 1 || lines[0]["level"] != "error" || lines[0]["errors"] == nil {
		t.Fatalf("expected one error line with errors field, got %v", lines)
	}
}

func TestLoggerFrom_RequestScopedUnderLoggerKey(t *testing.T) {
	buf := withLogBuffer(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/scores", func(c *gin.Context) {
		v, ok := c.Get(loggerKey)
		if !ok {
			t.Fatalf("no value under %q", loggerKey)
		}
		if v.(*zerolog.Logger) != LoggerFrom(c) {
			t.Fatal("LoggerFrom must return the logger stored by Logger()")
		}
		LoggerFrom(c).Info().Int("disks", 7).Msg("listed")
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/scores", nil)
	req.Header.Set(requestIDHeader, "rid-scoped")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"request_id":"rid-scoped","method":"GET","path":"/scores"`) ||
		!strings.Contains(buf.String(), `"message":"listed"`) {
		t.Fatalf("handler line lacks request fields:\n%s", buf.String())
	}
}

func TestLoggerFrom_FallsBackToGlobal(t *testing.T) {
	buf := withLogBuffer(t)
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	// A wrong type under the key is ignored too.
	c.Set(loggerKey, "not a logger")
	lg := LoggerFrom(c)
	if lg == nil {
		t.Fatal("LoggerFrom returned nil")
	}
	lg.Warn().Msg("fallback")
	if out := buf.String(); !strings.Contains(out, "fallback") || strings.Contains(out, "request_id") {
		t.Fatalf("unexpected fallback output: %s", out)
	}
}

func TestRecovery_PanicBecomesPlainText500(t *testing.T) {
	buf := withLogBuffer(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(), Recovery())
	r.POST("/scores", func(c *gin.Context) { panic("disk stack collapsed") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scores", nil))

	if w.Code != http.StatusInternalServerError || w.Body.String() != panicBody {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type %q", ct)
	}
	out := buf.String()
	if !strings.Contains(out, `"panic":"disk stack collapsed"`) || !strings.Contains(out, `"stack"`) {
		t.Fatalf("panic not logged with stack:\n%s", out)
	}
	if lines := accessLines(t, buf); len(lines) != 1 || lines[0]["status"] != float64(500) {
		t.Fatalf("access line should record the 500: %v", lines)
	}
}

func TestRecovery_PanicAfterWriteKeepsBody(t *testing.T) {
	withLogBuffer(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/scores", func(c *gin.Context) {
		c.String(http.StatusOK, "[]")
		panic("late")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scores", nil))
	if w.Body.String() != "[]" {
		t.Fatalf("body rewritten after panic: %q", w.Body.String())
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"n_turn=12", 64, "n_turn=12"},
		{"n_turn=12", 6, "n_turn…"},
		{"n_turn=12", 0, "n_turn=12"},
		{"", 3, ""},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q; want %q", tc.in, tc.max, got, tc.want)
		}
	}
	if asString(7) != "" || asString("rid") != "rid" {
		t.Fatal("asString mismatch")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabels_InflightAndSize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/scores", func(c *gin.Context) { c.String(http.StatusOK, "[]") })
	r.POST("/scores", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/scores", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404"))
	baseSizeSeries := testutil.CollectAndCount(httpRespSize)

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/scores", http.StatusOK},
		{http.MethodGet, "/a/b/c", http.StatusNotFound},
		{http.MethodGet, "/x/y", http.StatusNotFound},
		{http.MethodPost, "/scores", http.StatusNoContent},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s -> %d; want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/scores", "200")); got != baseOK+1 {
		t.Fatalf("counter GET /scores 200 = %v; want %v", got, baseOK+1)
	}
	// Distinct unknown paths share one series.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404")); got != base404+2 {
		t.Fatalf("counter unmatched 404 = %v; want %v", got, base404+2)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
	if got := testutil.CollectAndCount(httpRespSize); got < baseSizeSeries {
		t.Fatalf("size series shrank: %d < %d", got, baseSizeSeries)
	}
}

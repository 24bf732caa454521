package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_RegistersMetrics はCollector生成時にメトリクスが登録されることを検証する。
func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil collector")
	}

	c.RecordSignup()
	c.RecordLoginSuccess()
	c.RecordLoginFailure("invalid_credentials")
	c.RecordHashLatency(120 * time.Millisecond)
	c.RecordHTTPStatus(http.StatusOK)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Error("expected registered metric families")
	}
}

// TestHandler_ServesMetrics はメトリクスハンドラーが記録済みメトリクスを公開することを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSignup()
	c.RecordLoginFailure("banned")

	handler := Handler(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	if !strings.Contains(bodyStr, "campusmarket_signups_total") {
		t.Error("response should contain campusmarket_signups_total metric")
	}
	if !strings.Contains(bodyStr, `campusmarket_login_fail_total{reason="banned"}`) {
		t.Error("response should contain labelled login failure metric")
	}
}

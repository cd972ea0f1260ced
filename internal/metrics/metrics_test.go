package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCouponValidation(t *testing.T) {
	before := testutil.ToFloat64(couponValidations.WithLabelValues("expired"))
	RecordCouponValidation("expired")
	RecordCouponValidation("expired")
	after := testutil.ToFloat64(couponValidations.WithLabelValues("expired"))
	if after-before != 2 {
		t.Fatalf("expired counter should grow by 2, got %v", after-before)
	}
}

func TestHandlerExposesCouponMetrics(t *testing.T) {
	RecordCouponRedemption("recorded")
	ObserveHTTPRequest(http.MethodPost, "/api/v1/cms/coupons/validate", http.StatusOK, 15*time.Millisecond)
	done := TrackInFlight()
	done()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics handler status want 200 got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{
		"vitrine_coupon_redemptions_total",
		"vitrine_http_requests_total",
		"vitrine_http_request_duration_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output should contain %s", name)
		}
	}
}

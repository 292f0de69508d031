package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/STTM-NSU/futures-screener/internal/logger"
	"github.com/STTM-NSU/futures-screener/internal/model"
	"github.com/bytedance/sonic"
)

type staticReports struct {
	report model.Report
	ok     bool
}

func (s staticReports) Latest() (model.Report, bool) {
	return s.report, s.ok
}

func TestReportEndpointNoRunYet(t *testing.T) {
	router := NewRouter(staticReports{}, logger.NewNopLogger())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestReportEndpoint(t *testing.T) {
	report := model.Report{
		Balance:     5000,
		GeneratedAt: time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC),
		Records: []model.ScreeningRecord{
			{FIGI: "FUTTBH60000", Ticker: "TBH6", MarginPerLot: 37.5, Score: 81.2},
		},
	}
	router := NewRouter(staticReports{report: report, ok: true}, logger.NewNopLogger())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got model.Report
	if err := sonic.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("can't unmarshal response: %s", err)
	}
	if len(got.Records) != 1 || got.Records[0].Ticker != "TBH6" {
		t.Errorf("unexpected report: %+v", got)
	}
}

func TestHealthz(t *testing.T) {
	router := NewRouter(staticReports{}, logger.NewNopLogger())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

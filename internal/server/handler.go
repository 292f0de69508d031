package server

import (
	"net/http"

	"github.com/STTM-NSU/futures-screener/internal/logger"
	"github.com/STTM-NSU/futures-screener/internal/model"
	"github.com/bytedance/sonic"
)

// ReportProvider hands out the most recent screening report.
type ReportProvider interface {
	Latest() (model.Report, bool)
}

func NewRouter(reports ReportProvider, l logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /report", func(w http.ResponseWriter, _ *http.Request) {
		report, ok := reports.Latest()
		if !ok {
			http.Error(w, `{"message":"no screening run yet"}`, http.StatusNotFound)
			return
		}

		body, err := sonic.Marshal(report)
		if err != nil {
			l.Errorf("%s: can't marshal report", err)
			http.Error(w, `{"message":"internal error"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(body); err != nil {
			l.Errorf("%s: can't write report response", err)
		}
	})

	return mux
}

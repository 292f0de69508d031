package screener

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/STTM-NSU/futures-screener/internal/model"
)

var _csvHeader = []string{
	"figi", "ticker", "name", "current_price", "lot_size", "price_step",
	"lot_value", "margin_per_lot", "margin_pct_of_balance", "max_lots_available",
	"volatility_pct", "avg_volume_lots", "avg_volume_rub", "score",
	"date_analyzed", "analysis_period_days",
}

// WriteCSV emits one row per surviving instrument in ranked order.
func WriteCSV(w io.Writer, report model.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(_csvHeader); err != nil {
		return fmt.Errorf("%w: can't write csv header", err)
	}

	for _, r := range report.Records {
		row := []string{
			r.FIGI,
			r.Ticker,
			r.Name,
			formatFloat(r.CurrentPrice),
			formatFloat(r.LotSize),
			formatFloat(r.PriceStep),
			formatFloat(r.LotValue),
			formatFloat(r.MarginPerLot),
			formatFloat(r.MarginPctOfBalance),
			strconv.Itoa(r.MaxLotsAvailable),
			formatFloat(r.VolatilityPct),
			formatFloat(r.AvgVolumeLots),
			formatFloat(r.AvgVolumeRub),
			formatFloat(r.Score),
			r.DateAnalyzed.UTC().Format(time.RFC3339),
			strconv.Itoa(r.AnalysisPeriodDays),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: can't write csv row for %s", err, r.Ticker)
		}
	}

	cw.Flush()
	return cw.Error()
}

func SaveCSV(filename string, report model.Report) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: can't create %s", err, filename)
	}
	defer f.Close()

	if err := WriteCSV(f, report); err != nil {
		return err
	}

	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Latest holds the newest report for the HTTP surface. Screening runs
// replace it atomically.
type Latest struct {
	mu     sync.RWMutex
	report model.Report
	set    bool
}

func (l *Latest) Set(report model.Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report = report
	l.set = true
}

func (l *Latest) Latest() (model.Report, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.report, l.set
}

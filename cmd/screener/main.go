package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/STTM-NSU/futures-screener/internal/config"
	"github.com/STTM-NSU/futures-screener/internal/history"
	"github.com/STTM-NSU/futures-screener/internal/invest/instrument"
	"github.com/STTM-NSU/futures-screener/internal/invest/md"
	"github.com/STTM-NSU/futures-screener/internal/logger"
	"github.com/STTM-NSU/futures-screener/internal/margin"
	"github.com/STTM-NSU/futures-screener/internal/model"
	"github.com/STTM-NSU/futures-screener/internal/postgres"
	"github.com/STTM-NSU/futures-screener/internal/screener"
	"github.com/STTM-NSU/futures-screener/internal/server"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/russianinvestments/invest-api-go-sdk/investgo"
)

const (
	_investCfgFilePath = "./configs/invest.yaml"
)

func main() {
	var (
		balance    = flag.Float64("balance", 0, "account balance in RUB (required)")
		cfgPath    = flag.String("config", "./configs/screener.yaml", "path to screener config")
		csvPath    = flag.String("csv", "screening_results.csv", "path for the CSV report")
		serveAfter = flag.Bool("serve", false, "keep serving the report over HTTP after the run")
	)
	flag.Parse()

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Info)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *balance <= 0 {
		zapLogger.Fatalf("--balance is required and must be positive")
	}

	cfg, err := config.LoadAppConfig(*cfgPath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load config", err)
	}

	var db *sqlx.DB
	pgConfig := postgres.NewConfigFromEnv().Setup()
	db, err = postgres.NewDB(pgConfig)
	if err != nil {
		zapLogger.Warnf("%s: can't connect to db, candle cache and persistence disabled", err)
		db = nil
	}

	investCfg, err := config.LoadInvestConfig(_investCfgFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load invest cfg", err)
	}

	investClient, err := investgo.NewClient(ctx, investCfg, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't create invest client", err)
	}

	table := loadOverrides(ctx, cfg.Margin, zapLogger)

	resolver, err := margin.NewResolver(cfg.Margin, table, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't create margin resolver", err)
	}

	futuresService := instrument.NewFuturesService(investClient, zapLogger)
	candlesService := md.NewCandlesService(investClient, db, zapLogger)

	universe, err := futuresService.GetFutures()
	if err != nil {
		zapLogger.Fatalf("%s: can't load futures universe", err)
	}
	zapLogger.Infof("loaded %d futures", len(universe))

	to := time.Now().UTC()
	from := to.Add(-time.Duration(cfg.Screener.AnalysisPeriodDays) * 24 * time.Hour)

	stats := make(map[string]model.LiquidityStats, len(universe))
	for i := range universe {
		if ctx.Err() != nil {
			zapLogger.Fatalf("interrupted while collecting market data")
		}

		instr := &universe[i]
		price, err := candlesService.GetLastPrice(instr.FIGI)
		if err != nil {
			zapLogger.Warnf("%s: can't get last price for %s", err, instr.Ticker)
			continue
		}
		instr.CurrentPrice = price

		candles, err := candlesService.GetCandlesFor(instr.FIGI, from, to)
		if err != nil {
			zapLogger.Warnf("%s: can't get candles for %s", err, instr.Ticker)
			continue
		}
		stats[instr.FIGI] = history.Analyze(candles, instr.Lot, price)
	}

	scr := screener.NewScreener(cfg.Screener, resolver, zapLogger)
	report, err := scr.Screen(universe, stats, *balance)
	if err != nil {
		zapLogger.Fatalf("%s: screening failed", err)
	}
	zapLogger.Infof("screening done: %d survivors, %d excluded", len(report.Records), len(report.Exclusions))

	if err := screener.SaveCSV(*csvPath, report); err != nil {
		zapLogger.Errorf("%s: can't save csv", err)
	} else {
		zapLogger.Infof("report saved to %s", *csvPath)
	}

	if db != nil {
		if err := screener.NewReportStore(db).Save(ctx, report); err != nil {
			zapLogger.Errorf("%s: can't persist report", err)
		}
	}

	if !*serveAfter {
		return
	}

	latest := &screener.Latest{}
	latest.Set(report)

	httpServer := server.NewHTTPServer(ctx, cfg.Server.Port, server.NewRouter(latest, zapLogger))
	zapLogger.Infof("serving report on :%s", cfg.Server.Port)
	if err := httpServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Errorf("%s: http server stopped", err)
	}
}

// loadOverrides prefers the operator's remote service and falls back to
// the local file. Either way an unavailable table only degrades the
// resolver to the computed tiers.
func loadOverrides(ctx context.Context, cfg config.MarginConfig, l logger.Logger) *margin.OverrideTable {
	if cfg.RemoteAddress != "" {
		table, err := margin.NewRemoteSource(cfg.RemoteAddress, l).Fetch(ctx)
		if err == nil {
			l.Infof("margin overrides loaded from %s (version %s)", cfg.RemoteAddress, table.Version)
			return table
		}
		l.Warnf("%s: falling back to local overrides", err)
	}

	if cfg.OverridesFile != "" {
		table, err := margin.LoadOverrideTable(cfg.OverridesFile)
		if err == nil {
			l.Infof("margin overrides loaded from %s (version %s)", cfg.OverridesFile, table.Version)
			return table
		}
		l.Warnf("%s: resolving without the override table", err)
	}

	return margin.NewOverrideTable()
}

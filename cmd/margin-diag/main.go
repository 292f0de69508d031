package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/STTM-NSU/futures-screener/internal/config"
	"github.com/STTM-NSU/futures-screener/internal/invest/instrument"
	"github.com/STTM-NSU/futures-screener/internal/invest/md"
	"github.com/STTM-NSU/futures-screener/internal/logger"
	"github.com/STTM-NSU/futures-screener/internal/margin"
	"github.com/STTM-NSU/futures-screener/internal/tools"
	"github.com/joho/godotenv"
	"github.com/russianinvestments/invest-api-go-sdk/investgo"
)

const (
	_investCfgFilePath = "./configs/invest.yaml"
)

// margin-diag resolves the margin for a single contract and shows what
// every tier computed, so an operator can see why a value was picked
// before trusting it.
func main() {
	var (
		ticker  = flag.String("ticker", "", "instrument ticker or FIGI (required)")
		balance = flag.Float64("balance", 0, "account balance in RUB, prints max lots when positive")
		cfgPath = flag.String("config", "./configs/screener.yaml", "path to screener config")
	)
	flag.Parse()

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Warn)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *ticker == "" {
		zapLogger.Fatalf("--ticker is required")
	}

	cfg, err := config.LoadAppConfig(*cfgPath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load config", err)
	}

	investCfg, err := config.LoadInvestConfig(_investCfgFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load invest cfg", err)
	}

	investClient, err := investgo.NewClient(ctx, investCfg, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't create invest client", err)
	}

	table := margin.NewOverrideTable()
	if cfg.Margin.OverridesFile != "" {
		if table, err = margin.LoadOverrideTable(cfg.Margin.OverridesFile); err != nil {
			zapLogger.Warnf("%s: resolving without the override table", err)
			table = margin.NewOverrideTable()
		}
	}

	resolver, err := margin.NewResolver(cfg.Margin, table, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't create margin resolver", err)
	}

	futuresService := instrument.NewFuturesService(investClient, zapLogger)
	candlesService := md.NewCandlesService(investClient, nil, zapLogger)

	instr, err := futuresService.GetFuture(*ticker)
	if err != nil {
		zapLogger.Fatalf("%s: can't find instrument %s", err, *ticker)
	}

	price, err := candlesService.GetLastPrice(instr.FIGI)
	if err != nil {
		zapLogger.Fatalf("%s: can't get last price for %s", err, instr.Ticker)
	}
	instr.CurrentPrice = tools.RoundToStep(price, instr.MinPriceIncrement)

	result, traces, err := resolver.Explain(*instr)
	if err != nil {
		zapLogger.Fatalf("%s: can't resolve margin", err)
	}

	fmt.Printf("%s (%s) %s\n", instr.Ticker, instr.FIGI, instr.Name)
	fmt.Printf("  price=%.4f lot=%.0f min_price_increment=%.4f dlong=%.4f dshort=%.4f\n",
		instr.CurrentPrice, instr.Lot, instr.MinPriceIncrement, instr.Dlong, instr.Dshort)
	fmt.Printf("  lot value: %.2f ₽\n\n", instr.LotValue())

	for _, tr := range traces {
		mark := " "
		if tr.Fired {
			mark = "*"
		}
		fmt.Printf("%s %-11s %12.2f ₽  %s\n", mark, tr.Tier, tr.Value, tr.Note)
	}

	fmt.Printf("\nmargin per lot: %.2f ₽ (tier: %s)\n", result.PerLot, result.Tier)

	if *balance > 0 {
		fmt.Printf("max lots for balance %.2f ₽: %d\n", *balance, resolver.MaxLots(*balance, result.PerLot))
	}
}

package md

import (
	"fmt"
	"time"

	"github.com/STTM-NSU/futures-screener/internal/logger"
	"github.com/STTM-NSU/futures-screener/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/russianinvestments/invest-api-go-sdk/investgo"
	investapi "github.com/russianinvestments/invest-api-go-sdk/proto"
	"go.uber.org/ratelimit"
)

// CandlesService supplies last prices and the hourly OHLCV history the
// liquidity stats are computed from. A Postgres cache sits in front of
// the API; db may be nil, then every request goes to the API.
type CandlesService struct {
	db     *sqlx.DB
	logger logger.Logger

	rateLimiter ratelimit.Limiter // 600 T/M но мы сделаем меньше

	mdService *investgo.MarketDataServiceClient
}

func NewCandlesService(c *investgo.Client, db *sqlx.DB, logger logger.Logger) *CandlesService {
	return &CandlesService{
		mdService:   c.NewMarketDataServiceClient(),
		rateLimiter: ratelimit.New(500, ratelimit.Per(1*time.Minute)),
		db:          db,
		logger:      logger,
	}
}

func (s *CandlesService) GetLastPrice(instrumentId string) (float64, error) {
	s.rateLimiter.Take()
	resp, err := s.mdService.GetLastPrices([]string{instrumentId})
	if err != nil {
		return 0, fmt.Errorf("can't get last price: %w", err)
	}

	if len(resp.GetLastPrices()) == 0 {
		return 0, fmt.Errorf("empty last price for instrument %s", instrumentId)
	}

	return resp.GetLastPrices()[0].GetPrice().ToFloat(), nil
}

// from to UTC
func (s *CandlesService) GetCandlesFor(instrumentId string, from, to time.Time) ([]model.Candle, error) {
	dbCandles, err := s.GetCandlesFromDB(instrumentId, from, to)
	if err != nil {
		s.logger.Errorf("can't get candles from database: %s", err)
	}

	if len(dbCandles) > 0 {
		return dbCandles, nil
	}

	s.rateLimiter.Take()
	resp, err := s.mdService.GetCandles(instrumentId, investapi.CandleInterval_CANDLE_INTERVAL_HOUR, from, to, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("can't get candles from api: %w", err)
	}

	if len(resp.GetCandles()) == 0 {
		return nil, fmt.Errorf("empty candles from api")
	}

	candles := make([]model.Candle, len(resp.GetCandles()))
	for i, item := range resp.GetCandles() {
		candles[i] = model.Candle{
			Ts:         item.GetTime().AsTime(),
			OpenPrice:  item.GetOpen().ToFloat(),
			HighPrice:  item.GetHigh().ToFloat(),
			LowPrice:   item.GetLow().ToFloat(),
			ClosePrice: item.GetClose().ToFloat(),
			Volume:     item.GetVolume(),
		}
	}

	if err := s.SaveCandlesToDB(instrumentId, candles); err != nil {
		s.logger.Warnf("%s: can't cache candles for %s", err, instrumentId)
	}

	return candles, nil
}

package md

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/STTM-NSU/futures-screener/internal/model"
)

const (
	_queryCandles = `SELECT ts, open_price, high_price, low_price, close_price, volume
						FROM candles
						WHERE ts BETWEEN $1::timestamp AND $2::timestamp AND instrument_id = $3
						ORDER BY ts ASC`
	_insertCandle = `INSERT INTO candles (
							instrument_id, ts, open_price, high_price, low_price, close_price, volume
						) VALUES ($1,$2,$3,$4,$5,$6,$7)
						ON CONFLICT (instrument_id, ts) DO NOTHING;`
)

func (s *CandlesService) GetCandlesFromDB(instrumentId string, from, to time.Time) ([]model.Candle, error) {
	if s.db == nil {
		return nil, nil
	}

	var candles []model.Candle
	if err := s.db.Select(&candles, _queryCandles, from, to, instrumentId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get candles from database: %w", err)
	}
	return candles, nil
}

func (s *CandlesService) SaveCandlesToDB(instrumentId string, candles []model.Candle) error {
	if s.db == nil {
		return nil
	}

	for _, c := range candles {
		if _, err := s.db.Exec(_insertCandle,
			instrumentId, c.Ts, c.OpenPrice, c.HighPrice, c.LowPrice, c.ClosePrice, c.Volume,
		); err != nil {
			return fmt.Errorf("%w: can't insert candle", err)
		}
	}

	return nil
}

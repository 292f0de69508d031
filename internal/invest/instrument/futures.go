package instrument

import (
	"errors"
	"fmt"
	"time"

	"github.com/STTM-NSU/futures-screener/internal/logger"
	"github.com/STTM-NSU/futures-screener/internal/model"
	"github.com/russianinvestments/invest-api-go-sdk/investgo"
	investapi "github.com/russianinvestments/invest-api-go-sdk/proto"
	"go.uber.org/ratelimit"
)

var (
	NotExistError = errors.New("instrument doesn't exist")
	NotFoundError = errors.New("instrument not found")
)

// FuturesService loads the futures universe with the fields margin
// resolution depends on: lot, min_price_increment, dlong/dshort.
type FuturesService struct {
	instrClient *investgo.InstrumentsServiceClient
	rateLimiter ratelimit.Limiter
	logger      logger.Logger

	queriesCache map[string]*model.Instrument
}

func NewFuturesService(client *investgo.Client, logger logger.Logger) *FuturesService {
	return &FuturesService{
		instrClient:  client.NewInstrumentsServiceClient(),
		rateLimiter:  ratelimit.New(200, ratelimit.Per(1*time.Minute)),
		logger:       logger,
		queriesCache: make(map[string]*model.Instrument),
	}
}

// GetFutures returns every tradable futures contract. Prices are not
// filled here; the market data service supplies them.
func (s *FuturesService) GetFutures() ([]model.Instrument, error) {
	s.rateLimiter.Take()
	resp, err := s.instrClient.Futures(investapi.InstrumentStatus_INSTRUMENT_STATUS_BASE)
	if err != nil {
		return nil, fmt.Errorf("%w: can't get futures", err)
	}

	instruments := make([]model.Instrument, 0, len(resp.GetInstruments()))
	for _, f := range resp.GetInstruments() {
		if !f.GetApiTradeAvailableFlag() || !f.GetSellAvailableFlag() ||
			!f.GetBuyAvailableFlag() || f.GetBlockedTcaFlag() {
			continue
		}

		instruments = append(instruments, model.Instrument{
			FIGI:              f.GetFigi(),
			Ticker:            f.GetTicker(),
			Name:              f.GetName(),
			ClassCode:         f.GetClassCode(),
			UID:               f.GetUid(),
			BasicAsset:        f.GetBasicAsset(),
			Currency:          f.GetCurrency(),
			Exchange:          f.GetRealExchange().String(),
			ExchangeSection:   f.GetExchange(),
			Lot:               float64(f.GetLot()),
			MinPriceIncrement: f.GetMinPriceIncrement().ToFloat(),
			Dlong:             f.GetDlong().ToFloat(),
			Dshort:            f.GetDshort().ToFloat(),
			ExpirationDate:    f.GetExpirationDate().AsTime(),
		})
	}

	return instruments, nil
}

// GetFuture resolves a single contract by ticker/FIGI/query for the
// diagnostics binary.
func (s *FuturesService) GetFuture(query string) (*model.Instrument, error) {
	if v, ok := s.queriesCache[query]; ok && v != nil {
		return v, nil
	}

	s.rateLimiter.Take()
	resp, err := s.instrClient.FindInstrument(query)
	if err != nil {
		return nil, fmt.Errorf("%w: can't find instrument", err)
	}

	found := resp.GetInstruments()
	if len(found) == 0 {
		return nil, NotExistError
	}

	for _, short := range found {
		if !short.GetApiTradeAvailableFlag() {
			continue
		}

		info, err := s.getInstrumentInfo(short.GetFigi())
		if err != nil {
			s.logger.Warnf("%s: can't get info for figi=%s", err, short.GetFigi())
			continue
		}

		instr := &model.Instrument{
			FIGI:              info.GetFigi(),
			Ticker:            info.GetTicker(),
			Name:              info.GetName(),
			ClassCode:         info.GetClassCode(),
			UID:               info.GetUid(),
			Currency:          info.GetCurrency(),
			Exchange:          info.GetRealExchange().String(),
			ExchangeSection:   info.GetExchange(),
			Lot:               float64(info.GetLot()),
			MinPriceIncrement: info.GetMinPriceIncrement().ToFloat(),
			Dlong:             info.GetDlong().ToFloat(),
			Dshort:            info.GetDshort().ToFloat(),
		}

		s.queriesCache[query] = instr

		return instr, nil
	}

	return nil, NotFoundError
}

func (s *FuturesService) getInstrumentInfo(figi string) (*investapi.Instrument, error) {
	s.rateLimiter.Take()
	resp, err := s.instrClient.InstrumentByFigi(figi)
	if err != nil {
		return nil, fmt.Errorf("%w: can't get instrument by figi", err)
	}

	return resp.GetInstrument(), nil
}

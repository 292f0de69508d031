package model

import "time"

// Instrument is a tradable futures contract with the metadata the
// margin resolver and screener need. Dlong/Dshort come from the broker
// API and are known to be unreliable for some contracts.
type Instrument struct {
	FIGI              string    `json:"figi" db:"figi"`
	Ticker            string    `json:"ticker" db:"ticker"`
	Name              string    `json:"name" db:"name"`
	ClassCode         string    `json:"class_code" db:"class_code"`
	UID               string    `json:"uid" db:"uid"`
	BasicAsset        string    `json:"basic_asset" db:"basic_asset"`
	Currency          string    `json:"currency" db:"currency"`
	Exchange          string    `json:"exchange" db:"exchange"`
	ExchangeSection   string    `json:"exchange_section" db:"exchange_section"`
	Lot               float64   `json:"lot" db:"lot"`
	CurrentPrice      float64   `json:"current_price" db:"current_price"`
	MinPriceIncrement float64   `json:"min_price_increment" db:"min_price_increment"`
	Dlong             float64   `json:"dlong" db:"dlong"`
	Dshort            float64   `json:"dshort" db:"dshort"`
	ExpirationDate    time.Time `json:"expiration_date" db:"expiration_date"`
}

func (i Instrument) GetUID() string {
	return i.UID
}

// LotValue is the notional value of one lot at the current price.
func (i Instrument) LotValue() float64 {
	return i.CurrentPrice * i.Lot
}

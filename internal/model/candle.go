package model

import "time"

type Candle struct {
	Ts         time.Time `db:"ts"`
	OpenPrice  float64   `db:"open_price"`
	HighPrice  float64   `db:"high_price"`
	LowPrice   float64   `db:"low_price"`
	ClosePrice float64   `db:"close_price"`
	Volume     int64     `db:"volume"`
}

package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// ScoreWeights are the composite score components. They only need to be
// non-negative; the score stays monotonic for any combination.
type ScoreWeights struct {
	Volatility       float64 `yaml:"volatility"`
	MarginEfficiency float64 `yaml:"margin_efficiency"`
	Liquidity        float64 `yaml:"liquidity"`
}

type ScreenerConfig struct {
	MaxMarginPctOfBalance float64      `yaml:"max_margin_pct_of_balance"`
	MinAvgVolumeLots      float64      `yaml:"min_avg_volume_lots"`
	MinAvgVolumeRub       float64      `yaml:"min_avg_volume_rub"`
	VolatilityMinPct      float64      `yaml:"volatility_min_pct"`
	VolatilityMaxPct      float64      `yaml:"volatility_max_pct"` // 0 disables the window
	AnalysisPeriodDays    int          `yaml:"analysis_period_days"`
	TopLimit              int          `yaml:"top_limit"`
	ScoreWeights          ScoreWeights `yaml:"score_weights"`
}

const (
	_maxMarginPctDefault = 25.0
	_periodDaysDefault   = 30
	_topLimitDefault     = 50

	_volatilityWeightDefault = 0.3
	_marginWeightDefault     = 0.2
	_liquidityWeightDefault  = 0.5
)

func (c *ScreenerConfig) Setup() error {
	if c.MaxMarginPctOfBalance <= 0 {
		c.MaxMarginPctOfBalance = _maxMarginPctDefault
	}
	if c.MaxMarginPctOfBalance > 100 {
		return fmt.Errorf("max_margin_pct_of_balance must be in (0, 100]")
	}
	if c.VolatilityMaxPct > 0 && c.VolatilityMinPct > c.VolatilityMaxPct {
		return fmt.Errorf("volatility_min_pct greater than volatility_max_pct")
	}
	if c.AnalysisPeriodDays <= 0 {
		c.AnalysisPeriodDays = _periodDaysDefault
	}
	if c.TopLimit < 0 {
		c.TopLimit = _topLimitDefault
	}

	w := &c.ScoreWeights
	if w.Volatility < 0 || w.MarginEfficiency < 0 || w.Liquidity < 0 {
		return fmt.Errorf("score weights must be non-negative")
	}
	if w.Volatility == 0 && w.MarginEfficiency == 0 && w.Liquidity == 0 {
		w.Volatility = _volatilityWeightDefault
		w.MarginEfficiency = _marginWeightDefault
		w.Liquidity = _liquidityWeightDefault
	}

	return nil
}

// MarginConfig configures the margin resolver. DefaultRatePct has no
// baked-in default: the percentage fallback rate differs between data
// sources, so the operator has to pick one explicitly.
type MarginConfig struct {
	DefaultRatePct float64 `yaml:"default_rate_pct"`
	PointValueMin  float64 `yaml:"point_value_min"`
	PointValueMax  float64 `yaml:"point_value_max"`
	SafetyBuffer   float64 `yaml:"safety_buffer"`
	OverridesFile  string  `yaml:"overrides_file"`
	RemoteAddress  string  `yaml:"remote_address"`
}

const (
	_pointValueMinDefault = 0.1
	_pointValueMaxDefault = 100000.0
	_safetyBufferDefault  = 1.0
)

func (c *MarginConfig) Setup() error {
	if c.DefaultRatePct <= 0 || c.DefaultRatePct > 100 {
		return fmt.Errorf("default_rate_pct is required and must be in (0, 100]")
	}
	if c.PointValueMin <= 0 {
		c.PointValueMin = _pointValueMinDefault
	}
	if c.PointValueMax <= c.PointValueMin {
		c.PointValueMax = _pointValueMaxDefault
	}
	if c.SafetyBuffer <= 0 || c.SafetyBuffer > 1 {
		c.SafetyBuffer = _safetyBufferDefault
	}
	if c.RemoteAddress != "" {
		if _, err := url.Parse(c.RemoteAddress); err != nil {
			return fmt.Errorf("%w: invalid margin remote_address", err)
		}
	}

	return nil
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

func (c *ServerConfig) Setup() {
	if c.Port == "" {
		c.Port = "8080"
	}
}

type AppConfig struct {
	Screener ScreenerConfig `yaml:"screener"`
	Margin   MarginConfig   `yaml:"margin"`
	Server   ServerConfig   `yaml:"server"`
}

func (c *AppConfig) ValidateAndSetup() error {
	if err := c.Screener.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup screener cfg", err)
	}
	if err := c.Margin.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup margin cfg", err)
	}
	c.Server.Setup()

	return nil
}

func LoadAppConfig(filename string) (AppConfig, error) {
	var cfg AppConfig
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}

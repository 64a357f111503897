package domain

type AssetClass string

const (
	AssetClassDefault        AssetClass = "default"
	AssetClassCommodity      AssetClass = "commodity"
	AssetClassAsianIndex     AssetClass = "asian_index"
	AssetClassHighVolEquity  AssetClass = "high_vol_equity"
	AssetClassLargeCapEquity AssetClass = "large_cap_equity"
)

func (c AssetClass) IsValid() bool {
	switch c {
	case AssetClassDefault, AssetClassCommodity, AssetClassAsianIndex,
		AssetClassHighVolEquity, AssetClassLargeCapEquity:
		return true
	}
	return false
}

// Pool is a category partition ranked and activated independently.
type Pool string

const (
	PoolMarkets Pool = "markets"
	PoolStocks  Pool = "stocks"
)

func (p Pool) IsValid() bool {
	return p == PoolMarkets || p == PoolStocks
}

// SessionWindow is an inclusive range of liquid entry hours.
type SessionWindow struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

func (w SessionWindow) Contains(hour int) bool {
	return hour >= w.Start && hour <= w.End
}

type Instrument struct {
	Symbol     string        `json:"symbol"`
	Name       string        `json:"name,omitempty"`
	Pool       Pool          `json:"pool"`
	AssetClass AssetClass    `json:"asset_class"`
	Region     string        `json:"region,omitempty"`
	Spread     float64       `json:"spread"`
	Session    SessionWindow `json:"session"`
	SLGrid     []float64     `json:"sl_grid,omitempty"`
	TPGrid     []float64     `json:"tp_grid,omitempty"`
}

// IsCommodity reports whether fundamental scoring should use the commodity weighting.
func (i Instrument) IsCommodity() bool {
	return i.AssetClass == AssetClassCommodity
}

package analytics

import "longentry/internal/domain"

// VolatilityBand is the ATR% sweet spot for an asset class.
type VolatilityBand struct {
	Low  float64
	High float64
	Mid  float64
}

var volatilityBands = map[domain.AssetClass]VolatilityBand{
	domain.AssetClassDefault:        {Low: 0.5, High: 2.0, Mid: 1.25},
	domain.AssetClassCommodity:      {Low: 0.8, High: 2.5, Mid: 1.65},
	domain.AssetClassAsianIndex:     {Low: 0.7, High: 2.2, Mid: 1.45},
	domain.AssetClassHighVolEquity:  {Low: 1.5, High: 4.0, Mid: 2.75},
	domain.AssetClassLargeCapEquity: {Low: 0.8, High: 2.5, Mid: 1.65},
}

// BandFor returns the band for class, falling back to the default row.
func BandFor(class domain.AssetClass) VolatilityBand {
	if b, ok := volatilityBands[class]; ok {
		return b
	}
	return volatilityBands[domain.AssetClassDefault]
}

func (b VolatilityBand) score(atrPct float64) float64 {
	switch {
	case atrPct >= b.Low && atrPct <= b.High:
		half := (b.High - b.Low) / 2
		d := atrPct - b.Mid
		if d < 0 {
			d = -d
		}
		return 100 - d/half*30
	case atrPct < b.Low:
		return atrPct / b.Low * 70
	default:
		return max(0, 100-(atrPct-b.High)*25)
	}
}

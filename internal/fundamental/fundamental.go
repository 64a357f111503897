package fundamental

import (
	"context"
	"time"

	"longentry/internal/domain"
	"longentry/internal/numeric"

	"github.com/charmbracelet/log"
)

const (
	Neutral          = 50.0
	maxCountedEvents = 3
	eventPenalty     = 5.0
)

// Score turns a regional macro outlook and the week's high-impact event
// count into a 0-100 score. Commodities read the outlook as a safe-haven
// and inflation-hedge asset would.
func Score(o domain.RegionOutlook, highImpactEvents int, commodity bool) float64 {
	score := Neutral
	if commodity {
		score += o.CBStance * 15
		score += o.InflationTrend * 10
		score -= o.RiskSentiment * 10
		score -= o.GrowthOutlook * 5
	} else {
		score += o.CBStance * 15
		score += o.GrowthOutlook * 15
		score += o.RiskSentiment * 10
		score -= o.InflationTrend * 5
	}
	score -= float64(min(max(highImpactEvents, 0), maxCountedEvents)) * eventPenalty
	return numeric.Clamp(numeric.Round(score, 1), 0, 100)
}

// Source provides outlook and event-calendar data. A nil outlook with a nil
// error means the region has no outlook recorded.
type Source interface {
	GetOutlook(ctx context.Context, region string) (*domain.RegionOutlook, error)
	CountHighImpactEvents(ctx context.Context, region string, from, to time.Time) (int, error)
}

type Scorer struct {
	source Source
	logger *log.Logger
}

func NewScorer(source Source, logger *log.Logger) *Scorer {
	return &Scorer{source: source, logger: logger}
}

// ScoreInstrument returns the neutral score when the instrument has no region,
// the region has no outlook, or no source is configured.
func (s *Scorer) ScoreInstrument(ctx context.Context, inst domain.Instrument, week time.Time) (float64, error) {
	if s == nil || s.source == nil || inst.Region == "" {
		return Neutral, nil
	}

	outlook, err := s.source.GetOutlook(ctx, inst.Region)
	if err != nil {
		return Neutral, err
	}
	if outlook == nil {
		s.logger.Warn("no outlook for region, using neutral score", "symbol", inst.Symbol, "region", inst.Region)
		return Neutral, nil
	}

	// Monday through Friday of the trading week.
	events, err := s.source.CountHighImpactEvents(ctx, inst.Region, week, week.AddDate(0, 0, 4))
	if err != nil {
		return Neutral, err
	}

	score := Score(*outlook, events, inst.IsCommodity())
	s.logger.Debug("fundamental score", "symbol", inst.Symbol, "region", inst.Region, "score", score, "events", events)
	return score, nil
}

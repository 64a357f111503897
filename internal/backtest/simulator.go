package backtest

import (
	"time"

	"longentry/internal/domain"
	"longentry/internal/numeric"
	"longentry/internal/series"
)

const (
	startingEquity     = 100.0
	noLossProfitFactor = 99.0
)

// Params is one point of the sweep grid.
type Params struct {
	EntryHour     int
	StopLossPct   float64
	TakeProfitPct float64
}

type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitGap        ExitReason = "gap"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Trade is one closed position from a replay.
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	PnLPct     float64
	Reason     ExitReason
	// Ambiguous is set when a same-bar stop/target collision could not be
	// resolved from finer bars and was booked as a stop.
	Ambiguous bool
}

// Simulate replays the fixed-entry-hour long strategy over the series.
func Simulate(s *series.Series, p Params, spread float64) domain.SimulationResult {
	r, _ := run(s, p, spread, false)
	return r
}

// Replay is Simulate plus the per-trade ledger.
func Replay(s *series.Series, p Params, spread float64) (domain.SimulationResult, []Trade) {
	return run(s, p, spread, true)
}

type position struct {
	index         int
	entryTime     time.Time
	entry         float64
	stop          float64
	target        float64
	exitSpreadPct float64
}

type ledger struct {
	wins, losses int
	grossProfit  float64
	grossLoss    float64
	equity       float64
	peak         float64
	maxDrawdown  float64
	ambiguous    int
	trades       []Trade
	record       bool
}

func (l *ledger) book(pos *position, exitTime time.Time, exitPrice, pnl float64, reason ExitReason, ambiguous bool) {
	if pnl >= 0 {
		l.wins++
		l.grossProfit += pnl
	} else {
		l.losses++
		l.grossLoss -= pnl
	}
	if ambiguous {
		l.ambiguous++
	}

	l.equity *= 1 + pnl/100
	if l.equity > l.peak {
		l.peak = l.equity
	}
	if l.peak > 0 {
		if dd := (l.peak - l.equity) / l.peak * 100; dd > l.maxDrawdown {
			l.maxDrawdown = dd
		}
	}

	if l.record {
		l.trades = append(l.trades, Trade{
			EntryTime:  pos.entryTime,
			ExitTime:   exitTime,
			EntryPrice: pos.entry,
			ExitPrice:  exitPrice,
			PnLPct:     pnl,
			Reason:     reason,
			Ambiguous:  ambiguous,
		})
	}
}

func (l *ledger) result() domain.SimulationResult {
	total := l.wins + l.losses
	if total == 0 {
		return domain.SimulationResult{}
	}

	pf := noLossProfitFactor
	if l.grossLoss > 0 {
		pf = numeric.Round(l.grossProfit/l.grossLoss, 2)
	}

	return domain.SimulationResult{
		TotalReturn:        numeric.Round(l.equity-startingEquity, 2),
		WinRate:            numeric.Round(float64(l.wins)/float64(total)*100, 1),
		ProfitFactor:       pf,
		MaxDrawdown:        numeric.Round(l.maxDrawdown, 2),
		TotalTrades:        total,
		Wins:               l.wins,
		Losses:             l.losses,
		AmbiguousFallbacks: l.ambiguous,
	}
}

func run(s *series.Series, p Params, spread float64, record bool) (domain.SimulationResult, []Trade) {
	if s == nil || s.Len() == 0 {
		return domain.SimulationResult{}, nil
	}

	halfSpread := spread / 2
	slMult := 1 - p.StopLossPct/100
	tpMult := 1 + p.TakeProfitPct/100

	l := &ledger{equity: startingEquity, peak: startingEquity, record: record}
	var pos *position
	lastAttemptDay := -1

	for i := 0; i < s.Len(); i++ {
		flatAtOpen := pos == nil

		if pos != nil && i > pos.index {
			if o := s.Open[i]; o <= pos.stop || o >= pos.target {
				l.book(pos, s.Time[i], o, (o-pos.entry)/pos.entry*100-pos.exitSpreadPct, ExitGap, false)
				pos = nil
				flatAtOpen = true
			} else if exitPrice, pnl, reason, ambiguous, closed := evaluateBar(s, i, pos, p); closed {
				l.book(pos, s.Time[i], exitPrice, pnl, reason, ambiguous)
				pos = nil
			}
		}

		if s.Hour[i] != p.EntryHour || s.Day[i] == lastAttemptDay {
			continue
		}
		lastAttemptDay = s.Day[i]
		if !flatAtOpen || pos != nil {
			continue
		}

		entry := s.Open[i] + halfSpread
		if entry <= 0 {
			continue
		}
		pos = &position{
			index:         i,
			entryTime:     s.Time[i],
			entry:         entry,
			stop:          entry * slMult,
			target:        entry * tpMult,
			exitSpreadPct: halfSpread / entry * 100,
		}
		if exitPrice, pnl, reason, ambiguous, closed := evaluateBar(s, i, pos, p); closed {
			l.book(pos, s.Time[i], exitPrice, pnl, reason, ambiguous)
			pos = nil
		}
	}

	if pos != nil {
		last := s.Len() - 1
		c := s.Close[last]
		l.book(pos, s.Time[last], c, (c-pos.entry)/pos.entry*100-pos.exitSpreadPct, ExitEndOfData, false)
	}

	return l.result(), l.trades
}

// evaluateBar checks bar i's range against the open position's levels.
func evaluateBar(s *series.Series, i int, pos *position, p Params) (exitPrice, pnl float64, reason ExitReason, ambiguous, closed bool) {
	stopHit := s.Low[i] <= pos.stop
	targetHit := s.High[i] >= pos.target

	switch {
	case stopHit && targetHit:
		switch resolveIntrabar(s.Intrabar(), s.Time[i], pos) {
		case ExitTakeProfit:
			return pos.target, p.TakeProfitPct - pos.exitSpreadPct, ExitTakeProfit, false, true
		case ExitStopLoss:
			return pos.stop, -p.StopLossPct - pos.exitSpreadPct, ExitStopLoss, false, true
		}
		return pos.stop, -p.StopLossPct - pos.exitSpreadPct, ExitStopLoss, true, true
	case stopHit:
		return pos.stop, -p.StopLossPct - pos.exitSpreadPct, ExitStopLoss, false, true
	case targetHit:
		return pos.target, p.TakeProfitPct - pos.exitSpreadPct, ExitTakeProfit, false, true
	}
	return 0, 0, "", false, false
}

// resolveIntrabar walks the finer bars of one hour and reports which level
// was touched first. An empty result means the collision stays unresolved.
func resolveIntrabar(ib *series.Intrabar, hourStart time.Time, pos *position) ExitReason {
	for _, b := range ib.Within(hourStart) {
		stopHit := b.Low <= pos.stop
		targetHit := b.High >= pos.target
		switch {
		case stopHit && targetHit:
			return ""
		case stopHit:
			return ExitStopLoss
		case targetHit:
			return ExitTakeProfit
		}
	}
	return ""
}

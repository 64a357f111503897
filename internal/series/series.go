package series

import (
	"fmt"
	"slices"
	"time"

	"longentry/internal/domain"
)

// Series is the columnar form of one instrument's hourly bars plus the
// derived daily aggregation.
type Series struct {
	Time   []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
	Hour   []int
	// Day is the index into Daily of the calendar date each bar belongs to.
	Day []int

	Daily []domain.DailyBar

	fine *Intrabar
}

// Prepare normalizes raw hourly bars into a Series. Bars are ordered by
// open time; a repeated hour-slot keeps the last bar seen.
func Prepare(bars []domain.PriceBar) (*Series, error) {
	if len(bars) == 0 {
		return nil, domain.ErrNoData
	}

	sorted := slices.Clone(bars)
	slices.SortStableFunc(sorted, func(a, b domain.PriceBar) int {
		return a.OpenTime.Compare(b.OpenTime)
	})

	deduped := sorted[:0]
	for _, b := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].OpenTime.Equal(b.OpenTime) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}

	n := len(deduped)
	s := &Series{
		Time:   make([]time.Time, n),
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
		Hour:   make([]int, n),
		Day:    make([]int, n),
	}

	for i, b := range deduped {
		t := b.OpenTime.UTC()
		s.Time[i] = t
		s.Open[i] = b.Open
		s.High[i] = b.High
		s.Low[i] = b.Low
		s.Close[i] = b.Close
		s.Volume[i] = b.Volume
		s.Hour[i] = t.Hour()

		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		last := len(s.Daily) - 1
		if last < 0 || !s.Daily[last].Date.Equal(date) {
			s.Daily = append(s.Daily, domain.DailyBar{
				Date: date,
				Open: b.Open,
				High: b.High,
				Low:  b.Low,
			})
			last++
		}
		d := &s.Daily[last]
		d.High = max(d.High, b.High)
		d.Low = min(d.Low, b.Low)
		d.Close = b.Close
		d.Volume += b.Volume
		s.Day[i] = last
	}

	for i := range s.Daily {
		d := &s.Daily[i]
		if d.Open != 0 {
			d.PctChange = (d.Close - d.Open) / d.Open * 100
		}
	}

	return s, nil
}

func (s *Series) Len() int {
	return len(s.Open)
}

func (s *Series) DayCount() int {
	return len(s.Daily)
}

// RequireDaily reports ErrInsufficientData when fewer than n daily bars exist.
func (s *Series) RequireDaily(n int) error {
	if len(s.Daily) < n {
		return fmt.Errorf("%w: %d daily bars, need %d", domain.ErrInsufficientData, len(s.Daily), n)
	}
	return nil
}

// HourCoverage counts, for each hour of day, the distinct dates on which a
// bar with that hour exists.
func (s *Series) HourCoverage() [24]int {
	var counts [24]int
	lastDay := [24]int{}
	for h := range lastDay {
		lastDay[h] = -1
	}
	for i, h := range s.Hour {
		if lastDay[h] != s.Day[i] {
			lastDay[h] = s.Day[i]
			counts[h]++
		}
	}
	return counts
}

// DailyCloses returns the close column of the daily bars.
func (s *Series) DailyCloses() []float64 {
	out := make([]float64, len(s.Daily))
	for i, d := range s.Daily {
		out[i] = d.Close
	}
	return out
}

// DailyColumns returns high, low and close columns of the daily bars.
func (s *Series) DailyColumns() (highs, lows, closes []float64) {
	highs = make([]float64, len(s.Daily))
	lows = make([]float64, len(s.Daily))
	closes = make([]float64, len(s.Daily))
	for i, d := range s.Daily {
		highs[i], lows[i], closes[i] = d.High, d.Low, d.Close
	}
	return highs, lows, closes
}

// WithIntrabar attaches finer-granularity bars used to resolve same-bar
// stop/target collisions. The receiver is returned for chaining.
func (s *Series) WithIntrabar(ib *Intrabar) *Series {
	s.fine = ib
	return s
}

func (s *Series) Intrabar() *Intrabar {
	return s.fine
}

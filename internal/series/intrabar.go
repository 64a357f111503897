package series

import (
	"slices"
	"time"

	"longentry/internal/domain"
)

// Intrabar indexes finer bars (M5) by the hour-slot that contains them.
// A nil *Intrabar is valid and holds no data.
type Intrabar struct {
	byHour map[int64][]domain.PriceBar
}

func NewIntrabar(bars []domain.PriceBar) *Intrabar {
	ib := &Intrabar{byHour: make(map[int64][]domain.PriceBar)}
	for _, b := range bars {
		key := b.OpenTime.UTC().Truncate(time.Hour).Unix()
		ib.byHour[key] = append(ib.byHour[key], b)
	}
	for _, group := range ib.byHour {
		slices.SortFunc(group, func(a, b domain.PriceBar) int {
			return a.OpenTime.Compare(b.OpenTime)
		})
	}
	return ib
}

// Within returns the finer bars inside the hour starting at hourStart, in
// chronological order.
func (ib *Intrabar) Within(hourStart time.Time) []domain.PriceBar {
	if ib == nil {
		return nil
	}
	return ib.byHour[hourStart.UTC().Truncate(time.Hour).Unix()]
}

func (ib *Intrabar) Len() int {
	if ib == nil {
		return 0
	}
	n := 0
	for _, g := range ib.byHour {
		n += len(g)
	}
	return n
}

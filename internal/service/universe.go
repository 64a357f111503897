package service

import (
	"fmt"
	"strings"

	"longentry/internal/domain"
)

// Universe is the immutable instrument set the service layer operates on.
type Universe struct {
	ordered []domain.Instrument
	index   map[string]domain.Instrument
}

func NewUniverse(instruments []domain.Instrument) *Universe {
	u := &Universe{
		ordered: make([]domain.Instrument, len(instruments)),
		index:   make(map[string]domain.Instrument, len(instruments)),
	}
	copy(u.ordered, instruments)
	for _, inst := range instruments {
		u.index[inst.Symbol] = inst
	}
	return u
}

// Lookup is case-insensitive and wraps domain.ErrUnknownSymbol.
func (u *Universe) Lookup(symbol string) (domain.Instrument, error) {
	inst, ok := u.index[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return domain.Instrument{}, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, symbol)
	}
	return inst, nil
}

func (u *Universe) All() []domain.Instrument {
	out := make([]domain.Instrument, len(u.ordered))
	copy(out, u.ordered)
	return out
}

func (u *Universe) Len() int { return len(u.ordered) }

// Pools returns the distinct pools present, in first-seen order.
func (u *Universe) Pools() []domain.Pool {
	var pools []domain.Pool
	seen := make(map[domain.Pool]bool)
	for _, inst := range u.ordered {
		if !seen[inst.Pool] {
			seen[inst.Pool] = true
			pools = append(pools, inst.Pool)
		}
	}
	return pools
}

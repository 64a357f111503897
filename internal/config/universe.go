package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"longentry/internal/backtest"
	"longentry/internal/domain"
)

const defaultSpread = 1.0

var defaultSession = domain.SessionWindow{Start: 8, End: 20}

// builtinMarkets is the default universe: spreads in price units, sessions
// as inclusive UTC entry hours.
var builtinMarkets = []domain.Instrument{
	{Symbol: "XAUUSD", Name: "Gold", AssetClass: domain.AssetClassCommodity, Region: "commodities", Spread: 0.30, Session: domain.SessionWindow{Start: 9, End: 20}},
	{Symbol: "XAGUSD", Name: "Silver", AssetClass: domain.AssetClassCommodity, Region: "commodities", Spread: 0.03, Session: domain.SessionWindow{Start: 9, End: 20}},
	{Symbol: "US500", Name: "S&P 500", AssetClass: domain.AssetClassDefault, Region: "US", Spread: 0.50, Session: domain.SessionWindow{Start: 10, End: 20}},
	{Symbol: "US100", Name: "Nasdaq 100", AssetClass: domain.AssetClassDefault, Region: "US", Spread: 1.5, Session: domain.SessionWindow{Start: 10, End: 20}},
	{Symbol: "US30", Name: "Dow Jones 30", AssetClass: domain.AssetClassDefault, Region: "US", Spread: 3.0, Session: domain.SessionWindow{Start: 10, End: 20}},
	{Symbol: "GER40", Name: "DAX 40", AssetClass: domain.AssetClassDefault, Region: "EU", Spread: 1.5, Session: domain.SessionWindow{Start: 9, End: 17}},
	{Symbol: "UK100", Name: "FTSE 100", AssetClass: domain.AssetClassDefault, Region: "UK", Spread: 1.5, Session: domain.SessionWindow{Start: 9, End: 17}},
	{Symbol: "FRA40", Name: "CAC 40", AssetClass: domain.AssetClassDefault, Region: "EU", Spread: 1.5, Session: domain.SessionWindow{Start: 9, End: 17}},
	{Symbol: "EU50", Name: "Euro Stoxx 50", AssetClass: domain.AssetClassDefault, Region: "EU", Spread: 1.5, Session: domain.SessionWindow{Start: 9, End: 17}},
	{Symbol: "SPN35", Name: "IBEX 35", AssetClass: domain.AssetClassDefault, Region: "EU", Spread: 5.0, Session: domain.SessionWindow{Start: 9, End: 17}},
	{Symbol: "N25", Name: "AEX 25", AssetClass: domain.AssetClassDefault, Region: "EU", Spread: 0.2, Session: domain.SessionWindow{Start: 9, End: 17}},
	{Symbol: "JP225", Name: "Nikkei 225", AssetClass: domain.AssetClassAsianIndex, Region: "JP", Spread: 15, Session: domain.SessionWindow{Start: 2, End: 16}},
	{Symbol: "HK50", Name: "Hang Seng 50", AssetClass: domain.AssetClassAsianIndex, Region: "HK", Spread: 8.0, Session: domain.SessionWindow{Start: 3, End: 16}},
	{Symbol: "AUS200", Name: "ASX 200", AssetClass: domain.AssetClassAsianIndex, Region: "AU", Spread: 2.0, Session: domain.SessionWindow{Start: 1, End: 16}},
}

// DefaultUniverse returns a fresh copy of the built-in markets pool.
func DefaultUniverse() []domain.Instrument {
	out := make([]domain.Instrument, len(builtinMarkets))
	for i, inst := range builtinMarkets {
		inst.Pool = domain.PoolMarkets
		out[i] = inst
	}
	return out
}

type universeFile struct {
	Instruments []instrumentEntry `yaml:"instruments"`
}

type instrumentEntry struct {
	Symbol     string                `yaml:"symbol"`
	Name       string                `yaml:"name"`
	Pool       string                `yaml:"pool"`
	AssetClass string                `yaml:"asset_class"`
	Region     string                `yaml:"region"`
	Spread     *float64              `yaml:"spread"`
	Session    *domain.SessionWindow `yaml:"session"`
	SLGrid     []float64             `yaml:"sl_grid"`
	TPGrid     []float64             `yaml:"tp_grid"`
}

// LoadUniverse reads the instrument universe from a yaml file. An empty path
// returns DefaultUniverse. Entries missing spread, session, region or asset
// class inherit them from the built-in table when the symbol is known.
func LoadUniverse(path string) ([]domain.Instrument, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultUniverse(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}
	return ParseUniverse(raw)
}

func ParseUniverse(raw []byte) ([]domain.Instrument, error) {
	var file universeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	if len(file.Instruments) == 0 {
		return nil, errors.New("universe has no instruments")
	}

	known := make(map[string]domain.Instrument, len(builtinMarkets))
	for _, inst := range builtinMarkets {
		known[inst.Symbol] = inst
	}

	out := make([]domain.Instrument, 0, len(file.Instruments))
	seen := make(map[string]struct{}, len(file.Instruments))
	for i, e := range file.Instruments {
		inst, err := e.resolve(known)
		if err != nil {
			return nil, fmt.Errorf("instrument %d: %w", i, err)
		}
		if _, dup := seen[inst.Symbol]; dup {
			return nil, fmt.Errorf("instrument %d: duplicate symbol %s", i, inst.Symbol)
		}
		seen[inst.Symbol] = struct{}{}
		out = append(out, inst)
	}
	return out, nil
}

func (e instrumentEntry) resolve(known map[string]domain.Instrument) (domain.Instrument, error) {
	symbol := strings.ToUpper(strings.TrimSpace(e.Symbol))
	if symbol == "" {
		return domain.Instrument{}, errors.New("symbol is required")
	}

	base, ok := known[symbol]
	if !ok {
		base = domain.Instrument{
			AssetClass: domain.AssetClassDefault,
			Spread:     defaultSpread,
			Session:    defaultSession,
		}
	}

	inst := domain.Instrument{
		Symbol:     symbol,
		Name:       e.Name,
		Pool:       domain.PoolMarkets,
		AssetClass: base.AssetClass,
		Region:     base.Region,
		Spread:     base.Spread,
		Session:    base.Session,
		SLGrid:     e.SLGrid,
		TPGrid:     e.TPGrid,
	}
	if inst.Name == "" {
		inst.Name = base.Name
	}
	if e.Pool != "" {
		inst.Pool = domain.Pool(strings.ToLower(e.Pool))
	}
	if e.AssetClass != "" {
		inst.AssetClass = domain.AssetClass(strings.ToLower(e.AssetClass))
	}
	if e.Region != "" {
		inst.Region = e.Region
	}
	if e.Spread != nil {
		inst.Spread = *e.Spread
	}
	if e.Session != nil {
		inst.Session = *e.Session
	}

	if err := validate(inst); err != nil {
		return domain.Instrument{}, fmt.Errorf("%s: %w", symbol, err)
	}
	return inst, nil
}

func validate(inst domain.Instrument) error {
	if !inst.Pool.IsValid() {
		return fmt.Errorf("unknown pool %q", inst.Pool)
	}
	if !inst.AssetClass.IsValid() {
		return fmt.Errorf("unknown asset class %q", inst.AssetClass)
	}
	if inst.Spread < 0 {
		return fmt.Errorf("negative spread %v", inst.Spread)
	}
	s := inst.Session
	if s.Start < 0 || s.Start > 23 || s.End < 0 || s.End > 23 {
		return fmt.Errorf("session hours out of range: %d-%d", s.Start, s.End)
	}
	if s.Start > s.End {
		return fmt.Errorf("session start %d after end %d", s.Start, s.End)
	}
	// A nil axis falls back to the default grid; an explicit empty one is an error.
	grid := backtest.DefaultGrid()
	if inst.SLGrid != nil {
		grid.StopLoss = inst.SLGrid
	}
	if inst.TPGrid != nil {
		grid.TakeProfit = inst.TPGrid
	}
	return grid.Validate()
}

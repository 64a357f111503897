package backtest

import (
	"errors"
	"fmt"
	"slices"
)

var (
	DefaultStopLossGrid   = []float64{0.3, 0.5, 0.75, 1.0, 1.25, 1.5, 2.0}
	DefaultTakeProfitGrid = []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 4.0}
)

// Grid is the discrete stop-loss and take-profit search space, in percent.
type Grid struct {
	StopLoss   []float64
	TakeProfit []float64
}

func DefaultGrid() Grid {
	return Grid{
		StopLoss:   slices.Clone(DefaultStopLossGrid),
		TakeProfit: slices.Clone(DefaultTakeProfitGrid),
	}
}

// OrDefault fills an empty axis with the default values.
func (g Grid) OrDefault() Grid {
	if len(g.StopLoss) == 0 {
		g.StopLoss = slices.Clone(DefaultStopLossGrid)
	}
	if len(g.TakeProfit) == 0 {
		g.TakeProfit = slices.Clone(DefaultTakeProfitGrid)
	}
	return g
}

func (g Grid) Validate() error {
	if len(g.StopLoss) == 0 || len(g.TakeProfit) == 0 {
		return errors.New("grid axes must be non-empty")
	}
	for _, v := range g.StopLoss {
		if v <= 0 || v >= 100 {
			return fmt.Errorf("invalid stop-loss %.4g", v)
		}
	}
	for _, v := range g.TakeProfit {
		if v <= 0 {
			return fmt.Errorf("invalid take-profit %.4g", v)
		}
	}
	return nil
}

func (g Grid) Size() int {
	return len(g.StopLoss) * len(g.TakeProfit)
}

// Median returns the middle stop-loss and take-profit values.
func (g Grid) Median() (sl, tp float64) {
	return g.StopLoss[len(g.StopLoss)/2], g.TakeProfit[len(g.TakeProfit)/2]
}

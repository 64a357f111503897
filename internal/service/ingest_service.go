package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
)

// MaxBarsPerUpload bounds a single ingest request.
const MaxBarsPerUpload = 20000

type BarSink interface {
	InsertBars(ctx context.Context, bars []domain.PriceBar) (int, error)
}

type IngestService struct {
	tracer   trace.Tracer
	logger   *log.Logger
	universe *Universe
	sink     BarSink
}

func NewIngestService(tracer trace.Tracer, logger *log.Logger, universe *Universe, sink BarSink) *IngestService {
	return &IngestService{tracer: tracer, logger: logger, universe: universe, sink: sink}
}

// Ingest validates and stores bars for one symbol and timeframe. Bars that
// already exist are counted as duplicates and left unchanged.
func (s *IngestService) Ingest(ctx context.Context, symbol string, tf domain.Timeframe, bars []domain.PriceBar) (domain.BarIngest, error) {
	ctx, span := s.tracer.Start(ctx, "ingest-service.ingest")
	defer span.End()

	inst, err := s.universe.Lookup(symbol)
	if err != nil {
		return domain.BarIngest{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if tf == "" {
		tf = domain.TimeframeH1
	}
	tf = domain.Timeframe(strings.ToUpper(string(tf)))
	if tf != domain.TimeframeH1 && tf != domain.TimeframeM5 {
		return domain.BarIngest{}, fmt.Errorf("%w: unsupported timeframe %q", ErrInvalidInput, tf)
	}
	if len(bars) > MaxBarsPerUpload {
		return domain.BarIngest{}, fmt.Errorf("%w: %d bars exceeds limit of %d", ErrInvalidInput, len(bars), MaxBarsPerUpload)
	}

	for i := range bars {
		b := &bars[i]
		if err := validateBar(*b); err != nil {
			return domain.BarIngest{}, fmt.Errorf("%w: bar %d: %v", ErrInvalidInput, i, err)
		}
		b.Symbol = inst.Symbol
		b.Timeframe = tf
		b.OpenTime = b.OpenTime.UTC()
	}

	inserted, err := s.sink.InsertBars(ctx, bars)
	if err != nil {
		return domain.BarIngest{}, err
	}
	res := domain.BarIngest{
		Symbol:     inst.Symbol,
		Received:   len(bars),
		Inserted:   inserted,
		Duplicates: len(bars) - inserted,
	}
	s.logger.Info("bars ingested", "symbol", res.Symbol, "timeframe", tf,
		"received", res.Received, "inserted", res.Inserted, "duplicates", res.Duplicates)
	return res, nil
}

func validateBar(b domain.PriceBar) error {
	if b.OpenTime.IsZero() {
		return fmt.Errorf("missing time")
	}
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("non-positive or non-finite price")
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("high %v below low %v", b.High, b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume")
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"longentry/internal/domain"
)

type FundamentalStore interface {
	GetOutlook(ctx context.Context, region string) (*domain.RegionOutlook, error)
	ListOutlooks(ctx context.Context) ([]domain.RegionOutlook, error)
	UpsertOutlook(ctx context.Context, o domain.RegionOutlook) (domain.RegionOutlook, error)
	ListEvents(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error)
	AddEvent(ctx context.Context, e domain.EconomicEvent) (domain.EconomicEvent, error)
	DeleteEvent(ctx context.Context, id int64) (bool, error)
}

// OutlookPatch carries the fields of a partial outlook update.
type OutlookPatch struct {
	CBStance       *float64 `json:"cb_stance"`
	GrowthOutlook  *float64 `json:"growth_outlook"`
	InflationTrend *float64 `json:"inflation_trend"`
	RiskSentiment  *float64 `json:"risk_sentiment"`
	Notes          *string  `json:"notes"`
}

type FundamentalService struct {
	tracer trace.Tracer
	store  FundamentalStore
}

func NewFundamentalService(tracer trace.Tracer, store FundamentalStore) *FundamentalService {
	return &FundamentalService{tracer: tracer, store: store}
}

func (s *FundamentalService) Outlooks(ctx context.Context) ([]domain.RegionOutlook, error) {
	ctx, span := s.tracer.Start(ctx, "fundamental-service.outlooks")
	defer span.End()
	return s.store.ListOutlooks(ctx)
}

// UpdateOutlook merges patch into the region's outlook, creating it with
// neutral components when absent.
func (s *FundamentalService) UpdateOutlook(ctx context.Context, region string, patch OutlookPatch) (domain.RegionOutlook, error) {
	ctx, span := s.tracer.Start(ctx, "fundamental-service.update-outlook")
	defer span.End()

	region = strings.TrimSpace(region)
	if region == "" {
		return domain.RegionOutlook{}, fmt.Errorf("%w: region is required", ErrInvalidInput)
	}

	current, err := s.store.GetOutlook(ctx, region)
	if err != nil {
		return domain.RegionOutlook{}, err
	}
	o := domain.RegionOutlook{Region: region}
	if current != nil {
		o = *current
	}

	fields := []struct {
		name string
		val  *float64
		dst  *float64
	}{
		{"cb_stance", patch.CBStance, &o.CBStance},
		{"growth_outlook", patch.GrowthOutlook, &o.GrowthOutlook},
		{"inflation_trend", patch.InflationTrend, &o.InflationTrend},
		{"risk_sentiment", patch.RiskSentiment, &o.RiskSentiment},
	}
	for _, f := range fields {
		if f.val == nil {
			continue
		}
		if *f.val < -1 || *f.val > 1 {
			return domain.RegionOutlook{}, fmt.Errorf("%w: %s must be within [-1, 1]", ErrInvalidInput, f.name)
		}
		*f.dst = *f.val
	}
	if patch.Notes != nil {
		o.Notes = patch.Notes
	}
	return s.store.UpsertOutlook(ctx, o)
}

func (s *FundamentalService) Events(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error) {
	ctx, span := s.tracer.Start(ctx, "fundamental-service.events")
	defer span.End()

	if to.Before(from) {
		return nil, fmt.Errorf("%w: to before from", ErrInvalidInput)
	}
	return s.store.ListEvents(ctx, from, to)
}

func (s *FundamentalService) AddEvent(ctx context.Context, e domain.EconomicEvent) (domain.EconomicEvent, error) {
	ctx, span := s.tracer.Start(ctx, "fundamental-service.add-event")
	defer span.End()

	e.Region = strings.TrimSpace(e.Region)
	e.Title = strings.TrimSpace(e.Title)
	if e.Impact == "" {
		e.Impact = domain.ImpactMedium
	}
	switch {
	case e.Region == "" || e.Title == "":
		return domain.EconomicEvent{}, fmt.Errorf("%w: region and title are required", ErrInvalidInput)
	case e.EventDate.IsZero():
		return domain.EconomicEvent{}, fmt.Errorf("%w: event_date is required", ErrInvalidInput)
	case !e.Impact.IsValid():
		return domain.EconomicEvent{}, fmt.Errorf("%w: impact must be high, medium or low", ErrInvalidInput)
	}
	return s.store.AddEvent(ctx, e)
}

func (s *FundamentalService) DeleteEvent(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "fundamental-service.delete-event")
	defer span.End()

	deleted, err := s.store.DeleteEvent(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("event %d: %w", id, domain.ErrNoData)
	}
	return nil
}

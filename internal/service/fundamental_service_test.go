package service

import (
	"context"
	"errors"
	"testing"

	"longentry/internal/domain"
	"longentry/internal/numeric"
)

func TestUpdateOutlookMergesPatch(t *testing.T) {
	store := &fakeFundamentalStore{outlooks: map[string]domain.RegionOutlook{
		"US": {Region: "US", CBStance: 0.5, GrowthOutlook: 0.2},
	}}
	svc := NewFundamentalService(testTracer, store)

	got, err := svc.UpdateOutlook(context.Background(), "US", OutlookPatch{RiskSentiment: numeric.Ptr(-0.4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CBStance != 0.5 || got.GrowthOutlook != 0.2 || got.RiskSentiment != -0.4 {
		t.Fatalf("expected untouched fields preserved, got %+v", got)
	}
}

func TestUpdateOutlookCreatesRegion(t *testing.T) {
	store := &fakeFundamentalStore{}
	svc := NewFundamentalService(testTracer, store)

	got, err := svc.UpdateOutlook(context.Background(), "JP", OutlookPatch{CBStance: numeric.Ptr(1.0), Notes: numeric.Ptr("easing")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Region != "JP" || got.CBStance != 1 || got.GrowthOutlook != 0 || *got.Notes != "easing" {
		t.Fatalf("unexpected outlook: %+v", got)
	}
}

func TestUpdateOutlookRejectsOutOfRange(t *testing.T) {
	svc := NewFundamentalService(testTracer, &fakeFundamentalStore{})

	_, err := svc.UpdateOutlook(context.Background(), "US", OutlookPatch{InflationTrend: numeric.Ptr(1.5)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = svc.UpdateOutlook(context.Background(), " ", OutlookPatch{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank region, got %v", err)
	}
}

func TestEventsLifecycle(t *testing.T) {
	store := &fakeFundamentalStore{}
	svc := NewFundamentalService(testTracer, store)
	ctx := context.Background()

	ev, err := svc.AddEvent(ctx, domain.EconomicEvent{Region: "US", Title: " FOMC ", EventDate: testWeek})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID == 0 || ev.Impact != domain.ImpactMedium || ev.Title != "FOMC" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	if _, err := svc.AddEvent(ctx, domain.EconomicEvent{Region: "US", Title: "CPI", EventDate: testWeek, Impact: "extreme"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad impact, got %v", err)
	}
	if _, err := svc.AddEvent(ctx, domain.EconomicEvent{Region: "US", Title: "CPI"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing date, got %v", err)
	}

	if _, err := svc.Events(ctx, testWeek, testWeek.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}

	if err := svc.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteEvent(ctx, ev.ID); !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData on second delete, got %v", err)
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/config"
	"longentry/internal/domain"
	"longentry/internal/service"
	"longentry/pkg/tracing"
)

type stubRunner struct {
	report *service.RunReport
	err    error
}

func (s stubRunner) RunWeekly(context.Context) (*service.RunReport, error) {
	return s.report, s.err
}

func ptr[T any](v T) *T { return &v }

func sampleReport() *service.RunReport {
	return &service.RunReport{
		RunID: "run-1",
		Week:  time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Scores: []domain.WeeklyScore{
			{
				Symbol:           "GER40",
				Pool:             domain.PoolMarkets,
				Rank:             ptr(1),
				FinalScore:       ptr(71.3),
				TechnicalScore:   ptr(64.0),
				BacktestScore:    ptr(80.0),
				FundamentalScore: ptr(55.0),
				Optimal:          &domain.OptimalParameters{EntryHour: 9, StopLossPct: 0.5, TakeProfitPct: 1.5},
				IsActive:         true,
			},
			{
				Symbol:               "UK100",
				Pool:                 domain.PoolMarkets,
				Rank:                 ptr(2),
				FinalScore:           ptr(38.0),
				IsManuallyOverridden: true,
			},
		},
		Errors: []service.InstrumentError{{Symbol: "JP225", Err: errors.New("no bars")}},
	}
}

func stubAnalyzeDeps(r runner) (*bytes.Buffer, func()) {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origLoadUniverse := loadUniverseFunc
	origInitPostgres := initPostgresFunc
	origInitTracer := initTracerFunc
	origNewRunner := newRunnerFunc
	origStdout := stdout
	origExit := exitFunc

	var out bytes.Buffer
	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config { return &config.Config{AnalysisWorkers: 1, SweepWorkers: 1} }
	loadUniverseFunc = func(string) ([]domain.Instrument, error) { return config.DefaultUniverse(), nil }
	initPostgresFunc = func(context.Context, string, int) error { return nil }
	initTracerFunc = func(context.Context, tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newRunnerFunc = func(trace.Tracer, *config.Config, *service.Universe) runner { return r }
	stdout = &out
	exitFunc = func(int) {}

	return &out, func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		loadUniverseFunc = origLoadUniverse
		initPostgresFunc = origInitPostgres
		initTracerFunc = origInitTracer
		newRunnerFunc = origNewRunner
		stdout = origStdout
		exitFunc = origExit
	}
}

func TestRunSuccessPrintsTable(t *testing.T) {
	out, restore := stubAnalyzeDeps(stubRunner{report: sampleReport()})
	defer restore()

	if code := run(); code != exitOK {
		t.Fatalf("expected exit %d, got %d", exitOK, code)
	}
	text := out.String()
	for _, want := range []string{"week 2026-03-09", "GER40", "71.3", "09:00 SL 0.50% TP 1.50%", "inactive (pinned)", "error: no bars"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunWithoutEnvFile(t *testing.T) {
	out, restore := stubAnalyzeDeps(stubRunner{report: sampleReport()})
	defer restore()
	loadEnvFunc = func(...string) error { return os.ErrNotExist }

	if code := run(); code != exitOK {
		t.Fatalf("expected exit %d without a .env file, got %d", exitOK, code)
	}
	if !strings.Contains(out.String(), "GER40") {
		t.Fatal("expected the report to be printed")
	}
}

func TestRunMajorityFailureExitsOne(t *testing.T) {
	err := fmt.Errorf("%w: 3 of 4", domain.ErrMajorityFailed)
	out, restore := stubAnalyzeDeps(stubRunner{report: sampleReport(), err: err})
	defer restore()

	if code := run(); code != exitPartial {
		t.Fatalf("expected exit %d, got %d", exitPartial, code)
	}
	if !strings.Contains(out.String(), "GER40") {
		t.Fatal("expected the partial report to be printed")
	}
}

func TestRunHardFailureExitsTwo(t *testing.T) {
	_, restore := stubAnalyzeDeps(stubRunner{err: errors.New("persist scores: connection reset")})
	defer restore()

	if code := run(); code != exitSetup {
		t.Fatalf("expected exit %d, got %d", exitSetup, code)
	}
}

func TestRunSetupFailures(t *testing.T) {
	cases := []struct {
		name   string
		breaks func()
	}{
		{"universe", func() {
			loadUniverseFunc = func(string) ([]domain.Instrument, error) { return nil, errors.New("bad yaml") }
		}},
		{"tracer", func() {
			initTracerFunc = func(context.Context, tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
				return nil, nil, errors.New("no exporter")
			}
		}},
		{"postgres", func() {
			initPostgresFunc = func(context.Context, string, int) error { return errors.New("DATABASE_URL is required") }
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, restore := stubAnalyzeDeps(stubRunner{report: sampleReport()})
			defer restore()
			tc.breaks()

			if code := run(); code != exitSetup {
				t.Fatalf("expected exit %d, got %d", exitSetup, code)
			}
		})
	}
}

func TestMainPassesExitCode(t *testing.T) {
	_, restore := stubAnalyzeDeps(stubRunner{err: errors.New("boom")})
	defer restore()

	got := -1
	exitFunc = func(code int) { got = code }
	main()
	if got != exitSetup {
		t.Fatalf("expected exit %d, got %d", exitSetup, got)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"

	"longentry/internal/config"
	"longentry/internal/db"
	"longentry/internal/domain"
	"longentry/internal/fundamental"
	"longentry/internal/repository"
	"longentry/internal/service"
	"longentry/pkg/logging"
	"longentry/pkg/tracing"
)

const (
	exitOK      = 0
	exitPartial = 1
	exitSetup   = 2
)

type runner interface {
	RunWeekly(ctx context.Context) (*service.RunReport, error)
}

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	loadUniverseFunc = config.LoadUniverse
	initPostgresFunc = db.InitPostgres
	initTracerFunc   = tracing.Init
	newRunnerFunc    = func(tracer trace.Tracer, cfg *config.Config, universe *service.Universe) runner {
		analysisRepo := repository.NewAnalysisRepository(db.Pool, tracer)
		results := service.NewResultService(tracer, logging.New("results"), universe, repository.NewResultRepository(db.Pool, tracer))
		policies := service.NewPolicyService(tracer, repository.NewPolicyRepository(db.Pool, tracer), service.RankingDefaults{
			MaxActive: map[domain.Pool]int{
				domain.PoolMarkets: cfg.MaxActiveMarkets,
				domain.PoolStocks:  cfg.MaxActiveStocks,
			},
			MinScore: cfg.MinFinalScore,
		})
		return service.NewAnalysisService(
			tracer,
			logging.New("analysis"),
			universe,
			repository.NewBarRepository(db.Pool, tracer),
			analysisRepo,
			fundamental.NewScorer(repository.NewFundamentalRepository(db.Pool, tracer), logging.New("fundamental")),
			policies,
			results,
			service.AnalysisConfig{
				Workers:         cfg.AnalysisWorkers,
				SweepWorkers:    cfg.SweepWorkers,
				BarLookbackDays: cfg.BarLookbackDays,
			},
		)
	}
	stdout   io.Writer = os.Stdout
	exitFunc           = os.Exit
)

func main() {
	exitFunc(run())
}

func run() int {
	envErr := loadEnvFunc()
	logger := logging.New("analyze")
	if envErr != nil {
		logger.Debug("no .env loaded", "err", envErr)
	}
	cfg := loadConfigFunc()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instruments, err := loadUniverseFunc(cfg.UniverseFile)
	if err != nil {
		logger.Error("failed to load instrument universe", "path", cfg.UniverseFile, "err", err)
		return exitSetup
	}
	universe := service.NewUniverse(instruments)

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		Enabled:   cfg.TracingEnabled,
		Endpoint:  cfg.OTLPEndpoint,
		Component: "analyze",
	})
	if err != nil {
		logger.Error("failed to initialize tracer", "err", err)
		return exitSetup
	}
	defer func() {
		if err := tracing.Shutdown(tp, 5*time.Second); err != nil {
			logger.Warn("error shutting down tracer provider", "err", err)
		}
	}()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL, cfg.AnalysisWorkers); err != nil {
		logger.Error("failed to connect to postgres", "err", err)
		return exitSetup
	}
	defer db.Close()

	report, err := newRunnerFunc(tracer, cfg, universe).RunWeekly(ctx)
	if report != nil {
		fmt.Fprintln(stdout, renderReport(report))
	}
	switch {
	case errors.Is(err, domain.ErrMajorityFailed):
		logger.Error("analysis failed for most instruments", "err", err)
		return exitPartial
	case err != nil:
		logger.Error("analysis run failed", "err", err)
		return exitSetup
	}

	logger.Info("analysis complete",
		"run_id", report.RunID,
		"week", report.Week.Format(time.DateOnly),
		"analyzed", len(report.Scores),
		"failed", len(report.Errors),
		"duration", report.Duration.Round(time.Millisecond),
	)
	return exitOK
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	activeStyle = cellStyle.Foreground(lipgloss.Color("10"))
)

// renderReport draws one row per scored instrument in rank order, followed by
// the instruments that failed.
func renderReport(r *service.RunReport) string {
	rows := make([][]string, 0, len(r.Scores)+len(r.Errors))
	for _, s := range r.Scores {
		rows = append(rows, []string{
			s.Symbol,
			string(s.Pool),
			intOrDash(s.Rank),
			scoreOrDash(s.FinalScore),
			scoreOrDash(s.TechnicalScore),
			scoreOrDash(s.BacktestScore),
			scoreOrDash(s.FundamentalScore),
			entryOrDash(s.Optimal),
			activeLabel(s),
		})
	}
	for _, e := range r.Errors {
		rows = append(rows, []string{e.Symbol, "", "-", "-", "-", "-", "-", "-", "error: " + e.Err.Error()})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SYMBOL", "POOL", "RANK", "FINAL", "TECH", "BT", "FUND", "ENTRY", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < len(r.Scores) && r.Scores[row].IsActive {
				return activeStyle
			}
			return cellStyle
		})

	return fmt.Sprintf("week %s  run %s\n%s", r.Week.Format(time.DateOnly), r.RunID, t.Render())
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func scoreOrDash(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', 1, 64)
}

func entryOrDash(o *domain.OptimalParameters) string {
	if o == nil {
		return "-"
	}
	return fmt.Sprintf("%02d:00 SL %.2f%% TP %.2f%%", o.EntryHour, o.StopLossPct, o.TakeProfitPct)
}

func activeLabel(s domain.WeeklyScore) string {
	switch {
	case s.IsActive && s.IsManuallyOverridden:
		return "active (pinned)"
	case s.IsActive:
		return "active"
	case s.IsManuallyOverridden:
		return "inactive (pinned)"
	}
	return ""
}

package domain

import "time"

// TechnicalMetrics is the indicator bundle computed from one instrument's
// daily series. Nil pointers mean the indicator was undefined for the
// available history.
type TechnicalMetrics struct {
	CurrentPrice   float64  `json:"current_price"`
	SMA20          *float64 `json:"sma_20"`
	SMA50          *float64 `json:"sma_50"`
	SMA200         *float64 `json:"sma_200"`
	RSI14          *float64 `json:"rsi_14"`
	ATR14          *float64 `json:"atr_14"`
	DailyRangePct  float64  `json:"daily_range_pct"`
	Change1W       *float64 `json:"change_1w"`
	Change2W       *float64 `json:"change_2w"`
	Change1M       *float64 `json:"change_1m"`
	Change3M       *float64 `json:"change_3m"`
	UpDayWinRate   float64  `json:"up_day_win_rate"`
	AvgDailyGrowth float64  `json:"avg_daily_growth"`
	AvgDailyLoss   float64  `json:"avg_daily_loss"`
	MostBullishDay float64  `json:"most_bullish_day"`
	MostBearishDay float64  `json:"most_bearish_day"`
	CandleCount    int      `json:"candle_count"`
	DailyBarCount  int      `json:"daily_bar_count"`
}

// TechnicalScore is the composite technical score with its sub-scores.
type TechnicalScore struct {
	WinRate    float64 `json:"win_rate"`
	GrowthLoss float64 `json:"growth_loss"`
	Trend      float64 `json:"trend"`
	RSI        float64 `json:"rsi"`
	Momentum   float64 `json:"momentum"`
	Volatility float64 `json:"volatility"`
	Total      float64 `json:"total"`
}

type SimulationResult struct {
	TotalReturn        float64 `json:"total_return"`
	WinRate            float64 `json:"win_rate"`
	ProfitFactor       float64 `json:"profit_factor"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	TotalTrades        int     `json:"total_trades"`
	Wins               int     `json:"wins"`
	Losses             int     `json:"losses"`
	AmbiguousFallbacks int     `json:"-"`
}

type OptimalParameters struct {
	EntryHour     int     `json:"entry_hour"`
	StopLossPct   float64 `json:"sl_pct"`
	TakeProfitPct float64 `json:"tp_pct"`
}

// Same reports an exact match on all three parameters.
func (p OptimalParameters) Same(o OptimalParameters) bool {
	return p.EntryHour == o.EntryHour && p.StopLossPct == o.StopLossPct && p.TakeProfitPct == o.TakeProfitPct
}

// WeeklyScore is the ranking unit for one instrument in one week. Nullable
// columns are pointers because an override can create a row before any
// analysis ran.
type WeeklyScore struct {
	Symbol               string             `json:"symbol"`
	WeekStart            time.Time          `json:"week_start"`
	Pool                 Pool               `json:"pool"`
	TechnicalScore       *float64           `json:"technical_score"`
	BacktestScore        *float64           `json:"backtest_score"`
	FundamentalScore     *float64           `json:"fundamental_score"`
	AIScore              *float64           `json:"ai_score,omitempty"`
	AIConfidence         *float64           `json:"ai_confidence,omitempty"`
	AIBias               *string            `json:"ai_bias,omitempty"`
	FinalScore           *float64           `json:"final_score"`
	Rank                 *int               `json:"rank"`
	IsActive             bool               `json:"is_active"`
	IsManuallyOverridden bool               `json:"is_manually_overridden"`
	Optimal              *OptimalParameters `json:"optimal,omitempty"`
	Backtest             *SimulationResult  `json:"backtest,omitempty"`
	Stability            *float64           `json:"stability,omitempty"`
	Metrics              *TechnicalMetrics  `json:"metrics,omitempty"`
}

// AIAssessment is the externally supplied AI view of a symbol for one week.
// The analysis blends Score but never computes any of it.
type AIAssessment struct {
	Score      float64
	Confidence *float64
	Bias       *string
}

// MarketConfig is the per-symbol trading configuration consumed by the EA.
type MarketConfig struct {
	Symbol      string  `json:"symbol"`
	Active      bool    `json:"active"`
	EntryHour   int     `json:"entryHour"`
	EntryMinute int     `json:"entryMinute"`
	SLPercent   float64 `json:"slPercent"`
	TPPercent   float64 `json:"tpPercent"`
	WeekStart   string  `json:"weekStart"`
}

// DefaultMarketConfig is returned for symbols with no analysis this week.
func DefaultMarketConfig(symbol string, week time.Time) MarketConfig {
	return MarketConfig{Symbol: symbol, WeekStart: week.Format(time.DateOnly)}
}

type MaxActive struct {
	Pool        Pool `json:"pool"`
	MaxActive   int  `json:"maxActive"`
	ActiveCount int  `json:"activeCount"`
}

// RankingPolicyRecord is the stored, runtime-adjustable policy for one pool.
type RankingPolicyRecord struct {
	Pool          Pool      `json:"pool"`
	MaxActive     int       `json:"max_active"`
	MinFinalScore float64   `json:"min_final_score"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WeeklyResult is the realized trading outcome reported for one week.
type WeeklyResult struct {
	Symbol          string    `json:"symbol"`
	WeekStart       time.Time `json:"week_start"`
	TradesTaken     int       `json:"trades_taken"`
	Wins            int       `json:"wins"`
	Losses          int       `json:"losses"`
	TotalPnLPercent float64   `json:"total_pnl_percent"`
	WasActive       *bool     `json:"was_active"`
}

type HeatmapCell struct {
	SLPct        float64 `json:"sl_pct"`
	TPPct        float64 `json:"tp_pct"`
	TotalReturn  float64 `json:"total_return"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	TotalTrades  int     `json:"total_trades"`
}

type HourReturn struct {
	Hour        int     `json:"hour"`
	TotalReturn float64 `json:"total_return"`
	WinRate     float64 `json:"win_rate"`
}

type Heatmap struct {
	Symbol           string        `json:"symbol"`
	EntryHour        int           `json:"entry_hour"`
	Grid             []HeatmapCell `json:"grid"`
	EntryHourReturns []HourReturn  `json:"entry_hour_returns"`
}

// RegionOutlook holds directional macro views in [-1, 1].
type RegionOutlook struct {
	Region         string    `json:"region"`
	CBStance       float64   `json:"cb_stance"`
	GrowthOutlook  float64   `json:"growth_outlook"`
	InflationTrend float64   `json:"inflation_trend"`
	RiskSentiment  float64   `json:"risk_sentiment"`
	Notes          *string   `json:"notes,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type EventImpact string

const (
	ImpactLow    EventImpact = "low"
	ImpactMedium EventImpact = "medium"
	ImpactHigh   EventImpact = "high"
)

func (i EventImpact) IsValid() bool {
	return i == ImpactLow || i == ImpactMedium || i == ImpactHigh
}

type EconomicEvent struct {
	ID        int64       `json:"id"`
	Region    string      `json:"region"`
	EventDate time.Time   `json:"event_date"`
	Title     string      `json:"title"`
	Impact    EventImpact `json:"impact"`
}

// WeeklyResultSummary totals the reported results of one week.
type WeeklyResultSummary struct {
	WeekStart       time.Time      `json:"week_start"`
	TotalTrades     int            `json:"total_trades"`
	TotalWins       int            `json:"total_wins"`
	TotalLosses     int            `json:"total_losses"`
	TotalPnLPercent float64        `json:"total_pnl_percent"`
	ActiveMarkets   int            `json:"active_markets"`
	Results         []WeeklyResult `json:"results"`
}

// BarIngest reports the outcome of one bar upload.
type BarIngest struct {
	Symbol     string `json:"symbol"`
	Received   int    `json:"received"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
}

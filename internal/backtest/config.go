package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/config"
	"github.com/yourusername/smart-lay/internal/models"
	"github.com/yourusername/smart-lay/internal/strategy"
)

// DefaultSharpeAnnualisation assumes about seven wagers a day over 300 racing days
const DefaultSharpeAnnualisation = 7 * 300

// Request describes one backtest run
type Request struct {
	Name                string
	Rules               strategy.Rules
	Stake               strategy.StakeManagement
	StartDate           time.Time
	EndDate             time.Time
	InitialBankroll     decimal.Decimal
	SharpeAnnualisation float64
}

// FromConfig converts app config to a backtest request
func FromConfig(cfg *config.Config) (Request, error) {
	if cfg == nil {
		return Request{}, models.NewConfigurationError("config", "config is required")
	}
	start, err := time.Parse(models.DateLayout, cfg.Backtest.StartDate)
	if err != nil {
		return Request{}, models.NewConfigurationError("start_date", err.Error())
	}
	end, err := time.Parse(models.DateLayout, cfg.Backtest.EndDate)
	if err != nil {
		return Request{}, models.NewConfigurationError("end_date", err.Error())
	}

	rules, err := strategy.RulesFromConfig(&cfg.Rules)
	if err != nil {
		return Request{}, err
	}
	stake, err := strategy.StakeManagementFromConfig(&cfg.Stake)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Name:                cfg.App.Name,
		Rules:               rules,
		Stake:               stake,
		StartDate:           start,
		EndDate:             end,
		InitialBankroll:     decimal.NewFromFloat(cfg.Backtest.InitialBankroll),
		SharpeAnnualisation: cfg.Backtest.SharpeAnnualisation,
	}

	return req, req.Validate()
}

// Validate validates the request; every failure is a ConfigurationError
func (r *Request) Validate() error {
	if err := r.Rules.Validate(); err != nil {
		return err
	}
	if err := r.Stake.Validate(); err != nil {
		return err
	}
	if !r.InitialBankroll.IsPositive() {
		return models.NewConfigurationError("initial_bankroll", fmt.Sprintf("must be positive, got %s", r.InitialBankroll.String()))
	}
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() && r.StartDate.After(r.EndDate) {
		return models.NewConfigurationError("start_date", "start date must not be after end date")
	}
	if r.SharpeAnnualisation < 0 {
		return models.NewConfigurationError("sharpe_annualisation", "must not be negative")
	}
	return nil
}

// inRange reports whether a race date lies in the inclusive request window;
// a zero bound is open
func (r *Request) inRange(day time.Time) bool {
	if !r.StartDate.IsZero() && day.Before(r.StartDate) {
		return false
	}
	if !r.EndDate.IsZero() && day.After(r.EndDate) {
		return false
	}
	return true
}

func (r *Request) annualisation() float64 {
	if r.SharpeAnnualisation == 0 {
		return DefaultSharpeAnnualisation
	}
	return r.SharpeAnnualisation
}

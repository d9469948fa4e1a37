package risk

import (
	"fmt"
	"sync"
	"time"

	"ForexTradeBot/config"

	"go.uber.org/zap"
)

// DailyStats tracks one trading day of account activity.
type DailyStats struct {
	Date            string
	StartingBalance float64
	CurrentBalance  float64
	PeakBalance     float64
	TradesCount     int
	Wins            int
	Losses          int
	TotalProfit     float64
	TotalLoss       float64
	MaxDrawdown     float64
	IsLocked        bool
	LockReason      string
}

// RiskStatus is a point-in-time snapshot for callers and logs.
type RiskStatus struct {
	DailyPnL        float64
	DailyPnLPercent float64
	Drawdown        float64
	DrawdownPercent float64
	CanTrade        bool
	LockReason      string
	SizeMultiplier  float64
	Warnings        []string
}

// PositionSize is the sizing decision for a prospective trade.
type PositionSize struct {
	Units       int
	RiskAmount  float64
	RiskPercent float64
	Multiplier  float64
	CanTrade    bool
	Reason      string
}

// GateResult answers whether a new position may be opened.
type GateResult struct {
	Allowed bool
	Reason  string
}

// RiskManager enforces the account protection rules: a daily loss limit,
// a drawdown limit from the daily peak, a consecutive-loss limit, and
// portfolio constraints (one position per instrument, capped aggregate
// risk). Once a limit trips the day stays locked even if the balance
// recovers; only ResetLock or the next day clears it.
type RiskManager struct {
	mu  sync.Mutex
	cfg config.RiskConfig
	log *zap.Logger

	daily             *DailyStats
	consecutiveLosses int
	lastTradeWasLoss  bool

	openPositions map[string]float64 // instrument -> risk percent
	aggregateRisk float64
	approved      map[string]bool

	now func() time.Time
}

func NewRiskManager(cfg config.RiskConfig, instruments []string, log *zap.Logger) *RiskManager {
	approved := make(map[string]bool, len(instruments))
	for _, inst := range instruments {
		approved[inst] = true
	}
	return &RiskManager{
		cfg:           cfg,
		log:           log,
		openPositions: make(map[string]float64),
		approved:      approved,
		now:           time.Now,
	}
}

func (m *RiskManager) today() string {
	return m.now().UTC().Format("2006-01-02")
}

// InitializeDay starts a fresh daily window. The daily lock and the
// consecutive-loss counter both reset with the new day.
func (m *RiskManager) InitializeDay(balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initializeDayLocked(balance)
}

func (m *RiskManager) initializeDayLocked(balance float64) {
	m.daily = &DailyStats{
		Date:            m.today(),
		StartingBalance: balance,
		CurrentBalance:  balance,
		PeakBalance:     balance,
	}
	m.consecutiveLosses = 0
	m.log.Info("daily risk window initialized",
		zap.String("date", m.daily.Date),
		zap.Float64("balance", balance))
}

// UpdateBalance feeds the latest account balance through the daily limits.
// A locked day stays locked regardless of recovery.
func (m *RiskManager) UpdateBalance(balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.daily == nil || m.daily.Date != m.today() {
		m.initializeDayLocked(balance)
		return
	}
	if m.daily.IsLocked {
		m.daily.CurrentBalance = balance
		return
	}

	m.daily.CurrentBalance = balance
	if balance > m.daily.PeakBalance {
		m.daily.PeakBalance = balance
	}

	drawdown := 0.0
	if m.daily.PeakBalance > 0 {
		drawdown = (m.daily.PeakBalance - balance) / m.daily.PeakBalance * 100
	}
	if drawdown > m.daily.MaxDrawdown {
		m.daily.MaxDrawdown = drawdown
	}

	pnlPercent := 0.0
	if m.daily.StartingBalance > 0 {
		pnlPercent = (balance - m.daily.StartingBalance) / m.daily.StartingBalance * 100
	}

	switch {
	case pnlPercent <= -m.cfg.MaxDailyLossPercent:
		m.lockLocked(fmt.Sprintf("daily loss limit reached (%.2f%%)", pnlPercent))
	case drawdown >= m.cfg.MaxDrawdownPercent:
		m.lockLocked(fmt.Sprintf("drawdown limit reached (%.2f%%)", drawdown))
	}
}

// RecordTrade registers a closed trade's result.
func (m *RiskManager) RecordTrade(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.daily == nil || m.daily.Date != m.today() {
		m.initializeDayLocked(m.currentBalanceLocked())
	}

	m.daily.TradesCount++
	if pnl >= 0 {
		m.daily.Wins++
		m.daily.TotalProfit += pnl
		m.consecutiveLosses = 0
		m.lastTradeWasLoss = false
	} else {
		m.daily.Losses++
		m.daily.TotalLoss += -pnl
		m.consecutiveLosses++
		m.lastTradeWasLoss = true
	}

	if !m.daily.IsLocked && m.consecutiveLosses >= m.cfg.MaxConsecutiveLosses {
		m.lockLocked(fmt.Sprintf("%d consecutive losses", m.consecutiveLosses))
	}
}

func (m *RiskManager) currentBalanceLocked() float64 {
	if m.daily != nil {
		return m.daily.CurrentBalance
	}
	return 0
}

func (m *RiskManager) lockLocked(reason string) {
	m.daily.IsLocked = true
	m.daily.LockReason = reason
	m.log.Warn("trading locked", zap.String("reason", reason))
}

// ResetLock clears the daily lock manually.
func (m *RiskManager) ResetLock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.daily != nil {
		m.daily.IsLocked = false
		m.daily.LockReason = ""
	}
	m.consecutiveLosses = 0
	m.log.Info("risk lock reset")
}

// SizeMultiplier is 1.0 normally and the configured reduction factor after
// a losing trade, until a win restores it.
func (m *RiskManager) SizeMultiplier() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sizeMultiplierLocked()
}

func (m *RiskManager) sizeMultiplierLocked() float64 {
	if m.lastTradeWasLoss {
		return m.cfg.SizeReductionFactor
	}
	return 1.0
}

// CalculatePositionSize converts account balance and stop distance into
// whole units. pipValue is the account-currency value of one pip per unit.
func (m *RiskManager) CalculatePositionSize(balance, slPips, pipValue float64) PositionSize {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.daily != nil && m.daily.IsLocked {
		return PositionSize{CanTrade: false, Reason: m.daily.LockReason}
	}
	if slPips <= 0 || pipValue <= 0 || balance <= 0 {
		return PositionSize{CanTrade: false, Reason: "invalid sizing inputs"}
	}

	multiplier := m.sizeMultiplierLocked()
	riskPercent := m.cfg.BaseRiskPercent * multiplier
	riskAmount := balance * riskPercent / 100
	units := int(riskAmount / (slPips * pipValue))

	if units < 1 {
		return PositionSize{
			RiskAmount:  riskAmount,
			RiskPercent: riskPercent,
			Multiplier:  multiplier,
			CanTrade:    false,
			Reason:      "position size below one unit",
		}
	}

	return PositionSize{
		Units:       units,
		RiskAmount:  riskAmount,
		RiskPercent: riskPercent,
		Multiplier:  multiplier,
		CanTrade:    true,
	}
}

// CanOpenPosition applies the portfolio gates for a prospective position.
func (m *RiskManager) CanOpenPosition(instrument string, riskPercent float64) GateResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.daily != nil && m.daily.IsLocked {
		return GateResult{Allowed: false, Reason: m.daily.LockReason}
	}
	if len(m.approved) > 0 && !m.approved[instrument] {
		return GateResult{Allowed: false, Reason: fmt.Sprintf("%s not in approved instruments", instrument)}
	}
	if _, open := m.openPositions[instrument]; open {
		return GateResult{Allowed: false, Reason: fmt.Sprintf("position already open on %s", instrument)}
	}
	if m.aggregateRisk+riskPercent > m.cfg.MaxAggregatePercent {
		return GateResult{
			Allowed: false,
			Reason: fmt.Sprintf("aggregate risk %.2f%% + %.2f%% exceeds %.2f%% cap",
				m.aggregateRisk, riskPercent, m.cfg.MaxAggregatePercent),
		}
	}
	return GateResult{Allowed: true}
}

// RegisterPosition reserves portfolio risk for an opened position.
func (m *RiskManager) RegisterPosition(instrument string, riskPercent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openPositions[instrument] = riskPercent
	m.aggregateRisk += riskPercent
}

// ClosePosition releases the portfolio risk held by instrument.
func (m *RiskManager) ClosePosition(instrument string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pct, ok := m.openPositions[instrument]; ok {
		m.aggregateRisk -= pct
		if m.aggregateRisk < 0 {
			m.aggregateRisk = 0
		}
		delete(m.openPositions, instrument)
	}
}

// Status reports the current risk posture.
func (m *RiskManager) Status() RiskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := RiskStatus{
		CanTrade:       true,
		SizeMultiplier: m.sizeMultiplierLocked(),
	}
	if m.daily == nil {
		return status
	}

	status.DailyPnL = m.daily.CurrentBalance - m.daily.StartingBalance
	if m.daily.StartingBalance > 0 {
		status.DailyPnLPercent = status.DailyPnL / m.daily.StartingBalance * 100
	}
	status.Drawdown = m.daily.PeakBalance - m.daily.CurrentBalance
	if m.daily.PeakBalance > 0 {
		status.DrawdownPercent = status.Drawdown / m.daily.PeakBalance * 100
	}
	if m.daily.IsLocked {
		status.CanTrade = false
		status.LockReason = m.daily.LockReason
	}

	if !m.daily.IsLocked {
		if status.DailyPnLPercent <= -m.cfg.MaxDailyLossPercent*0.66 {
			status.Warnings = append(status.Warnings,
				fmt.Sprintf("daily PnL %.2f%% approaching limit", status.DailyPnLPercent))
		}
		if m.consecutiveLosses == m.cfg.MaxConsecutiveLosses-1 {
			status.Warnings = append(status.Warnings,
				fmt.Sprintf("%d consecutive losses, one from lockout", m.consecutiveLosses))
		}
	}

	return status
}

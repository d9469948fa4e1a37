package risk

import (
	"strings"
	"testing"
	"time"

	"ForexTradeBot/config"

	"go.uber.org/zap"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		MaxDailyLossPercent:  3.0,
		MaxDrawdownPercent:   10.0,
		MaxConsecutiveLosses: 3,
		SizeReductionFactor:  0.5,
		BaseRiskPercent:      1.0,
		MaxAggregatePercent:  3.0,
	}
}

func newTestManager() *RiskManager {
	return NewRiskManager(testRiskConfig(), []string{"EUR_USD", "GBP_USD", "USD_JPY"}, zap.NewNop())
}

func TestDailyLossLockPersistsThroughRecovery(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	m.UpdateBalance(9700) // -3.0%
	status := m.Status()
	if status.CanTrade {
		t.Fatal("expected lock at -3% daily loss")
	}

	// Recovery must not unlock the day.
	m.UpdateBalance(9900)
	status = m.Status()
	if status.CanTrade {
		t.Fatal("lock must persist after balance recovery")
	}
	if !strings.Contains(status.LockReason, "daily loss") {
		t.Fatalf("lock reason = %q", status.LockReason)
	}
}

func TestDrawdownLock(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	m.UpdateBalance(11000) // new peak
	m.UpdateBalance(9900)  // 10% off the peak
	status := m.Status()
	if status.CanTrade {
		t.Fatal("expected lock at 10% drawdown from peak")
	}
	if !strings.Contains(status.LockReason, "drawdown") {
		t.Fatalf("lock reason = %q", status.LockReason)
	}
}

func TestConsecutiveLossLock(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	m.RecordTrade(-50)
	m.RecordTrade(-50)
	if !m.Status().CanTrade {
		t.Fatal("two losses must not lock")
	}
	m.RecordTrade(-50)
	status := m.Status()
	if status.CanTrade {
		t.Fatal("expected lock after three consecutive losses")
	}
	if !strings.Contains(status.LockReason, "consecutive") {
		t.Fatalf("lock reason = %q", status.LockReason)
	}
}

func TestWinResetsLossStreak(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	m.RecordTrade(-50)
	m.RecordTrade(-50)
	m.RecordTrade(100)
	m.RecordTrade(-50)
	m.RecordTrade(-50)
	if !m.Status().CanTrade {
		t.Fatal("streak should have reset on the winning trade")
	}
}

func TestSizeMultiplierAfterLoss(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	if got := m.SizeMultiplier(); got != 1.0 {
		t.Fatalf("multiplier = %v, want 1.0", got)
	}
	m.RecordTrade(-50)
	if got := m.SizeMultiplier(); got != 0.5 {
		t.Fatalf("multiplier = %v, want 0.5 after a loss", got)
	}
	m.RecordTrade(80)
	if got := m.SizeMultiplier(); got != 1.0 {
		t.Fatalf("multiplier = %v, want 1.0 after a win", got)
	}
}

func TestCalculatePositionSize(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	// 1% of 10000 = 100 risked over a 20-pip stop at 0.0001/unit.
	size := m.CalculatePositionSize(10000, 20, 0.0001)
	if !size.CanTrade {
		t.Fatalf("sizing rejected: %s", size.Reason)
	}
	if size.Units != 50000 {
		t.Fatalf("units = %d, want 50000", size.Units)
	}
	if size.RiskAmount != 100 {
		t.Fatalf("risk amount = %v, want 100", size.RiskAmount)
	}

	// After a loss the reduction factor halves the size.
	m.RecordTrade(-50)
	size = m.CalculatePositionSize(10000, 20, 0.0001)
	if size.Units != 25000 {
		t.Fatalf("units = %d, want 25000 with reduced size", size.Units)
	}
	if size.Multiplier != 0.5 {
		t.Fatalf("multiplier = %v, want 0.5", size.Multiplier)
	}
}

func TestCalculatePositionSizeRejectsBadInputs(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	if size := m.CalculatePositionSize(10000, 0, 0.0001); size.CanTrade {
		t.Fatal("zero stop distance must not size a trade")
	}
	if size := m.CalculatePositionSize(0, 20, 0.0001); size.CanTrade {
		t.Fatal("zero balance must not size a trade")
	}
}

func TestPortfolioGates(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	if gate := m.CanOpenPosition("EUR_USD", 1.0); !gate.Allowed {
		t.Fatalf("expected approval, got %q", gate.Reason)
	}
	m.RegisterPosition("EUR_USD", 1.0)

	// One position per instrument.
	if gate := m.CanOpenPosition("EUR_USD", 1.0); gate.Allowed {
		t.Fatal("second position on the same instrument must be blocked")
	}

	m.RegisterPosition("GBP_USD", 1.0)

	// 2.0% held + 1.0% requested sits exactly at the 3.0% cap.
	if gate := m.CanOpenPosition("USD_JPY", 1.0); !gate.Allowed {
		t.Fatalf("aggregate at cap should pass, got %q", gate.Reason)
	}
	// 2.0% held + 1.5% requested breaches it.
	if gate := m.CanOpenPosition("USD_JPY", 1.5); gate.Allowed {
		t.Fatal("aggregate over cap must be blocked")
	}

	m.ClosePosition("EUR_USD")
	if gate := m.CanOpenPosition("EUR_USD", 1.0); !gate.Allowed {
		t.Fatalf("expected approval after close, got %q", gate.Reason)
	}
}

func TestUnapprovedInstrumentBlocked(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	if gate := m.CanOpenPosition("XAU_USD", 1.0); gate.Allowed {
		t.Fatal("instrument outside the approved set must be blocked")
	}
}

func TestDayRolloverClearsLock(t *testing.T) {
	m := newTestManager()
	day := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return day }

	m.InitializeDay(10000)
	m.UpdateBalance(9700)
	if m.Status().CanTrade {
		t.Fatal("expected lock on day one")
	}

	day = day.Add(24 * time.Hour)
	m.UpdateBalance(9700)
	if !m.Status().CanTrade {
		t.Fatal("new day must start unlocked")
	}
}

func TestDayRolloverResetsLossStreak(t *testing.T) {
	m := newTestManager()
	day := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return day }

	m.InitializeDay(10000)
	m.RecordTrade(-50)
	m.RecordTrade(-50)

	// A single loss on the next day must not inherit yesterday's streak.
	day = day.Add(24 * time.Hour)
	m.RecordTrade(-50)
	if !m.Status().CanTrade {
		t.Fatal("loss streak must reset at day rollover")
	}
}

func TestBreakEvenTradeResetsLossStreak(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)

	m.RecordTrade(-50)
	m.RecordTrade(-50)
	m.RecordTrade(0)
	if got := m.SizeMultiplier(); got != 1.0 {
		t.Fatalf("multiplier = %v, want 1.0 after break-even", got)
	}
	m.RecordTrade(-50)
	if !m.Status().CanTrade {
		t.Fatal("break-even trade should have reset the streak")
	}
}

func TestResetLock(t *testing.T) {
	m := newTestManager()
	m.InitializeDay(10000)
	m.RecordTrade(-50)
	m.RecordTrade(-50)
	m.RecordTrade(-50)
	if m.Status().CanTrade {
		t.Fatal("expected lock")
	}

	m.ResetLock()
	if !m.Status().CanTrade {
		t.Fatal("expected unlock after manual reset")
	}
}

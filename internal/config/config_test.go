package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEDGER_TAX_RATE", "")
	t.Setenv("LEDGER_STORE", "")
	t.Setenv("LEDGER_RECONCILE_INTERVAL", "")

	cfg := Load()

	assert.Equal(t, StoreMySQL, cfg.Ledger.Store)
	assert.True(t, cfg.Ledger.TaxRate.Equal(decimal.RequireFromString("0.16")))
	assert.Equal(t, 30, cfg.Ledger.DefaultDueDays)
	assert.Equal(t, time.Duration(0), cfg.Ledger.ReconcileInterval)
	assert.Equal(t, int64(100000), cfg.Ledger.StreamMaxLen)
	assert.Equal(t, time.Minute, cfg.Worker.ReclaimIdle)
	assert.Equal(t, 5, cfg.Worker.MaxDeliveries)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")
	t.Setenv("LEDGER_TAX_RATE", "0.08")
	t.Setenv("LEDGER_RECONCILE_INTERVAL", "15m")
	t.Setenv("LEDGER_DUE_SOON_DAYS", "not-a-number")
	t.Setenv("MYSQL_HOST", "db:3306")

	cfg := Load()

	assert.Equal(t, StoreMemory, cfg.Ledger.Store)
	assert.True(t, cfg.Ledger.TaxRate.Equal(decimal.RequireFromString("0.08")))
	assert.Equal(t, 15*time.Minute, cfg.Ledger.ReconcileInterval)
	assert.Equal(t, 7, cfg.Ledger.DueSoonDays)
	assert.Contains(t, cfg.MySQL.DSN(), "@tcp(db:3306)/")
}

func TestLoad_RejectsNegativeTaxRate(t *testing.T) {
	t.Setenv("LEDGER_TAX_RATE", "-0.5")

	cfg := Load()

	assert.True(t, cfg.Ledger.TaxRate.Equal(decimal.RequireFromString("0.16")))
}

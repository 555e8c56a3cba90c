package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotEmpty(t, cfg.CashFlow.Sections)
	assert.Equal(t, "operating", cfg.CashFlow.Sections[0].Key)
	require.NotEmpty(t, cfg.CashFlow.CashAccounts)

	assert.NotEmpty(t, cfg.HPP.RawMaterialInventory)
	assert.NotEmpty(t, cfg.HPP.Overheads)
	assert.NotEmpty(t, cfg.Reconciliation.BankPrefixes)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")

	cfg := Default()
	cfg.CashFlow.CashAccounts[0].OpeningBalance = 1234.56
	cfg.Reconciliation.FeeAccountCode = "6391"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.CashFlow.Sections, got.CashFlow.Sections)
	assert.Equal(t, 1234.56, got.CashFlow.CashAccounts[0].OpeningBalance)
	assert.Equal(t, "6391", got.Reconciliation.FeeAccountCode)
	assert.Equal(t, cfg.HPP, got.HPP)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

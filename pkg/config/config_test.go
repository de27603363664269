package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ryokai0809/juku-invoice/pkg/render"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, render.EngineChromedp, cfg.Engine)
	require.Equal(t, "ja", cfg.Locale)
	require.Equal(t, 30*time.Second, cfg.RenderTimeout)
	require.Equal(t, render.DefaultIssuer(), cfg.Issuer)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("INVOICE_ENGINE", "gofpdf")
	t.Setenv("INVOICE_LOCALE", "en")
	t.Setenv("INVOICE_RENDER_TIMEOUT", "5s")
	t.Setenv("INVOICE_S3_BUCKET", "juku-invoices")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, render.EngineGofpdf, cfg.Engine)
	require.Equal(t, "en", cfg.Locale)
	require.Equal(t, 5*time.Second, cfg.RenderTimeout)
	require.Equal(t, "juku-invoices", cfg.S3Bucket)
	require.Equal(t, render.EngineGofpdf, cfg.EngineConfig().Name)
}

func TestLoadRejectsUnknownEngine(t *testing.T) {
	t.Setenv("INVOICE_ENGINE", "weasyprint")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadProfileMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("issuer:\n  contact_email: billing@juku.example\n  note: 振込手数料はご負担ください。\n"), 0o644))

	issuer, err := LoadProfile(path)
	require.NoError(t, err)
	require.Equal(t, "billing@juku.example", issuer.ContactEmail)
	require.Equal(t, "振込手数料はご負担ください。", issuer.Note)
	require.Equal(t, render.DefaultIssuer().BankAccount, issuer.BankAccount)
	require.Equal(t, "¥", issuer.CurrencySymbol)
}

func TestLoadProfileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("issuer: [unterminated"), 0o644))

	_, err := LoadProfile(path)
	require.Error(t, err)
}

func TestLoadProfileMissingFile(t *testing.T) {
	t.Setenv("INVOICE_PROFILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
}

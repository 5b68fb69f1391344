package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 5, cfg.WorkerPoolSize)
	assert.True(t, cfg.DBAutoMigrate)
	assert.Equal(t, "00000", cfg.ClienteGenericoCodigo)
	assert.Equal(t, "estricto", cfg.ImportProfile)
	assert.Equal(t, "55 23 * * *", cfg.ReporteDiarioCron)
	assert.Equal(t, 5*time.Minute, cfg.ConsultaCacheTTL())
	assert.Equal(t, "America/Lima", cfg.Location().String())
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", "super-secreto")
	t.Setenv("IMPORT_PROFILE", "tolerante")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "super-secreto", cfg.JWTSecret)
	assert.Equal(t, "tolerante", cfg.ImportProfile)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Env: "development", ImportProfile: "estricto", Timezone: "America/Lima"}
	}

	assert.NoError(t, base().validate())

	c := base()
	c.ImportProfile = "laxo"
	assert.Error(t, c.validate())

	c = base()
	c.Timezone = "Marte/Olympus"
	assert.Error(t, c.validate())

	c = base()
	c.Env = "production"
	assert.Error(t, c.validate(), "production needs JWT_SECRET")
	c.JWTSecret = "x"
	assert.NoError(t, c.validate())
}

func TestLocation_FallbackUTC(t *testing.T) {
	c := &Config{Timezone: "Marte/Olympus"}
	assert.Equal(t, time.UTC, c.Location())
}

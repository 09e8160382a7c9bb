package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sumee")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("SITE_URL", "https://sumeeapp.com/")

	cfg, err := Parse()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://sumeeapp.com", cfg.SiteURL)
	assert.Equal(t, time.Minute, cfg.DeadlineTick)
	assert.Equal(t, "sb-access-token", cfg.SessionCookieName)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.False(t, cfg.Mail.Enabled())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sumee")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("ALLOWED_ORIGINS", "https://sumeeapp.com,https://www.sumeeapp.com")
	t.Setenv("DEADLINE_TICK", "30s")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := Parse()

	require.NoError(t, err)
	assert.Equal(t, []string{"https://sumeeapp.com", "https://www.sumeeapp.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.DeadlineTick)
	assert.True(t, cfg.AutoMigrate)
}

func TestParse_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")

	_, err := Parse()

	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestParse_InvalidTick(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sumee")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("DEADLINE_TICK", "-1s")

	_, err := Parse()

	assert.ErrorContains(t, err, "DEADLINE_TICK")
}

func TestParseMail_WithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MAIL_HOST", "smtp.sumeeapp.com")
	t.Setenv("MAIL_USER", "equipo")

	cfg, err := ParseMail()

	require.NoError(t, err)
	assert.True(t, cfg.Enabled())
	assert.Equal(t, 587, cfg.Port)
}

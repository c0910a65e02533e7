package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  server:
    cors: "https://a.example, https://b.example,"
otp:
  ttl_seconds: 60
jwt:
  validity_days: 365
  secret: from-file
instrument:
  log_mask_fields:
    - otp_code
    - token
`

func TestViper_Getters(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	// Act & Assert
	assert.Equal(t, 60*time.Second, cfg.GetSecond("otp.ttl_seconds"))
	assert.Equal(t, 365*24*time.Hour, cfg.GetDay("jwt.validity_days"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetArray("app.server.cors"))
	assert.Equal(t, []string{"otp_code", "token"}, cfg.GetArray("instrument.log_mask_fields"))
	assert.Empty(t, cfg.GetArray("missing.key"))
	assert.NoError(t, cfg.Close())
}

func TestViper_EnvOverride(t *testing.T) {
	t.Setenv("OTPAUTH_JWT_SECRET", "from-env")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetString("jwt.secret"))
}

func TestNewViper_File(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(p, []byte(sample), 0o600))

		cfg, err := NewViper(p)

		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.GetString("jwt.secret"))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestNewViperFromBytes_TypeRequired(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte(sample))
	assert.Error(t, err)
}

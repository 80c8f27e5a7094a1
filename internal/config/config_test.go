package config_test

import (
	"testing"

	"eshop/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, config.DriverSQLite, cfg.DatabaseDriver)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.True(t, cfg.SeedProducts)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "MEMORY")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("SEED_PRODUCTS", "false")

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.AppPort)
	assert.Equal(t, config.DriverMemory, cfg.DatabaseDriver)
	assert.False(t, cfg.SeedProducts)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mongodb")

	_, err := config.Load(viper.New())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DATABASE_DRIVER")
}

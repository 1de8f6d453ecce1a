package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorly/experimentkit/pkg/config"
)

type testConfig struct {
	Name    string        `env:"EXPKIT_TEST_NAME" envDefault:"default-name"`
	Count   int           `env:"EXPKIT_TEST_COUNT" envDefault:"3"`
	Timeout time.Duration `env:"EXPKIT_TEST_TIMEOUT" envDefault:"5s"`
}

type requiredConfig struct {
	Token string `env:"EXPKIT_TEST_REQUIRED_TOKEN,required"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "default-name", cfg.Name)
	assert.Equal(t, 3, cfg.Count)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("EXPKIT_TEST_NAME", "from-env")
	t.Setenv("EXPKIT_TEST_COUNT", "42")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 42, cfg.Count)
}

func TestLoad_NilTarget(t *testing.T) {
	err := config.Load[testConfig](nil)
	require.ErrorIs(t, err, config.ErrNilPointer)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	require.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestMustLoad_PanicsOnFailure(t *testing.T) {
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

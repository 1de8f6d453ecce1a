package fallback_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorly/experimentkit/pkg/fallback"
)

func TestResolver_KnownServices(t *testing.T) {
	t.Parallel()

	r := fallback.NewResolver()

	decision, ok := r.Default(fallback.ServiceFeatureFlags).(fallback.FeatureDecision)
	require.True(t, ok)
	assert.False(t, decision.Enabled)
	assert.Equal(t, "none", decision.Variant)

	advice, ok := r.Default(fallback.ServiceRecommendations).([]fallback.Advice)
	require.True(t, ok)
	require.NotEmpty(t, advice)
	assert.NotEmpty(t, advice[0].Title)

	seg, ok := r.Default(fallback.ServiceSegmentation).(string)
	require.True(t, ok)
	assert.Equal(t, "regular", seg)
}

func TestResolver_UnknownService(t *testing.T) {
	t.Parallel()

	r := fallback.NewResolver()

	unavailable, ok := r.Default("no-such-service").(fallback.Unavailable)
	require.True(t, ok)
	assert.True(t, unavailable.Fallback)
	assert.Equal(t, "no fallback available", unavailable.Error)
}

func TestResolver_NeverPanics(t *testing.T) {
	t.Parallel()

	r := fallback.NewResolver()

	// Arbitrary strings, including hostile-looking ones, must resolve.
	for _, name := range []string{"", " ", "../../etc/passwd", "\x00", "ﬂags", "featureFlags "} {
		assert.NotPanics(t, func() {
			assert.NotNil(t, r.Default(name))
		})
	}
}

func TestResolver_Register(t *testing.T) {
	t.Parallel()

	r := fallback.NewResolver()
	r.Register("pricing", map[string]any{"tier": "standard"})

	payload, ok := r.Default("pricing").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "standard", payload["tier"])

	// Registration replaces existing payloads.
	r.Register("pricing", "flat")
	assert.Equal(t, "flat", r.Default("pricing"))
}

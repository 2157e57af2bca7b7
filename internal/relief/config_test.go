package relief_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/drihop/internal/blend"
	"github.com/askiada/drihop/internal/relief"
)

func TestParseArgs(t *testing.T) {
	t.Parallel()

	cfg, err := relief.ParseArgs([]string{"hs.tif", "Quad.gpkg", "false", "0.9", "225", "200", "2", "true"})
	require.NoError(t, err)
	assert.Equal(t, relief.Config{
		Hillshade:    "hs.tif",
		Database:     "Quad.gpkg",
		Stretch:      0.9,
		TargetMean:   225,
		Floor:        200,
		Multiplier:   2,
		ForceFailure: true,
	}, cfg)
	require.NoError(t, cfg.Validate())

	cfg, err = relief.ParseArgs([]string{"hs.tif", "Quad.gpkg", "True", "1", "225", "0", "1", "yes"})
	require.NoError(t, err)
	assert.False(t, cfg.Diagnostic)
	assert.False(t, cfg.ForceFailure)
}

func TestParseArgsInvalid(t *testing.T) {
	t.Parallel()

	valid := []string{"hs.tif", "Quad.gpkg", "false", "0.9", "225", "200", "2", "false"}
	for name, tc := range map[string]struct {
		index int
		value string
	}{
		"stretch":    {3, "steep"},
		"mean":       {4, "225.5"},
		"floor":      {5, "low"},
		"multiplier": {6, "x"},
	} {
		args := append([]string(nil), valid...)
		args[tc.index] = tc.value
		_, err := relief.ParseArgs(args)
		assert.ErrorIs(t, err, relief.ErrArgs, name)
	}

	_, err := relief.ParseArgs(valid[:7])
	assert.ErrorIs(t, err, relief.ErrArgs)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	base := relief.Config{Stretch: 1, TargetMean: 225, Floor: 0, Multiplier: 1}
	require.NoError(t, base.Validate())

	cfg := base
	cfg.Floor = 256
	assert.ErrorIs(t, cfg.Validate(), blend.ErrParams)

	cfg = base
	cfg.TargetMean = -1
	assert.ErrorIs(t, cfg.Validate(), blend.ErrParams)

	cfg = base
	cfg.Multiplier = 0
	assert.ErrorIs(t, cfg.Validate(), relief.ErrArgs)

	cfg = base
	cfg.Workers = -1
	assert.ErrorIs(t, cfg.Validate(), relief.ErrArgs)
}

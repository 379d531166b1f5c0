package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{string(FlagNearestLeafHit), ""})
	require.Len(t, f, 1)

	t.Run("is set", func(t *testing.T) {
		require.True(t, f.IsSet(FlagNearestLeafHit))
		require.False(t, f.IsSet(FlagDisableAutoRebuild))
	})

	t.Run("run if enabled", func(t *testing.T) {
		var nearest bool
		f.IfSet(FlagNearestLeafHit, func() {
			nearest = true
		})
		require.True(t, nearest)

		var disableRebuild bool
		f.IfSet(FlagDisableAutoRebuild, func() {
			disableRebuild = true
		})
		require.False(t, disableRebuild)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var nearest bool
		f.IfNotSet(FlagNearestLeafHit, func() {
			nearest = true
		})
		require.False(t, nearest)

		autoRebuild := false
		f.IfNotSet(FlagDisableAutoRebuild, func() {
			autoRebuild = true
		})
		require.True(t, autoRebuild)
	})
}

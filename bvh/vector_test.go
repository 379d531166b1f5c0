package bvh

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestEqualWithEpsilon(t *testing.T) {
	require.True(t, EqualWithEpsilon(0.1, 0.2, 0.11))
	require.False(t, EqualWithEpsilon(0.1, 0.3, 0.11))
}

func TestVectorComponent(t *testing.T) {
	v := Vector3f{1, 2, 3}

	t.Run("valid axes", func(t *testing.T) {
		for axis, expected := range map[Axis]float32{AxisX: 1, AxisY: 2, AxisZ: 3} {
			c, err := v.Component(axis)
			require.NoError(t, err)
			require.Equal(t, expected, c)
		}
	})

	t.Run("out of range axis", func(t *testing.T) {
		for _, axis := range []Axis{-1, 3, 42} {
			_, err := v.Component(axis)
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeOutOfRange))
		}
	})
}

func TestVectorClass(t *testing.T) {
	zeroVector := Vector3f{0, 0, 0}
	oneVector := Vector3f{1, 1, 1}

	require.True(t, oneVector.EqualWithEpsilon(Vector3f{0.9, 1.1, 1}, 0.11))
	require.True(t, oneVector.GreaterOrEqualThan(zeroVector))
	require.True(t, zeroVector.LesserOrEqualThan(oneVector))

	require.Equal(t, oneVector, Add(zeroVector, oneVector))
	require.Equal(t, oneVector, Sub(oneVector, zeroVector))
	require.Equal(t, zeroVector, Mul(oneVector, 0))

	require.Equal(t, Vector3f{-1, 0, 2}, Min(Vector3f{-1, 3, 2}, Vector3f{0, 0, 5}))
	require.Equal(t, Vector3f{0, 3, 5}, Max(Vector3f{-1, 3, 2}, Vector3f{0, 0, 5}))

	require.Equal(t, float32(1), Vector3f{1, 0, 0}.Length())
	require.Equal(t, float32(5), Distance(Vector3f{0, 0, 0}, Vector3f{3, 4, 0}))
	require.True(t, EqualWithEpsilon(Normalized(oneVector).Length(), 1, 0.001))
	require.Equal(t, zeroVector, Normalized(zeroVector))
}

func TestDot(t *testing.T) {
	xAxis := Vector3f{1, 0, 0}
	yAxis := Vector3f{0, 1, 0}

	require.Equal(t, float32(0), xAxis.Dot(yAxis))
}

func TestCross(t *testing.T) {
	xAxis := Vector3f{1, 0, 0}
	yAxis := Vector3f{0, 1, 0}
	zAxis := Vector3f{0, 0, 1}

	require.Equal(t, zAxis, Cross(xAxis, yAxis))
}

func TestBox(t *testing.T) {
	t.Run("new box orders corners", func(t *testing.T) {
		b := NewBox(Vector3f{1, -1, 5}, Vector3f{-1, 1, 0})
		require.Equal(t, Vector3f{-1, -1, 0}, b.Min)
		require.Equal(t, Vector3f{1, 1, 5}, b.Max)
	})

	t.Run("box from center", func(t *testing.T) {
		b := NewBoxFromCenter(Vector3f{1, 1, 1}, Vector3f{1, 0, 2})
		require.Equal(t, Vector3f{0, 1, -1}, b.Min)
		require.Equal(t, Vector3f{2, 1, 3}, b.Max)
	})

	t.Run("union and center", func(t *testing.T) {
		a := NewBox(Vector3f{0, 0, 0}, Vector3f{1, 1, 1})
		b := NewBox(Vector3f{9, 9, 9}, Vector3f{10, 10, 10})

		u := a.Union(b)
		require.Equal(t, NewBox(Vector3f{0, 0, 0}, Vector3f{10, 10, 10}), u)
		require.Equal(t, Vector3f{5, 5, 5}, u.Center())
		require.True(t, u.Contains(a))
		require.True(t, u.Contains(b))
		require.False(t, a.Contains(u))
	})

	t.Run("longest axis", func(t *testing.T) {
		require.Equal(t, AxisX, NewBox(Vector3f{}, Vector3f{10, 10, 10}).LongestAxis())
		require.Equal(t, AxisX, Box{}.LongestAxis())
		require.Equal(t, AxisY, NewBox(Vector3f{}, Vector3f{1, 3, 3}).LongestAxis())
		require.Equal(t, AxisZ, NewBox(Vector3f{}, Vector3f{1, 2, 3}).LongestAxis())
	})

	t.Run("overlaps", func(t *testing.T) {
		a := NewBox(Vector3f{0, 0, 0}, Vector3f{2, 2, 2})
		require.True(t, a.Overlaps(NewBox(Vector3f{1, 1, 1}, Vector3f{3, 3, 3})))
		require.True(t, a.Overlaps(NewBox(Vector3f{2, 2, 2}, Vector3f{3, 3, 3})))
		require.False(t, a.Overlaps(NewBox(Vector3f{2.1, 0, 0}, Vector3f{3, 3, 3})))
	})

	t.Run("validity", func(t *testing.T) {
		require.True(t, Box{}.IsValid())
		require.False(t, Box{Min: Vector3f{1, 0, 0}}.IsValid())
		require.False(t, Box{Max: Vector3f{nan(), 0, 0}}.IsValid())
	})
}

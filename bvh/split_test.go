package bvh

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// partitionLeaves returns the children referenced by the leaf batches of the
// node partition.
func partitionLeaves(n *Node) []*Node {
	if !n.IsSplit() {
		return n.Children()
	}

	left, right := n.Partition()
	return append(partitionLeaves(left), partitionLeaves(right)...)
}

func TestSplitTwoCorners(t *testing.T) {
	root := newTestNode(0, Vector3f{0, 0, 0}, Vector3f{10, 10, 10})
	a := newTestNode(1, Vector3f{0, 0, 0}, Vector3f{1, 1, 1})
	b := newTestNode(2, Vector3f{9, 9, 9}, Vector3f{10, 10, 10})
	require.NoError(t, root.AddChild(a, false))
	require.NoError(t, root.AddChild(b, true))

	require.Equal(t, AxisX, root.Bounds().LongestAxis())
	require.Equal(t, NewBox(Vector3f{0, 0, 0}, Vector3f{10, 10, 10}), root.ComputeBounds())

	left, right := root.Partition()
	require.NotNil(t, left)
	require.NotNil(t, right)
	require.Equal(t, []*Node{a}, left.Children())
	require.Equal(t, []*Node{b}, right.Children())
	require.Equal(t, a.Bounds(), left.Bounds())
	require.Equal(t, b.Bounds(), right.Bounds())
	require.False(t, left.IsSplit())
	require.False(t, right.IsSplit())
}

func TestSplitSingleChild(t *testing.T) {
	root := newTestNode(0, Vector3f{0, 0, 0}, Vector3f{10, 10, 10})
	child := newTestNode(1, Vector3f{4, 4, 4}, Vector3f{6, 6, 6})
	require.NoError(t, root.AddChild(child, true))

	root.Split()
	require.False(t, root.IsSplit())

	left, right := root.Partition()
	require.Nil(t, left)
	require.Nil(t, right)

	hit, ok := root.Traverse(NewRay(Vector3f{5, 5, -10}, Vector3f{0, 0, 1}))
	require.True(t, ok)
	require.Equal(t, child, hit)
}

func TestSplitNoChildren(t *testing.T) {
	root := NewNode(0, Box{})
	require.NotPanics(t, root.Split)
	require.False(t, root.IsSplit())
	require.Equal(t, Box{}, root.Bounds())
}

func TestSplitSortsAlongLongestAxis(t *testing.T) {
	root := newTestNode(0, Vector3f{0, 0, 0}, Vector3f{1, 1, 20})

	var children []*Node
	for i := 0; i < 4; i++ {
		// Inserted from the farthest to the nearest on z.
		z := float32(15 - i*5)
		child := newTestNode(uint32(i+1), Vector3f{0, 0, z}, Vector3f{1, 1, z + 1})
		children = append(children, child)
		require.NoError(t, root.AddChild(child, false))
	}
	root.Split()

	left, right := root.Partition()
	require.ElementsMatch(t, []*Node{children[2], children[3]}, partitionLeaves(left))
	require.ElementsMatch(t, []*Node{children[0], children[1]}, partitionLeaves(right))

	// Children keep their insertion order.
	require.Equal(t, children, root.Children())
}

func TestSplitOddCount(t *testing.T) {
	root := newTestNode(0, Vector3f{0, 0, 0}, Vector3f{3, 1, 1})
	for i := 0; i < 3; i++ {
		x := float32(i)
		require.NoError(t, root.AddChild(newTestNode(uint32(i+1), Vector3f{x, 0, 0}, Vector3f{x + 1, 1, 1}), false))
	}
	root.Split()

	left, right := root.Partition()
	require.Len(t, left.Children(), 1)
	require.Len(t, right.Children(), 2)
	require.True(t, right.IsSplit())
}

func TestSplitStableOnEqualCenters(t *testing.T) {
	root := newTestNode(0, Vector3f{0, 0, 0}, Vector3f{1, 1, 1})
	a := newTestNode(1, Vector3f{0, 0, 0}, Vector3f{1, 1, 1})
	b := newTestNode(2, Vector3f{0, 0, 0}, Vector3f{1, 1, 1})
	require.NoError(t, root.AddChild(a, false))
	require.NoError(t, root.AddChild(b, true))

	left, right := root.Partition()
	require.Equal(t, []*Node{a}, left.Children())
	require.Equal(t, []*Node{b}, right.Children())
}

func TestSplitPartitionCompleteness(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for _, count := range []int{2, 3, 7, 16, 33} {
		root := NewNode(0, Box{})
		for i := 0; i < count; i++ {
			min := Vector3f{rnd.Float32() * 50, rnd.Float32() * 50, rnd.Float32() * 50}
			require.NoError(t, root.AddChild(newTestNode(uint32(i+1), min, Add(min, Vector3f{1, 1, 1})), false))
		}
		root.UpdateBounds()
		root.Split()

		leaves := partitionLeaves(root)
		require.Len(t, leaves, count)
		require.ElementsMatch(t, root.Children(), leaves)

		seen := make(map[*Node]struct{}, len(leaves))
		for _, l := range leaves {
			_, dup := seen[l]
			require.False(t, dup, "node %d referenced twice", l.ID)
			seen[l] = struct{}{}
		}

		stats := root.Stats()
		require.Equal(t, count+1, stats.NodeCount)
		require.Equal(t, count, stats.LeafCount)
		require.Positive(t, stats.PartitionDepth)
	}
}

func TestSplitResplit(t *testing.T) {
	root := newTestNode(0, Vector3f{0, 0, 0}, Vector3f{10, 1, 1})
	a := newTestNode(1, Vector3f{0, 0, 0}, Vector3f{1, 1, 1})
	b := newTestNode(2, Vector3f{9, 0, 0}, Vector3f{10, 1, 1})
	require.NoError(t, root.AddChild(a, false))
	require.NoError(t, root.AddChild(b, true))

	oldLeft, oldRight := root.Partition()

	require.True(t, root.RemoveChild(b))
	root.Split()

	require.True(t, oldLeft.IsDisposed())
	require.True(t, oldRight.IsDisposed())
	require.False(t, a.IsDisposed())
	require.False(t, b.IsDisposed())
	require.False(t, root.IsSplit())
}

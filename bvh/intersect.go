package bvh

import (
	"github.com/chewxy/math32"
)

// Direction components with an absolute value under this threshold are
// considered parallel to the matching slab.
const parallelEpsilon = 1e-7

// IntersectBox reports whether the ray hits the box, using the slab method.
func IntersectBox(b Box, r Ray) bool {
	_, hit := IntersectBoxDistance(b, r)
	return hit
}

// IntersectBoxDistance returns the ray parameter where the ray enters the
// box. It is 0 when the ray origin is inside the box.
func IntersectBoxDistance(b Box, r Ray) (float32, bool) {
	if !b.IsValid() || !r.IsValid() {
		return 0, false
	}

	tNear := float32(-math32.MaxFloat32)
	tFar := float32(math32.MaxFloat32)

	for _, axis := range [3]Axis{AxisX, AxisY, AxisZ} {
		origin := r.Origin.component(axis)
		direction := r.Direction.component(axis)
		min := b.Min.component(axis)
		max := b.Max.component(axis)

		if math32.Abs(direction) < parallelEpsilon {
			if origin < min || origin > max {
				return 0, false
			}
			continue
		}

		t1 := (min - origin) / direction
		t2 := (max - origin) / direction
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tNear = math32.Max(tNear, t1)
		tFar = math32.Min(tFar, t2)

		if tNear > tFar || tFar < 0 {
			return 0, false
		}
	}

	if tNear < 0 {
		tNear = 0
	}
	return tNear, true
}

type traverseConfig struct {
	nearestLeaf bool
	visit       func(*Node)
}

// TraverseOption configures a ray traversal.
type TraverseOption func(*traverseConfig)

// WithNearestLeaf makes leaf batches return the hit child whose center is
// the closest to the ray origin instead of the first hit child.
func WithNearestLeaf() TraverseOption {
	return func(c *traverseConfig) {
		c.nearestLeaf = true
	}
}

// WithVisitor sets a function called with every node the traversal tests
// against the ray.
func WithVisitor(visit func(*Node)) TraverseOption {
	return func(c *traverseConfig) {
		c.visit = visit
	}
}

// Intersect returns the bounds of the child hit by the ray. See Traverse.
func (n *Node) Intersect(r Ray, opts ...TraverseOption) (Box, bool) {
	hit, ok := n.Traverse(r, opts...)
	if !ok {
		return Box{}, false
	}
	return hit.bounds, true
}

// Traverse walks the hierarchy along the ray and returns the hit child.
//
// Subtrees whose bounds are missed by the ray are never visited. Nodes
// without partition are scanned as leaf batches: their direct children are
// tested in order and the first hit is returned. When both sides of a
// partition are hit, the hit whose center is the closest to the ray origin
// wins. The result is therefore the nearest hit across partitions only,
// unless WithNearestLeaf is given.
func (n *Node) Traverse(r Ray, opts ...TraverseOption) (*Node, bool) {
	var cfg traverseConfig
	for _, o := range opts {
		o(&cfg)
	}
	return traverse(n, r, cfg)
}

func traverse(n *Node, r Ray, cfg traverseConfig) (*Node, bool) {
	if n == nil || n.disposed {
		return nil, false
	}

	if cfg.visit != nil {
		cfg.visit(n)
	}

	if !IntersectBox(n.bounds, r) {
		return nil, false
	}

	if !n.IsSplit() {
		return scanLeafBatch(n, r, cfg)
	}

	leftHit, hitLeft := traverse(n.left, r, cfg)
	rightHit, hitRight := traverse(n.right, r, cfg)

	switch {
	case hitLeft && hitRight:
		return closest(r.Origin, leftHit, rightHit), true

	case hitLeft:
		return leftHit, true

	case hitRight:
		return rightHit, true

	default:
		return nil, false
	}
}

func scanLeafBatch(n *Node, r Ray, cfg traverseConfig) (*Node, bool) {
	var hit *Node

	for _, c := range n.children {
		if c.disposed {
			continue
		}

		if cfg.visit != nil {
			cfg.visit(c)
		}

		if !IntersectBox(c.bounds, r) {
			continue
		}

		if !cfg.nearestLeaf {
			return c, true
		}

		if hit == nil {
			hit = c
		} else {
			hit = closest(r.Origin, hit, c)
		}
	}

	return hit, hit != nil
}

// closest returns the node whose bounds center is the closest to p. Ties
// return a.
func closest(p Vector3f, a *Node, b *Node) *Node {
	if Distance(p, b.bounds.Center()) < Distance(p, a.bounds.Center()) {
		return b
	}
	return a
}

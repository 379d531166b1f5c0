package bvh

// Box is an axis-aligned bounding box. The zero value is the degenerate box
// at the origin.
type Box struct {
	Min Vector3f `json:"min"`
	Max Vector3f `json:"max"`
}

// NewBox returns the box spanned by the two given corners, whatever their
// order.
func NewBox(a Vector3f, b Vector3f) Box {
	return Box{
		Min: Min(a, b),
		Max: Max(a, b),
	}
}

// NewBoxFromCenter returns the box centered on c with the given half
// extents.
func NewBoxFromCenter(c Vector3f, halfExtents Vector3f) Box {
	return NewBox(Sub(c, halfExtents), Add(c, halfExtents))
}

func (b Box) Union(o Box) Box {
	return Box{
		Min: Min(b.Min, o.Min),
		Max: Max(b.Max, o.Max),
	}
}

func (b Box) Center() Vector3f {
	return Mul(Add(b.Min, b.Max), 0.5)
}

// Extent returns the size of the box on each axis.
func (b Box) Extent() Vector3f {
	return Sub(b.Max, b.Min)
}

// LongestAxis returns the axis with the greatest extent. Ties resolve to X,
// then Y.
func (b Box) LongestAxis() Axis {
	e := b.Extent()

	axis := AxisX
	longest := e.X
	if e.Y > longest {
		axis = AxisY
		longest = e.Y
	}
	if e.Z > longest {
		axis = AxisZ
	}
	return axis
}

// Contains reports whether o lies entirely inside b.
func (b Box) Contains(o Box) bool {
	return b.Min.LesserOrEqualThan(o.Min) && b.Max.GreaterOrEqualThan(o.Max)
}

func (b Box) ContainsPoint(p Vector3f) bool {
	return b.Min.LesserOrEqualThan(p) && b.Max.GreaterOrEqualThan(p)
}

// Overlaps reports whether b and o share at least one point.
func (b Box) Overlaps(o Box) bool {
	return b.Max.X >= o.Min.X && b.Min.X <= o.Max.X &&
		b.Max.Y >= o.Min.Y && b.Min.Y <= o.Max.Y &&
		b.Max.Z >= o.Min.Z && b.Min.Z <= o.Max.Z
}

// IsValid reports whether the box is finite and its min corner is lower or
// equal to its max corner.
func (b Box) IsValid() bool {
	return b.Min.IsFinite() && b.Max.IsFinite() && b.Min.LesserOrEqualThan(b.Max)
}

func unionOf(nodes []*Node) Box {
	if len(nodes) == 0 {
		return Box{}
	}

	box := nodes[0].bounds
	for _, n := range nodes[1:] {
		box = box.Union(n.bounds)
	}
	return box
}

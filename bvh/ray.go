package bvh

type Ray struct {
	Origin    Vector3f `json:"origin"`
	Direction Vector3f `json:"direction"`
}

func NewRay(origin Vector3f, direction Vector3f) Ray {
	return Ray{
		Origin:    origin,
		Direction: direction,
	}
}

// NewRayFromSegment returns the ray starting at from and pointing to to.
func NewRayFromSegment(from Vector3f, to Vector3f) Ray {
	return Ray{
		Origin:    from,
		Direction: Sub(to, from),
	}
}

func (r Ray) IsValid() bool {
	return r.Origin.IsFinite() && r.Direction.IsFinite()
}

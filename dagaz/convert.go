package dagaz

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/hagall-common/messages/dagazpb"
	"github.com/aukilabs/kenaz/bvh"
)

const (
	ErrTypeInvalidQuad = "dagaz_invalid_quad"
	ErrTypeInvalidRay  = "dagaz_invalid_ray"
)

func NewVector3fFromProtobuf(point *dagazpb.Point) bvh.Vector3f {
	return bvh.Vector3f{
		X: point.GetX(),
		Y: point.GetY(),
		Z: point.GetZ(),
	}
}

func PointToProtobuf(v bvh.Vector3f) *dagazpb.Point {
	return &dagazpb.Point{
		X: v.X,
		Y: v.Y,
		Z: v.Z,
	}
}

// NewBoxFromQuad returns the box covered by a quad. Quad extents are half
// extents.
func NewBoxFromQuad(quad *dagazpb.Quad) (bvh.Box, error) {
	if quad == nil || quad.Center == nil || quad.Extents == nil {
		return bvh.Box{}, errors.New("quad without center or extents").
			WithType(ErrTypeInvalidQuad)
	}

	center := NewVector3fFromProtobuf(quad.Center)
	extents := NewVector3fFromProtobuf(quad.Extents)
	if !extents.GreaterOrEqualThan(bvh.Vector3f{}) {
		return bvh.Box{}, errors.New("quad with negative extents").
			WithType(ErrTypeInvalidQuad).
			WithTag("extents", extents)
	}

	box := bvh.NewBoxFromCenter(center, extents)
	if !box.IsValid() {
		return bvh.Box{}, errors.New("quad is not finite").
			WithType(ErrTypeInvalidQuad).
			WithTag("center", center).
			WithTag("extents", extents)
	}
	return box, nil
}

// BoxToQuad returns the quad that covers the given box.
func BoxToQuad(box bvh.Box) *dagazpb.Quad {
	return &dagazpb.Quad{
		Center:  PointToProtobuf(box.Center()),
		Extents: PointToProtobuf(bvh.Mul(box.Extent(), 0.5)),
	}
}

// NewRayFromProtobuf returns the ray starting at the dagaz ray origin and
// pointing to its end.
func NewRayFromProtobuf(ray *dagazpb.Ray) (bvh.Ray, error) {
	if ray == nil || ray.From == nil || ray.To == nil {
		return bvh.Ray{}, errors.New("ray without from or to").
			WithType(ErrTypeInvalidRay)
	}

	r := bvh.NewRayFromSegment(
		NewVector3fFromProtobuf(ray.From),
		NewVector3fFromProtobuf(ray.To),
	)
	if !r.IsValid() {
		return bvh.Ray{}, errors.New("ray is not finite").
			WithType(ErrTypeInvalidRay).
			WithTag("ray", r)
	}
	return r, nil
}

// Package dagaz maps the dagaz ground plane messages onto scenes: quad
// samples become scene nodes and ground plane requests become ray queries.
package dagaz

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/hagall-common/messages/dagazpb"
	"github.com/aukilabs/kenaz/bvh"
	"github.com/aukilabs/kenaz/models"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// InsertQuadSample registers the quads of the sample as nodes of the scene
// root and returns their ids. Quads are validated before any is registered,
// and the registered quads are removed when one of them can't be.
func InsertQuadSample(scene *models.Scene, sample *dagazpb.DagazQuadSample) ([]uint32, error) {
	boxes := make([]bvh.Box, 0, len(sample.GetSamples()))
	for i, q := range sample.GetSamples() {
		box, err := NewBoxFromQuad(q)
		if err != nil {
			return nil, errors.New("invalid quad sample").
				WithType(ErrTypeInvalidQuad).
				WithTag("scene_id", scene.ID).
				WithTag("index", i).
				Wrap(err)
		}
		boxes = append(boxes, box)
	}

	ids := make([]uint32, 0, len(boxes))
	for _, b := range boxes {
		id, err := scene.Register(models.RootID, b)
		if err != nil {
			for _, id := range ids {
				scene.Unregister(id)
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GroundPlane returns the quad hit by the request ray. An empty quad is
// returned when nothing is hit.
func GroundPlane(scene *models.Scene, req *dagazpb.DagazGetGroundPlaneRequest) (*dagazpb.DagazGetGroundPlaneResponse, error) {
	ray, err := NewRayFromProtobuf(req.GetRay())
	if err != nil {
		return nil, err
	}

	ground := &dagazpb.Quad{
		Center:  &dagazpb.Point{},
		Extents: &dagazpb.Point{},
	}

	hit, ok, err := scene.Intersect(ray)
	if err != nil {
		return nil, err
	}
	if ok {
		ground = BoxToQuad(hit.Extent)
	}

	return &dagazpb.DagazGetGroundPlaneResponse{
		Type:      dagazpb.MsgType_MSG_TYPE_DAGAZ_GET_GROUND_PLANE_RESPONSE,
		Timestamp: timestamppb.Now(),
		RequestId: req.GetRequestId(),
		Ground:    ground,
	}, nil
}

// Region returns the quads of the scene leaves that overlap the requested
// region.
func Region(scene *models.Scene, req *dagazpb.DagazGetRegionRequest) (*dagazpb.DagazGetRegionResponse, error) {
	if req.GetMin() == nil || req.GetMax() == nil {
		return nil, errors.New("region without min or max").
			WithType(ErrTypeInvalidQuad)
	}

	region := bvh.NewBox(NewVector3fFromProtobuf(req.GetMin()), NewVector3fFromProtobuf(req.GetMax()))
	nodes, err := scene.Query(region)
	if err != nil {
		return nil, err
	}

	quads := make([]*dagazpb.Quad, len(nodes))
	for i, n := range nodes {
		quads[i] = BoxToQuad(n.Extent)
	}

	return &dagazpb.DagazGetRegionResponse{
		Type:      dagazpb.MsgType_MSG_TYPE_DAGAZ_GET_REGION_RESPONSE,
		Timestamp: timestamppb.Now(),
		RequestId: req.GetRequestId(),
		Quads:     quads,
	}, nil
}

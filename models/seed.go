package models

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/kenaz/bvh"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const ErrTypeInvalidSeed = "invalid_seed"

// SceneSeed describes the nodes of a scene loaded at startup.
//
//	nodes:
//	  - min: [0, 0, 0]
//	    max: [1, 1, 1]
//	    children:
//	      - min: [0.2, 0.2, 0.2]
//	        max: [0.4, 0.4, 0.4]
type SceneSeed struct {
	Nodes []NodeSeed `yaml:"nodes"`
}

type NodeSeed struct {
	Min      [3]float32 `yaml:"min"`
	Max      [3]float32 `yaml:"max"`
	Children []NodeSeed `yaml:"children"`
}

func ParseSceneSeed(b []byte) (SceneSeed, error) {
	var seed SceneSeed
	if err := yaml.Unmarshal(b, &seed); err != nil {
		return SceneSeed{}, errors.New("parsing scene seed failed").
			WithType(ErrTypeInvalidSeed).
			Wrap(err)
	}
	return seed, nil
}

// Seed creates a scene that contains the seed nodes. The scene hierarchy is
// rebuilt once all the nodes are registered.
func (s *SceneStore) Seed(seed SceneSeed) (*Scene, error) {
	conf := s.SceneConfig
	conf.AutoRebuild = false

	scene := NewScene(uuid.NewString(), conf)
	if err := seedNodes(scene, RootID, seed.Nodes); err != nil {
		scene.Reset()
		return nil, err
	}

	scene.Rebuild()
	scene.Config.AutoRebuild = s.SceneConfig.AutoRebuild
	s.add(scene)
	return scene, nil
}

func seedNodes(scene *Scene, parentID uint32, nodes []NodeSeed) error {
	for _, n := range nodes {
		extent := bvh.NewBox(
			bvh.Vector3f{X: n.Min[0], Y: n.Min[1], Z: n.Min[2]},
			bvh.Vector3f{X: n.Max[0], Y: n.Max[1], Z: n.Max[2]},
		)

		id, err := scene.Register(parentID, extent)
		if err != nil {
			return errors.New("seeding node failed").
				WithType(ErrTypeInvalidSeed).
				WithTag("parent_id", parentID).
				Wrap(err)
		}

		if err := seedNodes(scene, id, n.Children); err != nil {
			return err
		}
	}
	return nil
}

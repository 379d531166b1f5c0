package models

import (
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/kenaz/bvh"
	"github.com/google/uuid"
)

const (
	ErrTypeSceneNotFound = "scene_not_found"
	ErrTypeNodeNotFound  = "node_not_found"
	ErrTypeInvalidBox    = "invalid_box"
	ErrTypeInvalidRay    = "invalid_ray"
	ErrTypeSceneFull     = "scene_full"
)

// RootID is the id of the root node every scene owns.
const RootID uint32 = 0

// SceneConfig describes how a scene maintains its hierarchy.
type SceneConfig struct {
	// The maximum number of registered nodes. 0 means no limit.
	MaxNodes int

	// Rebuilds the hierarchy after each registration or removal.
	AutoRebuild bool

	// Makes ray queries return the nearest hit of leaf batches instead of the
	// first one.
	NearestLeaf bool
}

// NodeInfo is a snapshot of a registered node.
type NodeInfo struct {
	ID       uint32  `json:"id"`
	ParentID uint32  `json:"parent_id"`
	Extent   bvh.Box `json:"extent"`
	Bounds   bvh.Box `json:"bounds"`
}

// Scene owns a hierarchy of nodes and serializes every access to it.
type Scene struct {
	ID     string
	Config SceneConfig

	mutex   sync.RWMutex
	root    *bvh.Node
	nodes   map[uint32]*bvh.Node
	extents map[uint32]bvh.Box
	ids     SequentialIDGenerator
}

func NewScene(id string, conf SceneConfig) *Scene {
	return &Scene{
		ID:      id,
		Config:  conf,
		root:    bvh.NewNode(RootID, bvh.Box{}),
		nodes:   make(map[uint32]*bvh.Node),
		extents: make(map[uint32]bvh.Box),
	}
}

// Register creates a node with the given extent under the given parent and
// returns its id. Nodes registered under RootID are attached to the scene
// root.
func (s *Scene) Register(parentID uint32, extent bvh.Box) (uint32, error) {
	if !extent.IsValid() {
		return 0, errors.New("invalid node extent").
			WithType(ErrTypeInvalidBox).
			WithTag("scene_id", s.ID).
			WithTag("extent", extent)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.Config.MaxNodes > 0 && len(s.nodes) >= s.Config.MaxNodes {
		return 0, errors.New("scene is full").
			WithType(ErrTypeSceneFull).
			WithTag("scene_id", s.ID).
			WithTag("max_nodes", s.Config.MaxNodes)
	}

	parent, err := s.node(parentID)
	if err != nil {
		return 0, err
	}

	id := s.ids.New()
	node := bvh.NewNode(id, extent)
	if err := parent.AddChild(node, false); err != nil {
		s.ids.Reuse(id)
		return 0, errors.New("attaching node failed").
			WithTag("scene_id", s.ID).
			WithTag("parent_id", parentID).
			Wrap(err)
	}

	s.nodes[id] = node
	s.extents[id] = extent
	instrumentNodeCount(1)

	if s.Config.AutoRebuild {
		s.rebuild()
	}
	return id, nil
}

// Unregister removes the node with the given id and all its descendants.
func (s *Scene) Unregister(id uint32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if id == RootID {
		return errors.New("root node can't be unregistered").
			WithType(ErrTypeNodeNotFound).
			WithTag("scene_id", s.ID)
	}

	node, err := s.node(id)
	if err != nil {
		return err
	}

	if parent := node.Parent(); parent != nil {
		parent.RemoveChild(node)
	}

	removed := 0
	node.Walk(func(n *bvh.Node, depth int) bool {
		delete(s.nodes, n.ID)
		delete(s.extents, n.ID)
		s.ids.Reuse(n.ID)
		removed++
		return true
	})
	node.Dispose()
	instrumentNodeCount(-removed)

	if s.Config.AutoRebuild {
		s.rebuild()
	}
	return nil
}

// Rebuild recomputes the bounds of every node and splits every node that has
// more than one child.
func (s *Scene) Rebuild() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.rebuild()
}

func (s *Scene) rebuild() {
	start := time.Now()

	// Bounds only grow when folded, so nodes start again from their own
	// extent.
	for id, n := range s.nodes {
		n.SetBounds(s.extents[id])
	}
	if children := s.root.Children(); len(children) != 0 {
		s.root.SetBounds(s.extents[children[0].ID])
	} else {
		s.root.SetBounds(bvh.Box{})
	}
	s.root.UpdateBounds()

	s.root.Walk(func(n *bvh.Node, depth int) bool {
		n.Split()
		return true
	})

	duration := time.Since(start)
	instrumentRebuild(duration)

	logs.WithTag("scene_id", s.ID).
		WithTag("node_count", len(s.nodes)).
		WithTag("duration", duration).
		Debug("scene hierarchy rebuilt")
}

// Reset disposes every node of the scene.
func (s *Scene) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.reset()
}

func (s *Scene) reset() {
	instrumentNodeCount(-len(s.nodes))

	s.root.Dispose()
	s.root = bvh.NewNode(RootID, bvh.Box{})
	s.nodes = make(map[uint32]*bvh.Node)
	s.extents = make(map[uint32]bvh.Box)
	s.ids.Reset()
}

// Intersect returns the node hit by the given ray.
func (s *Scene) Intersect(ray bvh.Ray) (NodeInfo, bool, error) {
	if !ray.IsValid() {
		return NodeInfo{}, false, errors.New("invalid ray").
			WithType(ErrTypeInvalidRay).
			WithTag("scene_id", s.ID).
			WithTag("ray", ray)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var opts []bvh.TraverseOption
	if s.Config.NearestLeaf {
		opts = append(opts, bvh.WithNearestLeaf())
	}

	start := time.Now()
	hit, ok := s.intersect(ray, opts)
	instrumentIntersect(ok, time.Since(start))

	if !ok {
		return NodeInfo{}, false, nil
	}
	return s.info(hit), true, nil
}

// intersect descends from the root into the children of every hit node until
// a leaf is reached. A node whose children are all missed is returned only
// when the ray crosses its own extent.
func (s *Scene) intersect(ray bvh.Ray, opts []bvh.TraverseOption) (*bvh.Node, bool) {
	hit, ok := s.root.Traverse(ray, opts...)
	if !ok {
		return nil, false
	}

	for hit.ChildCount() != 0 {
		child, ok := hit.Traverse(ray, opts...)
		if !ok {
			return hit, bvh.IntersectBox(s.extents[hit.ID], ray)
		}
		hit = child
	}
	return hit, true
}

// Query returns the leaves whose bounds overlap the given region.
func (s *Scene) Query(region bvh.Box) ([]NodeInfo, error) {
	if !region.IsValid() {
		return nil, errors.New("invalid region").
			WithType(ErrTypeInvalidBox).
			WithTag("scene_id", s.ID).
			WithTag("region", region)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	leaves := s.root.Query(region)
	infos := make([]NodeInfo, len(leaves))
	for i, l := range leaves {
		infos[i] = s.info(l)
	}
	return infos, nil
}

// Node returns a snapshot of the node with the given id.
func (s *Scene) Node(id uint32) (NodeInfo, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	n, err := s.node(id)
	if err != nil {
		return NodeInfo{}, err
	}
	return s.info(n), nil
}

// Contains reports whether the node with the given id is a descendant of the
// given ancestor.
func (s *Scene) Contains(ancestorID uint32, id uint32) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ancestor, err := s.node(ancestorID)
	if err != nil {
		return false, err
	}

	n, err := s.node(id)
	if err != nil {
		return false, err
	}
	return ancestor.Contains(n, true), nil
}

func (s *Scene) Bounds() bvh.Box {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.root.Bounds()
}

func (s *Scene) Stats() bvh.Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.root.Stats()
}

// NodeCount returns the number of registered nodes.
func (s *Scene) NodeCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.nodes)
}

func (s *Scene) node(id uint32) (*bvh.Node, error) {
	if id == RootID {
		return s.root, nil
	}

	n, ok := s.nodes[id]
	if !ok {
		return nil, errors.New("node not found").
			WithType(ErrTypeNodeNotFound).
			WithTag("scene_id", s.ID).
			WithTag("node_id", id)
	}
	return n, nil
}

func (s *Scene) info(n *bvh.Node) NodeInfo {
	info := NodeInfo{
		ID:     n.ID,
		Extent: s.extents[n.ID],
		Bounds: n.Bounds(),
	}
	if p := n.Parent(); p != nil {
		info.ParentID = p.ID
	}
	return info
}

// SceneStore contains all the server scenes.
type SceneStore struct {
	// The configuration given to created scenes.
	SceneConfig SceneConfig

	initOnce sync.Once
	mutex    sync.RWMutex
	scenes   map[string]*Scene
}

func (s *SceneStore) init() {
	s.scenes = make(map[string]*Scene)
}

// New creates and stores a scene with a random id.
func (s *SceneStore) New() *Scene {
	scene := NewScene(uuid.NewString(), s.SceneConfig)
	s.add(scene)
	return scene
}

func (s *SceneStore) add(scene *Scene) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.scenes[scene.ID] = scene

	instrumentIncreaseSceneGauge()
	instrumentCountScene()
}

func (s *SceneStore) Get(id string) (*Scene, error) {
	s.initOnce.Do(s.init)
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	scene, ok := s.scenes[id]
	if !ok {
		return nil, errors.New("scene not found").
			WithType(ErrTypeSceneNotFound).
			WithTag("scene_id", id)
	}
	return scene, nil
}

// Remove removes the scene with the given id and disposes its nodes.
func (s *SceneStore) Remove(id string) error {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	scene, ok := s.scenes[id]
	if !ok {
		return errors.New("scene not found").
			WithType(ErrTypeSceneNotFound).
			WithTag("scene_id", id)
	}

	delete(s.scenes, id)
	scene.Reset()

	instrumentDecreaseSceneGauge()
	return nil
}

func (s *SceneStore) Len() int {
	s.initOnce.Do(s.init)
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.scenes)
}

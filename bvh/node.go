// Package bvh implements a bounding volume hierarchy used to answer
// containment, region and ray queries over scene nodes.
//
// Nodes are not safe for concurrent use. Callers that share a tree between
// goroutines must serialize mutations and queries.
package bvh

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	// Error returned when attaching a node would make it its own ancestor.
	ErrTypeCycle = "bvh_cycle"

	// Error returned when attaching a node that already has a parent.
	ErrTypeAlreadyAttached = "bvh_already_attached"

	// Error returned when mutating a disposed node.
	ErrTypeDisposed = "bvh_disposed"

	// Error returned when mutating a node synthesized by a split.
	ErrTypePartition = "bvh_partition"
)

// Releaser is implemented by node payloads that hold resources. Release is
// called once, when the node owning the payload is disposed.
type Releaser interface {
	Release()
}

// Node is a node of the hierarchy. A node owns its children. Nodes that have
// been split also hold two synthesized partition nodes, left and right, that
// reference the children without owning them.
type Node struct {
	// The owner-assigned node id.
	ID uint32

	// The owner payload.
	Data any

	bounds   Box
	parent   *Node
	children []*Node

	left  *Node
	right *Node

	synthetic bool
	disposed  bool
}

// NewNode creates a node with the given id and bounds.
func NewNode(id uint32, bounds Box) *Node {
	return &Node{
		ID:     id,
		bounds: bounds,
	}
}

// Bounds returns the node stored bounds. For a node with children, the
// returned box is only guaranteed to enclose them after UpdateBounds.
func (n *Node) Bounds() Box {
	return n.bounds
}

func (n *Node) SetBounds(b Box) {
	n.bounds = b
}

// Parent returns the node that owns n, or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the node children, in insertion order.
func (n *Node) Children() []*Node {
	children := make([]*Node, len(n.children))
	copy(children, n.children)
	return children
}

func (n *Node) ChildCount() int {
	return len(n.children)
}

// Partition returns the nodes created by the last split. Both are nil when
// the node has not been split.
func (n *Node) Partition() (left *Node, right *Node) {
	return n.left, n.right
}

func (n *Node) IsSplit() bool {
	return n.left != nil || n.right != nil
}

func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

func (n *Node) IsDisposed() bool {
	return n.disposed
}

// AddChild appends child to the node children. When split is true and the
// node has more than one child, the node partition is rebuilt.
func (n *Node) AddChild(child *Node, split bool) error {
	if child == nil {
		return errors.New("child is nil").WithTag("node_id", n.ID)
	}

	if err := n.checkMutable(); err != nil {
		return err
	}

	if child.disposed {
		return errors.New("child is disposed").
			WithType(ErrTypeDisposed).
			WithTag("node_id", n.ID).
			WithTag("child_id", child.ID)
	}

	if child.synthetic {
		return errors.New("child is a partition node").
			WithType(ErrTypePartition).
			WithTag("node_id", n.ID).
			WithTag("child_id", child.ID)
	}

	if child.parent != nil {
		return errors.New("child already has a parent").
			WithType(ErrTypeAlreadyAttached).
			WithTag("node_id", n.ID).
			WithTag("child_id", child.ID).
			WithTag("parent_id", child.parent.ID)
	}

	for a := n; a != nil; a = a.parent {
		if a == child {
			return errors.New("child is an ancestor of the node").
				WithType(ErrTypeCycle).
				WithTag("node_id", n.ID).
				WithTag("child_id", child.ID)
		}
	}

	n.children = append(n.children, child)
	child.parent = n

	if split && len(n.children) > 1 {
		n.Split()
	}
	return nil
}

// RemoveChild removes child from the node children. The node partition is
// not rebuilt: callers that remove children after a split must split again
// or accept a stale partition. Partition and disposed nodes never remove
// children.
func (n *Node) RemoveChild(child *Node) bool {
	if n.checkMutable() != nil {
		return false
	}

	for i, c := range n.children {
		if c != child {
			continue
		}

		copy(n.children[i:], n.children[i+1:])
		n.children[len(n.children)-1] = nil
		n.children = n.children[:len(n.children)-1]
		child.parent = nil
		return true
	}
	return false
}

// Contains reports whether target is a child of the node. When recursive is
// true, the children descendants are searched too.
func (n *Node) Contains(target *Node, recursive bool) bool {
	if target == nil {
		return false
	}

	for _, c := range n.children {
		if c == target {
			return true
		}
	}

	if recursive {
		for _, c := range n.children {
			if c.Contains(target, true) {
				return true
			}
		}
	}
	return false
}

// ComputeBounds returns the union of the node stored bounds with the
// recursively computed bounds of all its children. The node is not
// modified.
func (n *Node) ComputeBounds() Box {
	if len(n.children) == 0 {
		return n.bounds
	}

	box := n.bounds
	for _, c := range n.children {
		box = box.Union(c.ComputeBounds())
	}
	return box
}

// UpdateBounds recomputes and stores the bounds of the node and all its
// descendants, bottom-up, and returns the node new bounds. Partition bounds
// are refreshed as well.
func (n *Node) UpdateBounds() Box {
	if len(n.children) == 0 {
		return n.bounds
	}

	box := n.bounds
	for _, c := range n.children {
		box = box.Union(c.UpdateBounds())
	}
	n.bounds = box

	refreshPartition(n.left)
	refreshPartition(n.right)
	return box
}

// Dispose releases the node, its children and its partition. Disposing a
// node more than once has no effect.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.disposed = true

	// Partition nodes do not own the children they reference.
	if !n.synthetic {
		for _, c := range n.children {
			c.Dispose()
		}
	}

	n.disposePartition()

	if r, ok := n.Data.(Releaser); ok {
		r.Release()
	}

	n.children = nil
	n.parent = nil
}

func (n *Node) disposePartition() {
	if n.left != nil {
		n.left.Dispose()
		n.left = nil
	}
	if n.right != nil {
		n.right.Dispose()
		n.right = nil
	}
}

func (n *Node) checkMutable() error {
	if n.disposed {
		return errors.New("node is disposed").
			WithType(ErrTypeDisposed).
			WithTag("node_id", n.ID)
	}

	if n.synthetic {
		return errors.New("node is a partition node").
			WithType(ErrTypePartition).
			WithTag("node_id", n.ID)
	}
	return nil
}

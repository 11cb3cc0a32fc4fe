package drivetrain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownNode  = errors.New("drivetrain: unknown node")
	ErrOutputInUse  = errors.New("drivetrain: node already has an output")
	ErrInputInUse   = errors.New("drivetrain: node already has an input")
	ErrCycle        = errors.New("drivetrain: connection would create a cycle")
	ErrNotBranching = errors.New("drivetrain: node cannot take two outputs")
)

// NodeID indexes a node inside its Graph.
type NodeID int

const NoNode NodeID = -1

// Node is one torque-transfer element. Upstream nodes call these three
// operations on their output once per step: first the two queries, then
// ForwardStep.
type Node interface {
	Base() *Component
	QueryInertia() float64
	QueryAngularVelocity(av, dt float64) float64
	ForwardStep(torque, inertiaSum, dt float64) float64
}

type brancher interface {
	branches() []NodeID
	setBranches(left, right NodeID)
}

// Graph owns every node of one vehicle's drivetrain.
type Graph struct {
	nodes []Node
}

func NewGraph() *Graph {
	return &Graph{}
}

func (g *Graph) Add(n Node) NodeID {
	id := NodeID(len(g.nodes))
	c := n.Base()
	c.graph = g
	c.id = id
	c.output = NoNode
	c.input = NoNode
	g.nodes = append(g.nodes, n)
	return id
}

func (g *Graph) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Connect makes to the single output of from.
func (g *Graph) Connect(from, to NodeID) error {
	src, dst := g.Node(from), g.Node(to)
	if src == nil || dst == nil {
		return fmt.Errorf("%w: %d -> %d", ErrUnknownNode, from, to)
	}
	if _, ok := src.(brancher); ok {
		return fmt.Errorf("%w: %s branches, use ConnectDifferential", ErrOutputInUse, src.Base().Name)
	}
	if src.Base().output != NoNode {
		return fmt.Errorf("%w: %s", ErrOutputInUse, src.Base().Name)
	}
	if err := g.checkTarget(from, to); err != nil {
		return err
	}
	src.Base().output = to
	dst.Base().input = from
	return nil
}

// ConnectDifferential attaches both branches of a differential.
func (g *Graph) ConnectDifferential(diff, left, right NodeID) error {
	src := g.Node(diff)
	if src == nil || g.Node(left) == nil || g.Node(right) == nil {
		return fmt.Errorf("%w: %d -> %d, %d", ErrUnknownNode, diff, left, right)
	}
	b, ok := src.(brancher)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotBranching, src.Base().Name)
	}
	if len(b.branches()) > 0 {
		return fmt.Errorf("%w: %s", ErrOutputInUse, src.Base().Name)
	}
	if left == right {
		return fmt.Errorf("%w: both branches are node %d", ErrInputInUse, left)
	}
	for _, to := range []NodeID{left, right} {
		if err := g.checkTarget(diff, to); err != nil {
			return err
		}
	}
	b.setBranches(left, right)
	g.nodes[left].Base().input = diff
	g.nodes[right].Base().input = diff
	return nil
}

func (g *Graph) checkTarget(from, to NodeID) error {
	if g.nodes[to].Base().input != NoNode {
		return fmt.Errorf("%w: %s", ErrInputInUse, g.nodes[to].Base().Name)
	}
	if from == to || g.reaches(to, from) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, g.nodes[from].Base().Name, g.nodes[to].Base().Name)
	}
	return nil
}

// reaches reports whether target is downstream of start.
func (g *Graph) reaches(start, target NodeID) bool {
	seen := make(map[NodeID]bool)
	stack := []NodeID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, g.outputs(id)...)
	}
	return false
}

func (g *Graph) outputs(id NodeID) []NodeID {
	n := g.nodes[id]
	if b, ok := n.(brancher); ok {
		return b.branches()
	}
	if out := n.Base().output; out != NoNode {
		return []NodeID{out}
	}
	return nil
}

// Chain returns the node ids reachable from root, depth first.
func (g *Graph) Chain(root NodeID) []NodeID {
	if g.Node(root) == nil {
		return nil
	}
	var out []NodeID
	var walk func(NodeID)
	walk = func(id NodeID) {
		out = append(out, id)
		for _, next := range g.outputs(id) {
			walk(next)
		}
	}
	walk(root)
	return out
}

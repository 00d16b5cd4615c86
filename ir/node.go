// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/gomlx/mixprec/optypes"
	"github.com/gomlx/mixprec/shapes"
)

// Node is the result of an operation, a value in the computation Graph.
//
// Nodes are immutable: the operation type, inputs and static attributes (Data)
// are fixed at construction time, as is the inferred shape. Rewriting passes
// create new nodes (usually on a new Graph) instead of changing existing ones.
type Node struct {
	graph  *Graph
	id     NodeId
	opType optypes.OpType
	shape  shapes.Shape
	inputs []*Node
	data   NodeData
}

// NodeData holds the static attributes of an operation, those that are not
// themselves nodes: a parameter name, reduction axes, the contraction spec of a
// DotGeneral, etc.
//
// Operations without static attributes (Add, Tanh, ...) have a nil NodeData.
// Implementations are immutable after construction; a pass that needs different
// attributes builds a new value and a new node with Graph.RebuildNode.
type NodeData interface {
	// String returns a short description of the attributes, used by Node.String.
	String() string
}

// Graph to which the Node belongs.
func (n *Node) Graph() *Graph { return n.graph }

// Id of the Node within its Graph: it is also its index in Graph.Nodes, and
// nodes only have inputs with smaller ids.
func (n *Node) Id() NodeId { return n.id }

// OpType performed by the node.
func (n *Node) OpType() optypes.OpType { return n.opType }

// Shape of the value output by the node.
func (n *Node) Shape() shapes.Shape { return n.shape }

// DType of the value output by the node: a shortcut to Node.Shape().DType.
func (n *Node) DType() dtypes.DType { return n.shape.DType }

// Rank of the value output by the node: a shortcut to Node.Shape().Rank().
func (n *Node) Rank() int { return n.shape.Rank() }

// IsScalar returns whether the value output by the node is scalar.
func (n *Node) IsScalar() bool { return n.shape.IsScalar() }

// Inputs are the other nodes this node takes as input.
// The slice is owned by Node and shouldn't be changed.
func (n *Node) Inputs() []*Node { return n.inputs }

// NumInputs returns the number of inputs of the node.
func (n *Node) NumInputs() int { return len(n.inputs) }

// Data returns the static attributes of the operation, or nil if it has none.
// See NodeData.
func (n *Node) Data() NodeData { return n.data }

// AssertValid panics if n is nil or if its graph is nil.
func (n *Node) AssertValid() {
	if n == nil {
		exceptions.Panicf("Node is nil")
	}
	if n.graph == nil {
		exceptions.Panicf("Node %s is not attached to a graph", n.opType)
	}
}

// GetParameterHandle returns the handle of the parameter this node represents.
// It panics if the node is not a Parameter.
func (n *Node) GetParameterHandle() ParameterHandle {
	pd, ok := n.data.(*ParameterData)
	if !ok {
		exceptions.Panicf("GetParameterHandle called on node %s, it works only for %s nodes",
			n.opType, optypes.Parameter)
	}
	return pd.Handle
}

// GetParameterName returns the name of the parameter this node represents.
// It panics if the node is not a Parameter.
func (n *Node) GetParameterName() string {
	pd, ok := n.data.(*ParameterData)
	if !ok {
		exceptions.Panicf("GetParameterName called on node %s, it works only for %s nodes",
			n.opType, optypes.Parameter)
	}
	return pd.Name
}

// String implements fmt.Stringer.
// It describes the operation, its inputs (as "#<id>" references), its static
// attributes and the resulting shape.
func (n *Node) String() string {
	if n == nil {
		return "Node(nil)"
	}
	parts := make([]string, 0, len(n.inputs)+1)
	for _, input := range n.inputs {
		parts = append(parts, fmt.Sprintf("#%d", input.id))
	}
	if n.data != nil {
		parts = append(parts, n.data.String())
	}
	desc := fmt.Sprintf("%s(%s) -> %s", n.opType, strings.Join(parts, ", "), n.shape)
	if n.shape.IsTuple() {
		return desc
	}
	return fmt.Sprintf("%s - mem: %s", desc, humanize.Bytes(uint64(n.shape.Memory())))
}

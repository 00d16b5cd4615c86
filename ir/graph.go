// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package ir implements a compact typed dataflow IR for tensor computations.
//
// A Graph holds an arena of Nodes, each annotated at construction time with the
// shape (data type and dimensions) of the value it produces -- see the
// shapeinference package for the inference rules. Nodes are immutable once
// created: passes that change a computation build a new Graph instead of
// mutating nodes in place.
//
// Nodes are only appended after their inputs exist, so Graph.Nodes is always a
// valid dependency (topological) order of the computation.
//
// Graphs are built with the operation constructors (Parameter, Constant, Add,
// DotGeneral, ...), most of which take the nodes as arguments and panic on
// invalid inputs -- use exceptions.TryCatch to convert those to errors at an
// API boundary.
package ir

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"

	"github.com/gomlx/mixprec/optypes"
	"github.com/gomlx/mixprec/shapes"
)

// NodeId is a unique NodeId within a Graph.
type NodeId int

// InvalidNodeId indicates a node that failed to be created.
const InvalidNodeId = NodeId(-1)

// ParameterHandle is a key used to refer to the graph input parameters.
type ParameterHandle int

// InvalidParameterHandle represents an invalid (or non-existent) parameter.
const InvalidParameterHandle = ParameterHandle(-1)

// Graph with the operations and dependencies of a computation.
type Graph struct {
	name string

	nodes      []*Node
	parameters []*Node
	outputs    []*Node

	parameterNameToHandle map[string]ParameterHandle
}

// New constructs an empty Graph with the given name.
func New(name string) *Graph {
	return &Graph{
		name:                  name,
		parameterNameToHandle: make(map[string]ParameterHandle),
	}
}

// Name of the computation this Graph defines.
func (g *Graph) Name() string { return g.name }

// NumNodes returns the number of nodes created so far.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Nodes return a slice of all nodes, in the order they were created -- a valid
// dependency order of the computation.
// The slice is owned by Graph and shouldn't be changed.
func (g *Graph) Nodes() []*Node { return g.nodes }

// NodeById returns the node for the given id.
func (g *Graph) NodeById(id NodeId) *Node {
	if id == InvalidNodeId || int(id) >= len(g.nodes) {
		exceptions.Panicf("invalid request Graph.NodeById(id=%d): there are only %d nodes", id, len(g.nodes))
	}
	return g.nodes[id]
}

// LastNode returns the last node created.
// It returns nil if no node has been created for this graph yet.
func (g *Graph) LastNode() *Node {
	if len(g.nodes) == 0 {
		return nil
	}
	return g.nodes[len(g.nodes)-1]
}

// Parameters returns the parameter nodes, ordered by their ParameterHandle.
// The slice is owned by Graph and shouldn't be changed.
func (g *Graph) Parameters() []*Node { return g.parameters }

// NumParameters returns the number of parameters of the graph.
func (g *Graph) NumParameters() int { return len(g.parameters) }

// ParameterByName returns the parameter node registered with the given name,
// or nil if there is no such parameter.
func (g *Graph) ParameterByName(name string) *Node {
	handle, found := g.parameterNameToHandle[name]
	if !found {
		return nil
	}
	return g.parameters[handle]
}

// Outputs returns the nodes marked as the results of the computation with SetOutputs.
// The slice is owned by Graph and shouldn't be changed.
func (g *Graph) Outputs() []*Node { return g.outputs }

// SetOutputs marks the given nodes as the results of the computation.
// At least one output must be given, and they all must belong to this graph.
// It replaces any outputs previously set.
func (g *Graph) SetOutputs(outputs ...*Node) {
	if len(outputs) == 0 {
		exceptions.Panicf("Graph %q: SetOutputs requires at least one output node", g.name)
	}
	for idx, node := range outputs {
		if node == nil {
			exceptions.Panicf("Graph %q: output #%d is nil!?", g.name, idx)
		}
		if node.graph != g {
			exceptions.Panicf("Graph %q: output #%d was created on a different graph (%q)", g.name, idx, node.graph.name)
		}
	}
	g.outputs = append(g.outputs[:0], outputs...)
}

// newNode registers a new node in the graph, assigning it the next id.
// The shape must have been validated/inferred by the caller.
func (g *Graph) newNode(opType optypes.OpType, shape shapes.Shape, data NodeData, inputs ...*Node) *Node {
	if !shape.Ok() {
		exceptions.Panicf("Graph %q: trying to add node %s with an invalid shape", g.name, opType)
	}
	node := &Node{
		graph:  g,
		id:     NodeId(len(g.nodes)),
		opType: opType,
		shape:  shape,
		inputs: inputs,
		data:   data,
	}
	g.nodes = append(g.nodes, node)
	return node
}

// String implements fmt.Stringer: it lists one node per line, with the outputs at the end.
func (g *Graph) String() string {
	parts := []string{fmt.Sprintf("Graph %q: %d nodes, %d parameters", g.name, len(g.nodes), len(g.parameters))}
	for _, node := range g.nodes {
		parts = append(parts, fmt.Sprintf("#%d\t%s", node.id, node))
	}
	if len(g.outputs) > 0 {
		refs := make([]string, len(g.outputs))
		for ii, node := range g.outputs {
			refs[ii] = fmt.Sprintf("#%d", node.id)
		}
		parts = append(parts, fmt.Sprintf("outputs: [%s]", strings.Join(refs, ", ")))
	}
	return strings.Join(parts, "\n")
}

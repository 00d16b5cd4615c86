// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package mixprec

import (
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/gomlx/mixprec/ir"
)

// castKey identifies one dtype conversion materialized during a rewrite.
type castKey struct {
	node  *ir.Node // Producer node, already rewritten.
	dtype dtypes.DType
}

// castCache dedupes the conversions inserted by a rewrite: all consumers that
// need the same producer at the same dtype share a single ConvertDType node,
// however many times it is requested.
type castCache struct {
	casts map[castKey]*ir.Node
}

func newCastCache() *castCache {
	return &castCache{casts: make(map[castKey]*ir.Node)}
}

// getOrInsert returns the conversion of node to dtype, creating the
// ConvertDType node only on the first request for this (node, dtype) pair.
// Converting a node to its own dtype returns the node itself and caches
// nothing.
func (c *castCache) getOrInsert(node *ir.Node, dtype dtypes.DType) *ir.Node {
	if node.DType() == dtype {
		return node
	}
	key := castKey{node: node, dtype: dtype}
	if cast, found := c.casts[key]; found {
		return cast
	}
	cast := ir.ConvertDType(node, dtype)
	c.casts[key] = cast
	return cast
}

// numCasts returns how many distinct conversions were materialized.
func (c *castCache) numCasts() int {
	return len(c.casts)
}

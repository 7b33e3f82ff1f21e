// Package history rebuilds the commit graph reachable from a repository's
// branches and linearizes it into a parent-respecting order.
package history

import (
	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/rybkr/gittopo/internal/gitcore"
)

// CommitNode is one commit and its direct neighbours. Both sets iterate in
// insertion order.
type CommitNode struct {
	Hash     gitcore.Hash
	parents  *linkedhashset.Set
	children *linkedhashset.Set
}

func newCommitNode(hash gitcore.Hash) *CommitNode {
	return &CommitNode{
		Hash:     hash,
		parents:  linkedhashset.New(),
		children: linkedhashset.New(),
	}
}

// Parents returns the parent hashes in the order they were recorded.
func (n *CommitNode) Parents() []gitcore.Hash {
	return hashes(n.parents)
}

// Children returns the child hashes in the order they were recorded.
func (n *CommitNode) Children() []gitcore.Hash {
	return hashes(n.children)
}

// HasParent reports whether hash is a direct parent of n.
func (n *CommitNode) HasParent(hash gitcore.Hash) bool {
	return n.parents.Contains(hash)
}

// IsRoot reports whether n has no parents.
func (n *CommitNode) IsRoot() bool {
	return n.parents.Empty()
}

func hashes(set *linkedhashset.Set) []gitcore.Hash {
	out := make([]gitcore.Hash, 0, set.Size())
	for _, v := range set.Values() {
		out = append(out, v.(gitcore.Hash))
	}
	return out
}

// Graph maps hashes to nodes. Every hash referenced by a node is itself a key.
type Graph struct {
	nodes map[gitcore.Hash]*CommitNode
	order []gitcore.Hash
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[gitcore.Hash]*CommitNode)}
}

// Node returns the node for hash, or nil.
func (g *Graph) Node(hash gitcore.Hash) *CommitNode {
	return g.nodes[hash]
}

// Len returns the number of commits in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Hashes returns every commit in the order it was first encountered.
func (g *Graph) Hashes() []gitcore.Hash {
	out := make([]gitcore.Hash, len(g.order))
	copy(out, g.order)
	return out
}

// ensure returns the node for hash, creating it if needed.
func (g *Graph) ensure(hash gitcore.Hash) *CommitNode {
	if node, ok := g.nodes[hash]; ok {
		return node
	}
	node := newCommitNode(hash)
	g.nodes[hash] = node
	g.order = append(g.order, hash)
	return node
}

// AddEdge records that parent is a direct parent of child, creating either
// node if needed. The edge is stored on both ends.
func (g *Graph) AddEdge(parent, child gitcore.Hash) {
	p := g.ensure(parent)
	c := g.ensure(child)
	p.children.Add(child)
	c.parents.Add(parent)
}

// AddCommit ensures a node exists for hash.
func (g *Graph) AddCommit(hash gitcore.Hash) *CommitNode {
	return g.ensure(hash)
}

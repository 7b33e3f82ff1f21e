package history

import (
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"
	log "github.com/sirupsen/logrus"

	"github.com/rybkr/gittopo/internal/gitcore"
)

// ParentReader returns the parents declared by a commit.
type ParentReader interface {
	Parents(hash gitcore.Hash) ([]gitcore.Hash, error)
}

// Build walks parent links from every branch tip and returns the complete
// reachable graph. Any read failure aborts the walk.
func Build(branches *gitcore.BranchIndex, reader ParentReader) (*Graph, error) {
	graph := NewGraph()
	visited := make(map[gitcore.Hash]bool)

	pending := arraystack.New()
	for _, tip := range branches.Tips() {
		pending.Push(tip)
	}

	for !pending.Empty() {
		value, _ := pending.Pop()
		hash := value.(gitcore.Hash)
		if visited[hash] {
			continue
		}

		graph.AddCommit(hash)
		parents, err := reader.Parents(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to read parents of %s: %w", hash.Short(), err)
		}

		for _, parent := range parents {
			if !visited[parent] {
				pending.Push(parent)
			}
			graph.AddEdge(parent, hash)
		}
		visited[hash] = true
	}

	log.WithFields(log.Fields{
		"tips":    branches.Len(),
		"commits": graph.Len(),
	}).Debug("commit graph built")

	return graph, nil
}

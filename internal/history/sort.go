package history

import (
	"fmt"

	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"github.com/rybkr/gittopo/internal/gitcore"
)

// IncompleteOrderError is returned by Sort when some commits never became
// ready, which happens only for cyclic histories.
type IncompleteOrderError struct {
	Missing []gitcore.Hash
}

func (e *IncompleteOrderError) Error() string {
	return fmt.Sprintf("history is not acyclic: %d commits could not be ordered", len(e.Missing))
}

// Sort returns the graph's commits with every parent before its children.
// Roots seed a FIFO queue in discovery order; a child is queued once all of
// its parents have been emitted.
//
// If the graph contains a cycle the commits on it are left out, and the
// partial order is returned together with an *IncompleteOrderError.
func Sort(graph *Graph) ([]gitcore.Hash, error) {
	order := make([]gitcore.Hash, 0, graph.Len())
	emitted := make(map[gitcore.Hash]bool, graph.Len())

	ready := linkedlistqueue.New()
	for _, hash := range graph.Hashes() {
		if graph.Node(hash).IsRoot() {
			ready.Enqueue(hash)
		}
	}

	for !ready.Empty() {
		value, _ := ready.Dequeue()
		hash := value.(gitcore.Hash)
		order = append(order, hash)
		emitted[hash] = true

		for _, child := range graph.Node(hash).Children() {
			if allEmitted(graph.Node(child).Parents(), emitted) {
				ready.Enqueue(child)
			}
		}
	}

	if len(order) != graph.Len() {
		var missing []gitcore.Hash
		for _, hash := range graph.Hashes() {
			if !emitted[hash] {
				missing = append(missing, hash)
			}
		}
		return order, &IncompleteOrderError{Missing: missing}
	}

	return order, nil
}

func allEmitted(parents []gitcore.Hash, emitted map[gitcore.Hash]bool) bool {
	for _, parent := range parents {
		if !emitted[parent] {
			return false
		}
	}
	return true
}

// Reverse reverses order in place and returns it, turning a parent-first
// order into a child-first one.
func Reverse(order []gitcore.Hash) []gitcore.Hash {
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

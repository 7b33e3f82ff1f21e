package history

import (
	"github.com/rybkr/gittopo/internal/gitcore"
)

// Entry is one line of the linearized history.
type Entry struct {
	Hash     gitcore.Hash   `json:"hash"`
	Branches []string       `json:"branches,omitempty"`
	Parents  []gitcore.Hash `json:"parents,omitempty"`
	Children []gitcore.Hash `json:"children,omitempty"`

	// Resumes is set when the previous entry is not a child of this one.
	Resumes bool `json:"resumes,omitempty"`
	// Breaks is set when the next entry is not a parent of this one.
	Breaks bool `json:"breaks,omitempty"`
}

// Report is a child-first linearization annotated for display.
type Report struct {
	Entries []Entry `json:"entries"`
	// Missing lists commits that could not be placed, in lenient mode only.
	Missing []gitcore.Hash `json:"missing,omitempty"`
}

// NewReport annotates order, which must already be child-first, with branch
// names and segment boundaries.
func NewReport(branches *gitcore.BranchIndex, graph *Graph, order []gitcore.Hash) *Report {
	report := &Report{Entries: make([]Entry, 0, len(order))}

	jumped := false
	for i, hash := range order {
		node := graph.Node(hash)
		entry := Entry{
			Hash:     hash,
			Branches: branches.Names(hash),
			Parents:  node.Parents(),
			Children: node.Children(),
			Resumes:  jumped,
		}

		jumped = i != len(order)-1 && !node.HasParent(order[i+1])
		entry.Breaks = jumped

		report.Entries = append(report.Entries, entry)
	}

	return report
}

// Segments splits the report into runs of direct parent links.
func (r *Report) Segments() [][]Entry {
	var segments [][]Entry
	start := 0
	for i, entry := range r.Entries {
		if entry.Breaks || i == len(r.Entries)-1 {
			segments = append(segments, r.Entries[start:i+1])
			start = i + 1
		}
	}
	return segments
}

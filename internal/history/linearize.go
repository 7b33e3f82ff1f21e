package history

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/rybkr/gittopo/internal/gitcore"
)

// Options controls how Linearize handles damaged histories.
type Options struct {
	// Lenient keeps a partial order when some commits cannot be ordered,
	// instead of failing.
	Lenient bool
}

// LinearizeRepository loads the branches of repo and linearizes the history
// reachable from them.
func LinearizeRepository(repo *gitcore.Repository, opts Options) (*Report, error) {
	branches, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to load branches: %w", err)
	}
	return Linearize(branches, repo.Objects(), opts)
}

// Linearize builds the graph reachable from branches, sorts it and returns the
// child-first report.
func Linearize(branches *gitcore.BranchIndex, reader ParentReader, opts Options) (*Report, error) {
	graph, err := Build(branches, reader)
	if err != nil {
		return nil, err
	}

	order, err := Sort(graph)
	var incomplete *IncompleteOrderError
	if err != nil {
		if !opts.Lenient || !errors.As(err, &incomplete) {
			return nil, err
		}
		log.WithField("missing", len(incomplete.Missing)).Warn("history contains a cycle, output is partial")
	}

	report := NewReport(branches, graph, Reverse(order))
	if incomplete != nil {
		report.Missing = incomplete.Missing
	}
	return report, nil
}

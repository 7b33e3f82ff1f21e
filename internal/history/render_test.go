package history

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rybkr/gittopo/internal/gitcore"
)

func lines(hashes ...string) string {
	return strings.Join(hashes, "\n") + "\n"
}

func linearize(t *testing.T, index *gitcore.BranchIndex, reader fakeReader, opts Options) *Report {
	t.Helper()
	report, err := Linearize(index, reader, opts)
	require.NoError(t, err)
	return report
}

func TestRenderSingleRoot(t *testing.T) {
	report := linearize(t, branches("main", "a"), fakeReader{h("a"): nil}, Options{})

	require.Equal(t, string(h("a"))+" main\n", report.Text())
	require.NotContains(t, report.Text(), "=")
}

func TestRenderLinear(t *testing.T) {
	reader := fakeReader{
		h("a"): nil,
		h("b"): {h("a")},
		h("c"): {h("b")},
	}
	report := linearize(t, branches("main", "c"), reader, Options{})

	want := lines(string(h("c"))+" main", string(h("b")), string(h("a")))
	require.Equal(t, want, report.Text())
	require.Len(t, report.Segments(), 1)
}

func TestRenderDiverging(t *testing.T) {
	reader := fakeReader{
		h("a"): nil,
		h("c"): {h("a")},
		h("d"): {h("a")},
	}
	// Lexical ref walk order: feature before main.
	report := linearize(t, branches("feature", "d", "main", "c"), reader, Options{})

	want := lines(
		string(h("d"))+" feature",
		string(h("a"))+"=",
		"",
		"=",
		string(h("c"))+" main",
		string(h("a")),
	)
	require.Equal(t, want, report.Text())

	segments := report.Segments()
	require.Len(t, segments, 2)
	require.Equal(t, h("d"), segments[0][0].Hash)
	require.Equal(t, h("c"), segments[1][0].Hash)
}

func TestRenderMerge(t *testing.T) {
	reader := fakeReader{
		h("a"): nil,
		h("b"): {h("a")},
		h("c"): {h("a")},
		h("d"): {h("b"), h("c")},
	}
	report := linearize(t, branches("main", "d"), reader, Options{})

	want := lines(
		string(h("d"))+" main",
		string(h("b")),
		string(h("a"))+"=",
		"",
		"="+string(h("d")),
		string(h("c")),
		string(h("a")),
	)
	require.Equal(t, want, report.Text())

	require.True(t, report.Entries[1].Breaks)
	require.True(t, report.Entries[2].Resumes)
	require.False(t, report.Entries[0].Breaks)
}

func TestRenderMultipleNamesOnOneCommit(t *testing.T) {
	index := gitcore.NewBranchIndex()
	index.Add(h("a"), "main")
	index.Add(h("a"), "release/1.0")

	report := linearize(t, index, fakeReader{h("a"): nil}, Options{})
	require.Equal(t, string(h("a"))+" main release/1.0\n", report.Text())
}

func TestRenderColor(t *testing.T) {
	report := linearize(t, branches("main", "a"), fakeReader{h("a"): nil}, Options{})

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, true).Render(report))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, string(h("a"))+" \x1b["))
	require.Contains(t, out, "main")
	require.NotEqual(t, report.Text(), out)
}

func TestRenderIdempotent(t *testing.T) {
	reader := fakeReader{
		h("a"): nil,
		h("b"): {h("a")},
		h("c"): {h("a")},
		h("d"): {h("b"), h("c")},
		h("e"): {h("c")},
	}

	first := linearize(t, branches("main", "d", "topic", "e"), reader, Options{}).Text()
	second := linearize(t, branches("main", "d", "topic", "e"), reader, Options{}).Text()
	require.Equal(t, first, second)
}

func TestLinearizeCycle(t *testing.T) {
	reader := fakeReader{
		h("0"): nil,
		h("x"): {h("y")},
		h("y"): {h("x")},
	}

	_, err := Linearize(branches("main", "x", "root", "0"), reader, Options{})
	var incomplete *IncompleteOrderError
	require.ErrorAs(t, err, &incomplete)

	report := linearize(t, branches("main", "x", "root", "0"), reader, Options{Lenient: true})
	require.Equal(t, string(h("0"))+" root\n", report.Text())
	require.ElementsMatch(t, []gitcore.Hash{h("x"), h("y")}, report.Missing)
}

package history

import (
	"bufio"
	"bytes"
	"io"

	"github.com/fatih/color"

	"github.com/rybkr/gittopo/internal/gitcore"
)

// Renderer writes a Report in the plain-text segment layout:
//
//	<hash> <branch>...
//	<parent> <parent>=
//
//	=<child> <child>
//	<hash>
//
// The "parents=" line, a blank line and the "=children" line appear wherever
// two consecutive entries are not directly linked.
type Renderer struct {
	w      io.Writer
	branch *color.Color
}

// NewRenderer returns a renderer writing to w. Branch names are colored when
// useColor is set; everything else is always plain.
func NewRenderer(w io.Writer, useColor bool) *Renderer {
	branch := color.New(color.FgGreen, color.Bold)
	if useColor {
		branch.EnableColor()
	} else {
		branch.DisableColor()
	}
	return &Renderer{w: w, branch: branch}
}

// Render writes every entry of report.
func (r *Renderer) Render(report *Report) error {
	bw := bufio.NewWriter(r.w)

	for _, entry := range report.Entries {
		if entry.Resumes {
			bw.WriteByte('=')
			writeHashes(bw, entry.Children)
			bw.WriteByte('\n')
		}

		bw.WriteString(string(entry.Hash))
		for _, name := range entry.Branches {
			bw.WriteByte(' ')
			bw.WriteString(r.branch.Sprint(name))
		}
		bw.WriteByte('\n')

		if entry.Breaks {
			writeHashes(bw, entry.Parents)
			bw.WriteString("=\n\n")
		}
	}

	return bw.Flush()
}

func writeHashes(bw *bufio.Writer, hashes []gitcore.Hash) {
	for i, hash := range hashes {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(string(hash))
	}
}

// Text returns the uncolored rendering of report.
func (r *Report) Text() string {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = NewRenderer(&buf, false).Render(r)
	return buf.String()
}

// Package text renders dependency trees for terminals.
package text

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/matzehuels/deptree/pkg/deps"
)

// Options configures [Render].
type Options struct {
	// MaxDepth hides nodes deeper than this (0: show everything). Hidden
	// subtrees are summarised as "… N more".
	MaxDepth int
	// Styled enables colors. Leave off when writing to files.
	Styled bool
}

var (
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	enumStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	moreStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// Render returns tr as an indented tree:
//
//	express@4.18.2
//	├── accepts@1.3.8
//	│   └── mime-types@2.1.35
//	└── array-flatten@1.1.1
func Render(tr *deps.Node, opts Options) string {
	if tr == nil {
		return ""
	}
	t := build(tr, 0, opts).Enumerator(tree.DefaultEnumerator)
	if opts.Styled {
		t = t.EnumeratorStyle(enumStyle)
	}
	return t.String()
}

// Write writes [Render] output followed by a newline.
func Write(w io.Writer, tr *deps.Node, opts Options) error {
	_, err := fmt.Fprintln(w, Render(tr, opts))
	return err
}

func build(n *deps.Node, depth int, opts Options) *tree.Tree {
	t := tree.Root(label(n, opts.Styled))
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		if hidden := n.Count() - 1; hidden > 0 {
			t.Child(more(hidden, opts.Styled))
		}
		return t
	}
	for _, c := range n.Dependencies {
		if len(c.Dependencies) == 0 {
			t.Child(label(c, opts.Styled))
			continue
		}
		t.Child(build(c, depth+1, opts))
	}
	return t
}

func label(n *deps.Node, styled bool) string {
	if !styled {
		return n.ID()
	}
	return nameStyle.Render(n.Name) + versionStyle.Render("@"+n.Version)
}

func more(n int, styled bool) string {
	s := fmt.Sprintf("… %d more", n)
	if styled {
		return moreStyle.Render(s)
	}
	return s
}

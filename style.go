package liveedit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	pathStyle     = lipgloss.NewStyle().Bold(true)
	addStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	delStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	hunkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	partialStyle  = lipgloss.NewStyle().Faint(true).Italic(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	createdStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	deletedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
)

type lineKind int

const (
	plainLine lineKind = iota
	pathLine
	diffLine
)

// Stylize colors a rendered frame for the terminal. The frame is parsed as
// markdown; lines of diff code blocks are colored by their prefix and the
// path line introducing each block is bold. Everything else is untouched.
func Stylize(frame string) string {
	source := []byte(frame)
	kinds := classifyLines(source)
	if len(kinds) == 0 {
		return frame
	}

	var b strings.Builder
	offset := 0
	for _, line := range strings.SplitAfter(frame, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch kinds[offset] {
		case pathLine:
			body = pathStyle.Render(body)
		case diffLine:
			body = styleDiffLine(body)
		}
		b.WriteString(body)
		if strings.HasSuffix(line, "\n") {
			b.WriteString("\n")
		}
		offset += len(line)
	}
	return b.String()
}

// classifyLines maps the byte offset of every interesting line start to its
// kind.
func classifyLines(source []byte) map[int]lineKind {
	kinds := map[int]lineKind{}
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if string(block.Language(source)) != "diff" {
			return ast.WalkSkipChildren, nil
		}

		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			kinds[lines.At(i).Start] = diffLine
		}

		if p, ok := block.PreviousSibling().(*ast.Paragraph); ok {
			if pl := p.Lines(); pl.Len() > 0 {
				last := pl.At(pl.Len() - 1)
				if strings.HasSuffix(strings.TrimSpace(string(last.Value(source))), ":") {
					kinds[lineStart(source, last.Start)] = pathLine
				}
			}
		}
		return ast.WalkSkipChildren, nil
	})
	return kinds
}

func lineStart(source []byte, pos int) int {
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

func styleDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "@@"):
		return hunkStyle.Render(line)
	case strings.HasPrefix(line, "+"):
		return addStyle.Render(line)
	case strings.HasPrefix(line, "-"):
		return delStyle.Render(line)
	case strings.HasPrefix(line, "~"):
		return partialStyle.Render(line)
	case strings.HasPrefix(line, "#"), strings.HasPrefix(line, `\`), strings.HasPrefix(line, "="):
		return faintStyle.Render(line)
	default:
		return line
	}
}

// FormatSummary renders the outcome of a commit, undo or redo.
func FormatSummary(s *Summary) string {
	if s == nil {
		return ""
	}

	var b strings.Builder
	if s.Message != "" {
		b.WriteString(headerStyle.Render(s.Message) + "\n\n")
	}

	renderList := func(title string, style lipgloss.Style, list []string) {
		if len(list) == 0 {
			return
		}
		b.WriteString(style.Render(title) + "\n")
		for _, f := range list {
			b.WriteString("  " + f)
			if st, ok := s.Stats[f]; ok {
				b.WriteString(" " + addStyle.Render(fmt.Sprintf("+%d", st.Added)) + " " + delStyle.Render(fmt.Sprintf("-%d", st.Removed)))
			}
			b.WriteString("\n")
		}
	}

	renderList("Created:", createdStyle, s.Created)
	renderList("Modified:", modifiedStyle, s.Modified)
	renderList("Deleted:", deletedStyle, s.Deleted)
	renderList("Failed:", errorStyle, s.Failed)

	return b.String()
}

// TotalStats sums the line stats of every written file.
func (s *Summary) TotalStats() LineStats {
	var total LineStats
	for _, st := range s.Stats {
		total.Added += st.Added
		total.Removed += st.Removed
	}
	return total
}

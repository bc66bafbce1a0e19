package liveedit

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	diffContext  = 5
	progressBars = 30

	noNewlineMarker = "\\ No newline at end of file\n"
)

// SplitLines splits s into lines that keep their terminators, so a trailing
// line without one stays distinguishable.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// DiffPartial renders candidate against original as a fenced unified diff.
//
// When settled, candidate is final and diffed in full. Otherwise only its
// complete lines are diffed, against the part of original they have reached
// so far; a progress line follows, and a trailing line without a terminator
// is shown with the "~" marker instead of as an addition.
func DiffPartial(original, candidate []string, settled bool) string {
	if settled {
		return fence(unifiedDiff(original, candidate), "")
	}

	complete, partial := candidate, ""
	if n := len(candidate); n > 0 && !strings.HasSuffix(candidate[n-1], "\n") {
		complete, partial = candidate[:n-1], candidate[n-1]
	}

	reached := lastAligned(original, complete)
	body := unifiedDiff(original[:reached], complete)

	var tail strings.Builder
	if len(original) > 0 {
		tail.WriteString(progressLine(reached, len(original)))
	}
	if partial != "" {
		tail.WriteString("~" + partial + "\n")
	}
	return fence(body, tail.String())
}

// lastAligned returns how many leading lines of original are accounted for
// by complete: the end of the last block both sequences share.
func lastAligned(original, complete []string) int {
	if len(original) == 0 || len(complete) == 0 {
		return 0
	}
	reached := 0
	m := difflib.NewMatcher(original, complete)
	for _, block := range m.GetMatchingBlocks() {
		if block.Size > 0 && block.A+block.Size > reached {
			reached = block.A + block.Size
		}
	}
	return reached
}

func unifiedDiff(a, b []string) string {
	a, b = terminated(a), terminated(b)

	var out strings.Builder
	m := difflib.NewMatcher(a, b)
	for _, group := range m.GetGroupedOpCodes(diffContext) {
		first, last := group[0], group[len(group)-1]
		fmt.Fprintf(&out, "@@ -%s +%s @@\n", hunkRange(first.I1, last.I2), hunkRange(first.J1, last.J2))

		for _, op := range group {
			if op.Tag == 'e' {
				writePrefixed(&out, " ", a[op.I1:op.I2])
				continue
			}
			if op.Tag == 'r' || op.Tag == 'd' {
				writePrefixed(&out, "-", a[op.I1:op.I2])
			}
			if op.Tag == 'r' || op.Tag == 'i' {
				writePrefixed(&out, "+", b[op.J1:op.J2])
			}
		}
	}
	return out.String()
}

// terminated gives every line a terminator for display. A final line that
// had none carries the no-newline marker, so it still differs from the same
// text with a newline.
func terminated(lines []string) []string {
	n := len(lines)
	if n == 0 || strings.HasSuffix(lines[n-1], "\n") {
		return lines
	}
	out := make([]string, n)
	copy(out, lines)
	out[n-1] += "\n" + noNewlineMarker
	return out
}

func writePrefixed(b *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		b.WriteString(prefix + line)
	}
}

func hunkRange(start, stop int) string {
	begin := start + 1
	length := stop - start
	if length == 1 {
		return fmt.Sprintf("%d", begin)
	}
	if length == 0 {
		begin--
	}
	return fmt.Sprintf("%d,%d", begin, length)
}

func progressLine(reached, total int) string {
	pct := float64(reached) * 100 / float64(total)
	filled := int(pct * progressBars / 100)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBars-filled)
	return fmt.Sprintf("# %3d / %3d lines [%s] %3.0f%%\n", reached, total, bar, pct)
}

// fence wraps a diff body in a markdown code block whose fence does not
// collide with backticks in the content.
func fence(body, tail string) string {
	if body == "" && tail == "" {
		body = "= no changes\n"
	}
	content := body + tail

	ticks := "```"
	for i := 3; i < 10; i++ {
		ticks = strings.Repeat("`", i)
		if !strings.Contains(content, ticks) {
			break
		}
	}
	return ticks + "diff\n" + content + ticks + "\n"
}

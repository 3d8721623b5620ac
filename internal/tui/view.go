package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/michaelscutari/zrewrite/internal/runner"
)

const barBlockWidth = 30

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	writeLine := func(line string) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	title := "zrewrite"
	if m.dryRun {
		title += dryRunStyle.Render(" (dry run)")
	}
	writeLine(titleStyle.Render(title))

	writeLine(pathStyle.Render("Path: " + truncateMiddle(m.root, max(10, m.width-6))))

	if m.total == 0 && !m.finished {
		writeLine("Discovering files...")
		writeLine(helpStyle.Render(m.helpLine()))
		return b.String()
	}

	writeLine(formatBar(m.processed, m.total) + fmt.Sprintf("  %s / %s files", FormatCount(m.processed), FormatCount(m.total)))

	elapsed := m.now().Sub(m.start)
	rewrittenLabel := "rewritten"
	if m.dryRun {
		rewrittenLabel = "would rewrite"
	}
	writeLine(statsStyle.Render(fmt.Sprintf("%s %s | skipped %s | %s",
		rewrittenLabel, FormatCount(m.rewritten), FormatCount(m.skipped), FormatRate(m.rewritten, elapsed))))

	if m.current != "" {
		writeLine(currentStyle.Render("→ " + truncateMiddle(m.current, max(10, m.width-4))))
	}

	for _, line := range m.recent {
		writeLine(m.formatRecent(line))
	}

	if m.finished {
		b.WriteString("\n")
		writeLine(m.summary())
	}

	writeLine(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m *Model) formatRecent(line recentLine) string {
	width := max(10, m.width-12)
	path := truncateMiddle(line.path, width)

	switch line.state {
	case runner.Committed:
		return committedStyle.Render("  done    " + path)
	case runner.Rewritten:
		return dryRunStyle.Render("  would   " + path)
	case runner.Skipped:
		return skippedStyle.Render(fmt.Sprintf("  skip    %s (%s)", path, line.reason))
	case runner.Failed:
		return failedStyle.Render("  FAILED  " + path)
	default:
		return "          " + path
	}
}

func (m *Model) summary() string {
	if m.err != nil {
		return failedStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.result == nil {
		return ""
	}
	line := fmt.Sprintf("Done. Processed %d files, rewritten %d files.", m.result.Processed, m.result.Rewritten)
	if m.result.Interrupted {
		line = fmt.Sprintf("Stopped after %d of %d files.", m.result.Processed, m.result.Candidates)
	}
	return committedStyle.Render(line)
}

func formatBar(done, total int) string {
	if total <= 0 || done <= 0 {
		empty := strings.Repeat("░", barBlockWidth)
		return barEmptyStyle.Render(empty) + fmt.Sprintf("  %3d%%", 0)
	}

	pct := float64(done) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}

	filled := int(math.Round(pct / 100 * float64(barBlockWidth)))
	if filled < 1 {
		filled = 1
	}
	if filled > barBlockWidth {
		filled = barBlockWidth
	}

	filledStr := barFilledStyle.Render(strings.Repeat("█", filled))
	emptyStr := barEmptyStyle.Render(strings.Repeat("░", barBlockWidth-filled))
	return filledStr + emptyStr + fmt.Sprintf("  %3d%%", int(math.Floor(pct)))
}

func truncateMiddle(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	head := (maxLen - 3) / 2
	tail := maxLen - 3 - head
	return string(r[:head]) + "..." + string(r[len(r)-tail:])
}

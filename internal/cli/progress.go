package cli

import (
	"fmt"
	"io"
	"os"

	"charm.land/bubbles/v2/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme holds the colors used for terminal output.
type Theme struct {
	Status lipgloss.Color
	Hint   lipgloss.Color
}

var defaultTheme = Theme{
	Status: lipgloss.Color("#5FAFD7"), // light blue
	Hint:   lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// newProgressBar returns a summarization progress callback that redraws a
// single line on w. It returns nil when w is not a terminal so piped
// output stays clean.
func newProgressBar(w io.Writer) func(done, total int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}

	bar := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	theme := defaultTheme

	return func(done, total int) {
		if total <= 0 {
			return
		}
		pct := float64(done) / float64(total)
		fmt.Fprintf(w, "\r%s %s %s",
			theme.statusStyle().Render("Summarizing"),
			bar.ViewAs(pct),
			theme.hintStyle().Render(fmt.Sprintf("%d/%d", done, total)),
		)
		if done >= total {
			fmt.Fprintln(w)
		}
	}
}

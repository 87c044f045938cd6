package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/youseo/internal/cache"
)

// Stats table layout.
const (
	statsNamespaceWidth = 10
	statsCountWidth     = 8
	statsSizeWidth      = 12
)

// headerColor returns the Lip Gloss color used for table headers.
func headerColor() lipgloss.Color { return lipgloss.Color("39") }

// expiredColor returns the color used for non-zero expired counts.
func expiredColor() lipgloss.Color { return lipgloss.Color("214") }

// borderColor returns the color of the stats box border.
func borderColor() lipgloss.Color { return lipgloss.Color("240") }

// isWriterTerminal reports whether w is a terminal file.
func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isTerminal(f)
	}
	return false
}

// renderStatsJSON writes stats as indented JSON.
func renderStatsJSON(w io.Writer, stats *cache.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		return fmt.Errorf("encoding cache stats: %w", err)
	}
	return nil
}

// renderStatsTable writes a per-namespace table, boxed and colored when w is
// a terminal.
func renderStatsTable(w io.Writer, stats *cache.Stats) error {
	body := statsTableBody(stats, isWriterTerminal(w))
	if isWriterTerminal(w) {
		box := lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(borderColor()).
			Padding(0, 1)
		_, err := fmt.Fprintln(w, box.Render(strings.TrimRight(body, "\n")))
		return err
	}
	_, err := io.WriteString(w, body)
	return err
}

func statsTableBody(stats *cache.Stats, styled bool) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	title := "CACHE STATISTICS"
	header := fmt.Sprintf("%-*s %*s %*s %*s %*s",
		statsNamespaceWidth, "NAMESPACE",
		statsCountWidth, "TOTAL",
		statsCountWidth, "VALID",
		statsCountWidth, "EXPIRED",
		statsSizeWidth, "SIZE")
	if styled {
		bold := lipgloss.NewStyle().Bold(true).Foreground(headerColor())
		title = bold.Render(title)
		header = bold.Render(header)
	}

	b.WriteString(title + "\n")
	if !styled {
		b.WriteString(strings.Repeat("=", len("CACHE STATISTICS")) + "\n")
	}
	b.WriteString(p.Sprintf("Directory: %s\n", stats.Location))
	if !stats.Enabled {
		b.WriteString("Status:    disabled\n")
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(header + "\n")

	for _, ns := range cache.Namespaces() {
		s, ok := stats.Namespaces[ns]
		if !ok {
			continue
		}
		expired := p.Sprintf("%*d", statsCountWidth, s.Expired)
		if styled && s.Expired > 0 {
			expired = lipgloss.NewStyle().Foreground(expiredColor()).Render(expired)
		}
		b.WriteString(p.Sprintf("%-*s %*d %*d %s %*s\n",
			statsNamespaceWidth, ns.String(),
			statsCountWidth, s.Total,
			statsCountWidth, s.Valid,
			expired,
			statsSizeWidth, formatBytes(p, s.SizeBytes)))
	}

	b.WriteString("\n")
	b.WriteString(p.Sprintf("Total size: %s (%.2f MB)\n", formatBytes(p, stats.TotalSizeBytes), stats.TotalSizeMB))
	return b.String()
}

// formatBytes renders a byte count with thousands separators.
func formatBytes(p *message.Printer, n int64) string {
	return p.Sprintf("%d B", n)
}

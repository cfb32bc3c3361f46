package state

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	indexsvc "github.com/Paintersrp/textsearch/internal/services/index"
)

// IndexStatsMsg carries the latest build statistics and the footer line
// rendered from them.
type IndexStatsMsg struct {
	Stats indexsvc.Stats
	Line  string
}

// IndexHeartbeatCmd samples the index service, stores the rendered line in
// RootStatus and reports it to the overlay.
func (s *State) IndexHeartbeatCmd() tea.Cmd {
	if s == nil {
		return nil
	}

	return func() tea.Msg {
		msg := IndexStatsMsg{}
		if s.Index != nil {
			msg.Stats = s.Index.Stats()
			msg.Line = StatusLine(msg.Stats)
		}
		if s.RootStatus != nil {
			s.RootStatus.Set(msg.Line)
		}
		return msg
	}
}

// StatusLine summarizes a build for the overlay footer, for example
// "12 documents · 3 changes pending · built 17:42 in 2ms".
func StatusLine(stats indexsvc.Stats) string {
	if stats.LastRebuild.IsZero() && stats.Documents == 0 {
		if stats.Pending > 0 {
			return fmt.Sprintf("index not built · %s", pending(stats.Pending))
		}
		return "index not built"
	}

	parts := []string{plural(stats.Documents, "document")}
	if stats.Pending > 0 {
		parts = append(parts, pending(stats.Pending))
	}
	if !stats.LastRebuild.IsZero() {
		built := "built " + stats.LastRebuild.Local().Format("15:04")
		if stats.Duration > 0 {
			built += " in " + stats.Duration.Round(time.Millisecond).String()
		}
		parts = append(parts, built)
	}
	return strings.Join(parts, " · ")
}

func pending(n int) string {
	return plural(n, "change") + " pending"
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

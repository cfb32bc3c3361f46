package search

import (
	"fmt"
	goruntime "runtime"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/textsearch/internal/overlay"
	"github.com/Paintersrp/textsearch/internal/runtime"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/state"
	tsearch "github.com/Paintersrp/textsearch/internal/tui/search"
	cmdutil "github.com/Paintersrp/textsearch/pkg/cmd"
)

// HeartbeatInterval is how often the footer re-reads index statistics while
// watching.
const HeartbeatInterval = 2 * time.Second

type options struct {
	open    string
	from    string
	limit   int
	watch   bool
	startUp bool
}

func NewCmdSearch(s *state.State) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:     "search",
		Aliases: []string{"s", "ui"},
		Short:   "Open the interactive search overlay.",
		Long: heredoc.Doc(`
			Opens the search overlay in the terminal. Press ctrl+k to show it, type
			to search, move with the arrow keys or tab, enter to open the selected
			result and esc to dismiss.

			With --watch, edits to matching files are re-indexed before the next
			query. With --from, queries run against written artifacts instead.
		`),
		Example: heredoc.Doc(`
			textsearch search
			textsearch search --watch --open clipboard
			textsearch search --from https://docs.example.com/search/
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, o)
		},
	}

	cmd.Flags().StringVar(&o.open, "open", "browser", "How results are opened: browser, clipboard or print")
	cmd.Flags().StringVar(&o.from, "from", "", "Load artifacts from a directory or URL instead of indexing")
	cmd.Flags().IntVarP(&o.limit, "limit", "n", search.DefaultLimit, "Maximum hits per indexed field")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Re-index files as they change")
	cmd.Flags().BoolVar(&o.startUp, "open-on-start", true, "Show the overlay immediately")

	return cmd
}

func run(cmd *cobra.Command, s *state.State, o options) error {
	if err := cmdutil.RequireState(s); err != nil {
		return err
	}

	navigator, err := overlay.NavigatorFor(o.open, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	searcher, err := searcherFor(cmd, s, o)
	if err != nil {
		return err
	}

	opts := tsearch.Options{
		Navigator:   navigator,
		BaseURL:     s.Config.BaseURL,
		Mac:         goruntime.GOOS == "darwin",
		Limit:       o.limit,
		OpenOnStart: o.startUp,
		Logger:      s.Logger,
	}
	if !cmd.Flags().Changed("from") {
		opts.Heartbeat = s.IndexHeartbeatCmd
	}

	model := tsearch.NewModel(searcher, opts)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	if o.watch && !cmd.Flags().Changed("from") {
		watcher, err := s.Watch()
		if err != nil {
			return err
		}
		watcher.SetHeartbeat(s.IndexHeartbeatCmd, HeartbeatInterval)
		go forward(p, watcher)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running search overlay: %w", err)
	}
	return nil
}

func searcherFor(cmd *cobra.Command, s *state.State, o options) (runtime.Searcher, error) {
	if !cmd.Flags().Changed("from") {
		return s.Searcher(cmd.Context()), nil
	}
	src, err := cmdutil.ResolveArtifactSource(s, o.from)
	if err != nil {
		return nil, err
	}
	session, err := runtime.Load(cmd.Context(), src)
	if err != nil {
		// The overlay reports the index as unavailable.
		s.Logger.Warn("failed to load search artifacts", "error", err)
	}
	return session, nil
}

// forward relays watcher messages into the program until the watcher closes.
func forward(p *tea.Program, watcher *state.ProjectWatcher) {
	for {
		msg := watcher.Next()
		if msg == nil {
			return
		}
		p.Send(msg)
	}
}


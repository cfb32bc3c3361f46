package watch

import (
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	indexsvc "github.com/Paintersrp/textsearch/internal/services/index"
	"github.com/Paintersrp/textsearch/internal/state"
	cmdutil "github.com/Paintersrp/textsearch/pkg/cmd"
)

func NewCmdWatch(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Rebuild the search artifacts whenever a source file changes.",
		Long: heredoc.Doc(`
			Builds the index once, then watches the project root and rebuilds it
			after any matching file is created, written, renamed or removed. Ignored
			directories and the output directory are not watched.
		`),
		Example: heredoc.Doc(`
			textsearch watch
			textsearch watch --log-level debug
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s)
		},
	}

	return cmd
}

func run(cmd *cobra.Command, s *state.State) error {
	if err := cmdutil.RequireState(s); err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	watcher, err := s.Watch()
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = watcher.Close()
	}()

	build, _, err := s.Index.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Fprintf(out, "Indexed %d documents, watching %s\n", len(build.Docs), s.Config.Root)

	for {
		switch msg := watcher.Next().(type) {
		case nil:
			return nil
		case state.ProjectWatcherErrMsg:
			s.Logger.Warn("watcher error", "error", msg.Err)
		case state.ProjectFileChangedMsg:
			s.Logger.Debug("change detected", "path", msg.Path)
			build, rebuilt, err := s.Index.Refresh(ctx)
			if errors.Is(err, indexsvc.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			if err != nil {
				s.Logger.Warn("rebuild failed", "path", msg.Path, "error", err)
				continue
			}
			if rebuilt {
				fmt.Fprintf(out, "Rebuilt %d documents after %s\n", len(build.Docs), msg.Path)
			}
		}
	}
}

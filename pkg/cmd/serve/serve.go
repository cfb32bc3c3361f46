package serve

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/textsearch/internal/constants"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/state"
	"github.com/Paintersrp/textsearch/internal/web"
	cmdutil "github.com/Paintersrp/textsearch/pkg/cmd"
)

type options struct {
	addr  string
	limit int
	watch bool
}

func NewCmdServe(s *state.State) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search artifacts and a JSON search API.",
		Long: heredoc.Doc(`
			Builds the index, writes the artifacts and serves them over HTTP so a
			browser client can load them:

			  GET /search/text-search-docs.json   document list
			  GET /search/text-search-index.json  serialized index
			  GET /api/search?q=...&limit=...     server-side query
			  GET /healthz                        index statistics
		`),
		Example: heredoc.Doc(`
			textsearch serve
			textsearch serve --addr :8080 --watch
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, o)
		},
	}

	cmd.Flags().StringVar(&o.addr, "addr", constants.DefaultAddr, "Address to listen on")
	cmd.Flags().IntVarP(&o.limit, "limit", "n", search.DefaultLimit, "Default maximum hits per indexed field")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Re-index files as they change")

	return cmd
}

func run(cmd *cobra.Command, s *state.State, o options) error {
	if err := cmdutil.RequireState(s); err != nil {
		return err
	}

	ctx := cmd.Context()
	build, _, err := s.Index.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if !s.Config.OutputJSON {
		s.Logger.Warn("outputJson is disabled, artifacts are not served")
	}

	if o.watch {
		watcher, err := s.Watch()
		if err != nil {
			return err
		}
		go func() {
			for {
				msg := watcher.Next()
				if msg == nil {
					return
				}
				if _, ok := msg.(state.ProjectFileChangedMsg); !ok {
					continue
				}
				if _, _, err := s.Index.Refresh(ctx); err != nil && ctx.Err() == nil {
					s.Logger.Warn("rebuild failed", "error", err)
				}
			}
		}()
	}

	srv := web.NewServer(web.Options{
		Searcher:     s.Searcher(ctx),
		Stats:        s.Index.Stats,
		ArtifactsDir: artifactsDir(s),
		BaseURL:      s.Config.BaseURL,
		Limit:        o.limit,
		Logger:       s.Logger,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d documents on http://%s\n", len(build.Docs), o.addr)
	return srv.ListenAndServe(ctx, o.addr)
}

func artifactsDir(s *state.State) string {
	if !s.Config.OutputJSON {
		return ""
	}
	return s.Config.OutputDir
}

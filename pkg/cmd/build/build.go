package build

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/textsearch/internal/state"
	cmdutil "github.com/Paintersrp/textsearch/pkg/cmd"
)

func NewCmdBuild(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"b", "index"},
		Short:   "Extract documents and write the search artifacts.",
		Long: heredoc.Doc(`
			Resolves the configured input globs, extracts searchable text from every
			matched file and builds the search index. Unless outputJson is disabled,
			the document list and the serialized index are written to the output
			directory.
		`),
		Example: heredoc.Doc(`
			textsearch build
			textsearch build --root ./site --out public/search
			textsearch build --output-json=false
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

	build, _, err := s.Index.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %d documents", len(build.Docs))
	if s.Config.OutputJSON {
		fmt.Fprintf(out, " into %s", s.Config.OutputDir)
	}
	fmt.Fprintln(out)
	return nil
}

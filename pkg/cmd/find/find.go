package find

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/textsearch/internal/fzf"
	"github.com/Paintersrp/textsearch/internal/overlay"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/state"
	cmdutil "github.com/Paintersrp/textsearch/pkg/cmd"
)

// Picker selects one document, optionally starting from a query.
type Picker interface {
	Run(query string) (search.SearchDoc, error)
}

type options struct {
	open string
}

func NewCmdFind(s *state.State) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:     "find [query]",
		Aliases: []string{"f", "fzf"},
		Short:   "Fuzzy find a document by title.",
		Long: heredoc.Doc(`
			Lists every indexed document in a fuzzy finder with a rendered preview of
			its extracted text. The selected document is opened like a search result;
			documents without a docs page print their source path.
		`),
		Example: heredoc.Doc(`
			textsearch find
			textsearch find button --open print
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.RequireState(s); err != nil {
				return err
			}
			session, err := s.Session(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			finder := fzf.NewFuzzyFinder(session.Docs(), "Documents")
			return run(cmd, s, finder, strings.Join(args, " "), o)
		},
	}

	cmd.Flags().StringVar(&o.open, "open", "browser", "How the selection is opened: browser, clipboard or print")

	return cmd
}

func run(cmd *cobra.Command, s *state.State, picker Picker, query string, o options) error {
	navigator, err := overlay.NavigatorFor(o.open, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	doc, err := picker.Run(query)
	if err != nil {
		if errors.Is(err, fzf.ErrNoSelection) {
			fmt.Fprintln(cmd.OutOrStdout(), "No document selected")
			return nil
		}
		return err
	}

	url, ok, err := cmdutil.ResolveTargetURL(s, doc)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), doc.SourcePath)
		return nil
	}
	return navigator.Navigate(cmd.Context(), url)
}

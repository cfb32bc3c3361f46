package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paintersrp/textsearch/internal/highlight"
	"github.com/Paintersrp/textsearch/internal/runtime"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/state"
	"github.com/Paintersrp/textsearch/internal/web"
	cmdutil "github.com/Paintersrp/textsearch/pkg/cmd"
)

type options struct {
	limit int
	json  bool
	plain bool
	from  string
}

func NewCmdQuery(s *state.State) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:     "query [text...]",
		Aliases: []string{"q"},
		Short:   "Run a single search and print the results.",
		Long: heredoc.Doc(`
			Searches the project index once and prints the matching documents with a
			highlighted excerpt. Output is rendered markdown on a terminal and plain
			markdown otherwise; --json prints machine-readable results.

			With --from the query runs against previously written artifacts (a
			directory or an http(s) base URL) instead of rebuilding the index.
		`),
		Example: heredoc.Doc(`
			textsearch query button props
			textsearch query --json --limit 5 "getting started"
			textsearch query --from https://docs.example.com/search/ tokens
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, strings.Join(args, " "), o)
		},
	}

	cmd.Flags().IntVarP(&o.limit, "limit", "n", search.DefaultLimit, "Maximum hits per indexed field")
	cmd.Flags().BoolVar(&o.json, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&o.plain, "plain", false, "Print markdown without terminal rendering")
	cmd.Flags().StringVar(&o.from, "from", "", "Load artifacts from a directory or URL instead of rebuilding")

	return cmd
}

func run(cmd *cobra.Command, s *state.State, text string, o options) error {
	if err := cmdutil.RequireState(s); err != nil {
		return err
	}

	// A failed open leaves a nil session, which still answers short queries
	// with no results and everything else with ErrUnavailable.
	session, openErr := open(cmd, s, o)
	if openErr == nil {
		defer session.Close()
	}

	results, err := session.Query(text, o.limit)
	if err != nil {
		if errors.Is(err, runtime.ErrUnavailable) && openErr != nil {
			err = openErr
		}
		return fmt.Errorf("search unavailable: %w", err)
	}

	out := cmd.OutOrStdout()
	if o.json {
		return writeJSON(out, s, text, results)
	}

	markdown, err := Markdown(s, text, results)
	if err != nil {
		return err
	}
	if o.plain || !isTerminal(out) {
		_, err := io.WriteString(out, markdown)
		return err
	}
	return render(out, markdown)
}

func open(cmd *cobra.Command, s *state.State, o options) (*runtime.Session, error) {
	if !cmd.Flags().Changed("from") {
		return s.Session(cmd.Context())
	}
	src, err := cmdutil.ResolveArtifactSource(s, o.from)
	if err != nil {
		return nil, err
	}
	return runtime.Load(cmd.Context(), src)
}

func writeJSON(w io.Writer, s *state.State, text string, docs []search.SearchDoc) error {
	results, err := web.NewResults(s.Config.BaseURL, text, docs)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// Markdown renders hits as a markdown list, with the first match of text in
// bold.
func Markdown(s *state.State, text string, docs []search.SearchDoc) (string, error) {
	if len(docs) == 0 {
		return fmt.Sprintf("No results for %q.\n", text), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %d results for %q\n\n", len(docs), text)
	for _, doc := range docs {
		fmt.Fprintf(&b, "## %s\n\n", escape(doc.DisplayTitle()))
		fmt.Fprintf(&b, "_%s_ · `%s`\n\n", doc.Type, doc.SourcePath)

		ex := highlight.Find(doc.Content, text, web.ExcerptRadius)
		switch {
		case ex.Found():
			fmt.Fprintf(&b, "%s**%s**%s\n\n", escape(ex.Before), escape(ex.Match), escape(ex.After))
		case doc.Snippet != "":
			fmt.Fprintf(&b, "%s\n\n", escape(doc.Snippet))
		}

		url, ok, err := cmdutil.ResolveTargetURL(s, doc)
		if err != nil {
			return "", err
		}
		if ok {
			fmt.Fprintf(&b, "<%s>\n\n", url)
		}
	}
	return b.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`#`, `\#`,
	`<`, `\<`,
	`>`, `\>`,
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func render(w io.Writer, markdown string) error {
	wrap := 100
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 4 && width-4 < wrap {
			wrap = width - 4
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(wrap),
		glamour.WithColorProfile(termenv.ANSI256),
	)
	if err != nil {
		return fmt.Errorf("error creating markdown renderer: %w", err)
	}

	rendered, err := r.Render(markdown)
	if err != nil {
		return fmt.Errorf("error rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

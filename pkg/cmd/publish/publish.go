package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/textsearch/internal/artifacts"
	"github.com/Paintersrp/textsearch/internal/state"
	cmdutil "github.com/Paintersrp/textsearch/pkg/cmd"
)

// Publisher uploads an artifact pair.
type Publisher interface {
	Publish(ctx context.Context, pair artifacts.Pair) error
}

type options struct {
	bucket string
	prefix string
	from   string
	build  bool
}

// newPublisher is replaced in tests.
var newPublisher = func(ctx context.Context, cfg artifacts.PublishConfig) (Publisher, error) {
	return artifacts.NewS3Publisher(ctx, cfg)
}

func NewCmdPublish(s *state.State) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the search artifacts to an S3 bucket.",
		Long: heredoc.Doc(`
			Loads the written artifacts, checks that the documents and index match,
			and uploads both to the configured bucket. Credentials come from the
			publish section of the config or the default AWS credential chain.
		`),
		Example: heredoc.Doc(`
			textsearch publish
			textsearch publish --build --bucket docs-site --prefix static/search
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, o)
		},
	}

	cmd.Flags().StringVar(&o.bucket, "bucket", "", "Bucket to upload to (overrides publish.bucket)")
	cmd.Flags().StringVar(&o.prefix, "prefix", "", "Key prefix (overrides publish.prefix)")
	cmd.Flags().StringVar(&o.from, "from", "", "Directory holding the artifacts (defaults to the output directory)")
	cmd.Flags().BoolVar(&o.build, "build", false, "Rebuild the artifacts before uploading")

	return cmd
}

func run(cmd *cobra.Command, s *state.State, o options) error {
	if err := cmdutil.RequireState(s); err != nil {
		return err
	}
	ctx := cmd.Context()

	if o.build {
		if !s.Config.OutputJSON {
			return fmt.Errorf("--build requires outputJson to be enabled")
		}
		if _, _, err := s.Index.Refresh(ctx); err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
	}

	src, err := cmdutil.ResolveArtifactSource(s, o.from)
	if err != nil {
		return err
	}
	pair, err := artifacts.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}
	if _, err := artifacts.Restore(pair); err != nil {
		return fmt.Errorf("refusing to publish: %w", err)
	}

	cfg := s.Config.Publish
	if o.bucket != "" {
		cfg.Bucket = o.bucket
	}
	if o.prefix != "" {
		cfg.Prefix = o.prefix
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	if err := publisher.Publish(ctx, pair); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Published %d documents to s3://%s\n", len(pair.Docs), location(cfg))
	return nil
}

func location(cfg artifacts.PublishConfig) string {
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		return cfg.Bucket
	}
	return cfg.Bucket + "/" + prefix
}

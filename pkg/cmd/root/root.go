package root

import (
	"errors"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Paintersrp/textsearch/internal/config"
	"github.com/Paintersrp/textsearch/internal/constants"
	"github.com/Paintersrp/textsearch/internal/logging"
	"github.com/Paintersrp/textsearch/internal/state"
	"github.com/Paintersrp/textsearch/pkg/cmd/build"
	"github.com/Paintersrp/textsearch/pkg/cmd/find"
	"github.com/Paintersrp/textsearch/pkg/cmd/initialize"
	"github.com/Paintersrp/textsearch/pkg/cmd/mcp"
	"github.com/Paintersrp/textsearch/pkg/cmd/publish"
	"github.com/Paintersrp/textsearch/pkg/cmd/query"
	"github.com/Paintersrp/textsearch/pkg/cmd/search"
	"github.com/Paintersrp/textsearch/pkg/cmd/serve"
	"github.com/Paintersrp/textsearch/pkg/cmd/watch"
)

var cfgFile string

// NewCmdRoot builds the command tree. The project config and services are
// loaded into s before any command that needs them runs.
func NewCmdRoot(s *state.State) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     constants.AppName,
		Aliases: []string{"ts"},
		Short:   "Full-text search for MDX documentation and component stories.",
		Long: heredoc.Doc(`
			Extracts searchable text from MDX pages and component story files,
			builds a prefix search index, writes it as a pair of JSON artifacts and
			answers queries from the terminal, over HTTP or over MCP.

			Configuration is read from textsearch.config.{yaml,yml,toml,json} in the
			working directory. Flags override the file.
		`),
		Example: heredoc.Doc(`
			textsearch init
			textsearch build
			textsearch query "button variants"
			textsearch search --watch
		`),
		Version:       constants.Version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[initialize.SkipStateAnnotation] != "" {
				return nil
			}
			return load(cmd, s)
		},
		// Run the search overlay by default.
		RunE: search.NewCmdSearch(s).RunE,
	}
	cmd.SetUsageTemplate(constants.Usage)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (default: textsearch.config.* in the working directory)")
	flags.String(config.KeyRoot, "", "Project root that input globs resolve against")
	flags.StringP(config.KeyOutputDir, "o", "", "Directory the artifacts are written to")
	flags.Bool(config.KeyOutputJSON, true, "Write the artifacts when building")
	flags.IntP(config.KeyConcurrency, "j", 0, "Files processed at once (default: number of CPUs)")
	flags.String(config.KeyLogLevel, "", "Log level: debug, info, warn or error")
	flags.String(config.KeyLogFormat, "", "Log format: text or json")
	flags.String(config.KeyBaseURL, "", "Docs site URL that result links are resolved against")

	for _, key := range []string{
		config.KeyRoot,
		config.KeyOutputDir,
		config.KeyOutputJSON,
		config.KeyConcurrency,
		config.KeyLogLevel,
		config.KeyLogFormat,
		config.KeyBaseURL,
	} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			return nil, err
		}
	}
	viper.SetEnvPrefix("TEXTSEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	cmd.AddCommand(
		initialize.NewCmdInit(),
		build.NewCmdBuild(s),
		search.NewCmdSearch(s),
		query.NewCmdQuery(s),
		find.NewCmdFind(s),
		watch.NewCmdWatch(s),
		serve.NewCmdServe(s),
		mcp.NewCmdMCP(s),
		publish.NewCmdPublish(s),
	)

	return cmd, nil
}

func load(cmd *cobra.Command, s *state.State) error {
	cfg, err := config.Load(config.LoadOptions{
		Dir:       ".",
		File:      cfgFile,
		Overrides: viper.GetViper(),
	})
	missing := errors.Is(err, config.ErrNoConfig)
	if err != nil && !missing {
		return err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultBaseURL
	}

	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if missing {
		logger.Debug("no config file found, using defaults", "root", cfg.Root)
	} else {
		logger.Debug("loaded config", "file", cfg.File)
	}

	loaded, err := state.NewState(cfg, logger)
	if err != nil {
		return err
	}
	*s = *loaded
	return nil
}

/*
Copyright © 2024 Ryan Painter paintersrp@gmail.com

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package initialize

import (
	"errors"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/erikgeiser/promptkit/confirmation"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paintersrp/textsearch/internal/config"
)

// SkipStateAnnotation marks commands that run without a loaded project.
const SkipStateAnnotation = "textsearch/skip-state"

// confirm asks before an existing config is replaced.
var confirm = func(path string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	prompt := confirmation.New(fmt.Sprintf("%s already exists. Overwrite it?", path), confirmation.No)
	return prompt.RunPrompt()
}

func NewCmdInit() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init [dir]",
		Aliases: []string{"i", "initialize"},
		Short:   "Write a starter textsearch config.",
		Long: heredoc.Doc(`
			Writes textsearch.config.yaml with the default input globs, an empty
			component rule map with commented examples, and logging settings.
			An existing config is only replaced after confirmation or with --force.
		`),
		Example: heredoc.Doc(`
			textsearch init
			textsearch init ./site --force
		`),
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{SkipStateAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return run(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config without asking")

	return cmd
}

func run(cmd *cobra.Command, dir string, force bool) error {
	path := config.GetConfigPath(dir)

	overwrite := force
	if !force {
		if _, err := os.Stat(path); err == nil {
			ok, err := confirm(path)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Keeping existing config")
				return nil
			}
			overwrite = true
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config file existence: %w", err)
		}
	}

	if err := config.WriteStarter(path, overwrite); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

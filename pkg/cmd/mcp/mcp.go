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
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/textsearch/internal/constants"
	"github.com/Paintersrp/textsearch/internal/runtime"
	"github.com/Paintersrp/textsearch/internal/search"
	"github.com/Paintersrp/textsearch/internal/state"
	"github.com/Paintersrp/textsearch/internal/web"
	cmdutil "github.com/Paintersrp/textsearch/pkg/cmd"
)

const (
	SearchToolName = "search_docs"
	StatusToolName = "index_status"
)

// SearchDocsInput defines input for the search_docs tool.
type SearchDocsInput struct {
	Query string `json:"query" jsonschema:"Text to search for in the project documentation"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum hits per indexed field (optional, defaults to 10)"`
}

// SearchDocsOutput defines output for the search_docs tool.
type SearchDocsOutput struct {
	Query   string       `json:"query"`
	Results []web.Result `json:"results"`
}

// IndexStatusInput defines input for the index_status tool.
type IndexStatusInput struct{}

// IndexStatusOutput defines output for the index_status tool.
type IndexStatusOutput struct {
	Documents   int    `json:"documents"`
	Pending     int    `json:"pending"`
	LastRebuild string `json:"last_rebuild,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// Tools answers MCP tool calls from the project index.
type Tools struct {
	Searcher runtime.Searcher
	State    *state.State
}

func NewCmdMCP(s *state.State) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server over stdio exposing documentation search.",
		Long: heredoc.Doc(`
			Starts a Model Context Protocol server on stdin/stdout. Clients can call
			search_docs to query the project documentation and index_status to read
			index statistics. Logs go to stderr.
		`),
		Example: heredoc.Doc(`
			textsearch mcp
			textsearch mcp --watch --log-format json
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.RequireState(s); err != nil {
				return err
			}
			ctx := cmd.Context()

			if watch {
				watcher, err := s.Watch()
				if err != nil {
					return err
				}
				go func() {
					for watcher.Next() != nil {
					}
				}()
			}

			server := NewServer(&Tools{Searcher: s.Searcher(ctx), State: s})
			s.Logger.Info("mcp server ready", "root", s.Config.Root)
			return server.Run(ctx, &mcpsdk.StdioTransport{})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-index files as they change")

	return cmd
}

// NewServer builds an MCP server with the documentation tools registered.
func NewServer(t *Tools) *mcpsdk.Server {
	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    constants.AppName,
			Version: constants.Version,
		},
		nil,
	)

	mcpsdk.AddTool(server,
		&mcpsdk.Tool{
			Name:        SearchToolName,
			Description: "Search the project documentation (MDX pages and component stories). Returns matching documents with a highlighted excerpt and a docs URL when one exists.",
		},
		t.SearchDocs,
	)

	mcpsdk.AddTool(server,
		&mcpsdk.Tool{
			Name:        StatusToolName,
			Description: "Report the number of indexed documents, pending changes and the last rebuild time.",
		},
		t.IndexStatus,
	)

	return server
}

func (t *Tools) SearchDocs(ctx context.Context, req *mcpsdk.CallToolRequest, input SearchDocsInput) (*mcpsdk.CallToolResult, SearchDocsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	docs, err := t.Searcher.Query(input.Query, limit)
	if err != nil {
		return nil, SearchDocsOutput{}, fmt.Errorf("search failed: %w", err)
	}

	baseURL := ""
	if t.State != nil && t.State.Config != nil {
		baseURL = t.State.Config.BaseURL
	}
	results, err := web.NewResults(baseURL, input.Query, docs)
	if err != nil {
		return nil, SearchDocsOutput{}, err
	}

	return nil, SearchDocsOutput{Query: input.Query, Results: results}, nil
}

func (t *Tools) IndexStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input IndexStatusInput) (*mcpsdk.CallToolResult, IndexStatusOutput, error) {
	if t.State == nil || t.State.Index == nil {
		return nil, IndexStatusOutput{}, runtime.ErrUnavailable
	}

	stats := t.State.Index.Stats()
	out := IndexStatusOutput{Documents: stats.Documents, Pending: stats.Pending}
	if !stats.LastRebuild.IsZero() {
		out.LastRebuild = stats.LastRebuild.Format(time.RFC3339)
	}
	if stats.Duration > 0 {
		out.Duration = stats.Duration.Round(time.Millisecond).String()
	}
	return nil, out, nil
}

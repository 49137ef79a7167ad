package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/jessevdk/go-flags"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	bridge "github.com/walkingzzzy/office-bridge"
	"github.com/walkingzzzy/office-bridge/executor"
	"github.com/walkingzzzy/office-bridge/internal/log"
)

// options is the CLI surface; configuration precedence is config file,
// then environment, then flags.
type options struct {
	Config   string `short:"f" long:"config" description:"bridge config location (YAML)"`
	Command  string `short:"c" long:"command" description:"tool provider command"`
	LogLevel string `short:"l" long:"log-level" description:"log level (debug, info, warn, error)" default:"info"`

	List     bool   `long:"list" description:"list the provider's tools in both LLM dialects"`
	Call     string `long:"call" description:"execute one tool by name"`
	CallArgs string `long:"args" description:"tool arguments as a JSON object" default:"{}"`
	Search   string `long:"search" description:"search tools by keyword"`
	Stats    bool   `long:"stats" description:"print execution statistics"`
}

func main() {
	opts := &options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	arguments, err := parser.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(context.Background(), opts, arguments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, arguments []string) error {
	config, err := loadConfig(ctx, opts, arguments)
	if err != nil {
		return err
	}
	logger := log.New(opts.LogLevel)
	service, err := bridge.New(config, bridge.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := service.Start(ctx); err != nil {
		return err
	}
	defer service.Stop()

	switch {
	case opts.Call != "":
		return runCall(ctx, service, opts)
	case opts.Search != "":
		return runSearch(service, opts.Search)
	case opts.Stats:
		return printJSON(service.Executor().Stats(""))
	default:
		return runList(service)
	}
}

// loadConfig merges the YAML config file, environment overrides and CLI
// flags into the bridge options.
func loadConfig(ctx context.Context, opts *options, arguments []string) (*bridge.Options, error) {
	config := &bridge.Options{}
	if opts.Config != "" {
		fs := afs.New()
		data, err := fs.DownloadWithURL(ctx, opts.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %q: %w", opts.Config, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", opts.Config, err)
		}
	}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}
	if opts.Command != "" {
		config.Command = opts.Command
	}
	if len(arguments) > 0 {
		config.Arguments = arguments
	}
	return config, nil
}

func runList(service *bridge.Service) error {
	type listedTool struct {
		Name        string      `json:"name"`
		Description string      `json:"description,omitempty"`
		OpenAI      interface{} `json:"openai"`
		Claude      interface{} `json:"claude"`
	}
	var listing []listedTool
	for _, tool := range service.Executor().ConvertedTools() {
		entry := listedTool{Name: tool.Source.Name, OpenAI: tool.OpenAI, Claude: tool.Claude}
		if tool.Source.Description != nil {
			entry.Description = *tool.Source.Description
		}
		listing = append(listing, entry)
	}
	return printJSON(listing)
}

func runCall(ctx context.Context, service *bridge.Service, opts *options) error {
	args := map[string]interface{}{}
	if err := json.Unmarshal([]byte(opts.CallArgs), &args); err != nil {
		return fmt.Errorf("invalid --args JSON: %w", err)
	}
	result := service.ExecuteTool(ctx, opts.Call, args, &executor.Options{})
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("tool %s failed: %s", result.ToolName, result.Error)
	}
	return nil
}

func runSearch(service *bridge.Service, query string) error {
	type match struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Score       int    `json:"score"`
	}
	var matches []match
	for _, hit := range service.Executor().Search(query) {
		entry := match{Name: hit.Tool.Source.Name, Score: hit.Score}
		if hit.Tool.Source.Description != nil {
			entry.Description = *hit.Tool.Source.Description
		}
		matches = append(matches, entry)
	}
	return printJSON(matches)
}

func printJSON(value interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

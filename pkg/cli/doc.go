// Package cli provides shared plumbing for the ai01 command-line tool.
//
// This package includes:
//   - Configuration contexts (~/.ai01/config.yaml, kubectl-style)
//   - Output formatting (JSON, YAML)
//   - Request/persona file loading (YAML or JSON)
//   - Terminal chat styling
//
// Example usage:
//
//	cfg, err := cli.LoadConfig()
//
//	ctx, err := cfg.ResolveContext("")
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huddle01/ai01-go/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage ai01 CLI configuration.

Configuration is stored in ~/.ai01/config.yaml. Multiple contexts can be
defined for different projects or environments.`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with project credentials.

Examples:
  ai01 config add-context dev --project-id PID --api-key KEY
  ai01 config add-context dev --project-id PID --api-key KEY --openai-key sk-... --gemini-key AI...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		projectID, _ := cmd.Flags().GetString("project-id")
		apiKey, _ := cmd.Flags().GetString("api-key")
		openaiKey, _ := cmd.Flags().GetString("openai-key")
		geminiKey, _ := cmd.Flags().GetString("gemini-key")
		apiURL, _ := cmd.Flags().GetString("api-url")
		signalURL, _ := cmd.Flags().GetString("signal-url")

		if projectID == "" || apiKey == "" {
			return fmt.Errorf("project-id and api-key are required")
		}

		ctx := &cli.Context{
			Name:         name,
			ProjectID:    projectID,
			APIKey:       apiKey,
			OpenAIAPIKey: openaiKey,
			GeminiAPIKey: geminiKey,
			APIURL:       apiURL,
			SignalURL:    signalURL,
		}

		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess("Context '%s' added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the default context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context '%s'", args[0])
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:   "get-contexts",
	Short: "List configured contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}
		for _, name := range cfg.ListContexts() {
			marker := "  "
			if name == cfg.CurrentContext {
				marker = "* "
			}
			ctx, _ := cfg.GetContext(name)
			fmt.Printf("%s%s\tproject=%s\tkey=%s\n", marker, name,
				ctx.ProjectID, cli.MaskAPIKey(ctx.APIKey))
		}
		return nil
	},
}

func init() {
	configAddContextCmd.Flags().String("project-id", "", "Huddle01 project ID")
	configAddContextCmd.Flags().String("api-key", "", "Huddle01 API key")
	configAddContextCmd.Flags().String("openai-key", "", "OpenAI API key")
	configAddContextCmd.Flags().String("gemini-key", "", "Gemini API key")
	configAddContextCmd.Flags().String("api-url", "", "Huddle01 API base URL override")
	configAddContextCmd.Flags().String("signal-url", "", "Huddle01 signaling URL override")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	rootCmd.AddCommand(configCmd)
}

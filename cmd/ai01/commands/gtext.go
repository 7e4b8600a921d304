package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huddle01/ai01-go/pkg/cli"
	"github.com/huddle01/ai01-go/pkg/gemini"
)

var gtextFlags struct {
	model  string
	system string
}

var gtextCmd = &cobra.Command{
	Use:   "gtext",
	Short: "Text chat with Gemini in the terminal",
	Long: `Interactive terminal chat with a Gemini text model. Responses
stream token by token. Type /reset to clear the history, /quit to leave.`,
	RunE: runGtext,
}

func init() {
	gtextCmd.Flags().StringVar(&gtextFlags.model, "model", gemini.DefaultTextModel, "Gemini model ID")
	gtextCmd.Flags().StringVar(&gtextFlags.system, "system", "", "system prompt")

	rootCmd.AddCommand(gtextCmd)
}

func runGtext(cmd *cobra.Command, args []string) error {
	creds := resolveCredentials()
	if err := creds.requireGemini(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var opts []gemini.TextOption
	if gtextFlags.system != "" {
		opts = append(opts, gemini.WithSystemPrompt(gtextFlags.system))
	}
	chat, err := gemini.NewText(ctx, creds.GeminiAPIKey, gtextFlags.model, opts...)
	if err != nil {
		return err
	}

	styles := cli.NewChatStyles(cli.DefaultTheme)
	fmt.Print(styles.RenderBanner("gemini text chat",
		"model: "+gtextFlags.model,
		"/reset clears history, /quit exits"))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(styles.PromptLabel("you"))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			chat.Reset()
			fmt.Println(styles.Help.Render("history cleared"))
			continue
		}

		fmt.Print(styles.ModelLabel("gemini"))
		for part, err := range chat.Stream(ctx, line) {
			if err != nil {
				fmt.Println(styles.Error.Render("error: " + err.Error()))
				break
			}
			fmt.Print(part)
		}
		fmt.Println()

		if ctx.Err() != nil {
			return nil
		}
	}
}

package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/huddle01/ai01-go/pkg/audio/pcm"
	"github.com/huddle01/ai01-go/pkg/cli"
	"github.com/huddle01/ai01-go/pkg/gemini"
	"github.com/huddle01/ai01-go/pkg/recorder"
	"github.com/huddle01/ai01-go/pkg/storage"
)

var gmultiFlags struct {
	model  string
	voice  string
	outDir string
}

var gmultiCmd = &cobra.Command{
	Use:   "gmulti",
	Short: "Multimodal chat with Gemini Live in the terminal",
	Long: `Interactive terminal chat against a Gemini Live session with text
and audio responses. Spoken replies are saved as Ogg/Opus files, one per
model turn.`,
	RunE: runGmulti,
}

func init() {
	gmultiCmd.Flags().StringVar(&gmultiFlags.model, "model", gemini.ModelFlashLive, "Gemini Live model ID")
	gmultiCmd.Flags().StringVar(&gmultiFlags.voice, "voice", "Puck", "prebuilt voice name")
	gmultiCmd.Flags().StringVar(&gmultiFlags.outDir, "out", ".", "directory for audio reply files")

	rootCmd.AddCommand(gmultiCmd)
}

func runGmulti(cmd *cobra.Command, args []string) error {
	creds := resolveCredentials()
	if err := creds.requireGemini(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	live, err := gemini.DialLive(ctx, creds.GeminiAPIKey, &gemini.LiveConfig{
		Model:              gmultiFlags.model,
		Voice:              gmultiFlags.voice,
		ResponseModalities: []string{"TEXT", "AUDIO"},
	})
	if err != nil {
		return err
	}
	defer live.Close()

	store, err := storage.NewLocal(gmultiFlags.outDir)
	if err != nil {
		return err
	}

	styles := cli.NewChatStyles(cli.DefaultTheme)
	fmt.Print(styles.RenderBanner("gemini live chat",
		"model: "+gmultiFlags.model+"  voice: "+gmultiFlags.voice,
		"audio replies are saved to "+gmultiFlags.outDir,
		"/quit exits"))

	scanner := bufio.NewScanner(os.Stdin)
	turn := 0
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
		}

		if err := live.SendText(line); err != nil {
			return err
		}
		turn++
		if err := collectTurn(live, store, styles, turn); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// collectTurn prints text parts and spools audio parts to an Ogg file until
// the model completes its turn.
func collectTurn(live *gemini.Live, store storage.FileStore, styles cli.ChatStyles, turn int) error {
	var rec *recorder.Recorder
	var audioPath string
	defer func() {
		if rec != nil {
			rec.Close()
		}
	}()

	fmt.Print(styles.ModelLabel("gemini"))
	for msg, err := range live.Messages() {
		if err != nil {
			return err
		}
		sc := msg.ServerContent
		if sc == nil {
			continue
		}
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p.Text != "" {
					fmt.Print(p.Text)
				}
				if p.InlineData != nil && len(p.InlineData.Data) > 0 {
					if rec == nil {
						audioPath = fmt.Sprintf("turn-%03d-%s.ogg", turn, time.Now().Format("150405"))
						r, err := recorder.New(context.Background(), store, audioPath, pcm.L16Mono24K)
						if err != nil {
							return err
						}
						rec = r
					}
					if err := rec.Write(pcm.L16Mono24K.DataChunk(p.InlineData.Data)); err != nil {
						return err
					}
				}
			}
		}
		if sc.TurnComplete {
			fmt.Println()
			if audioPath != "" {
				fmt.Println(styles.Help.Render("audio reply: " + audioPath))
			}
			return nil
		}
	}
	fmt.Println()
	return fmt.Errorf("live session closed")
}

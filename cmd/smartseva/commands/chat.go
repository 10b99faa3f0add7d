package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
	"github.com/AritraCh2005/SmartSeva-4/internal/orchestrator"
)

// NewChatCmd constructs the `smartseva chat` command, an interactive
// conversation loop on stdin/stdout.
func NewChatCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive SmartSeva conversation in the terminal.

Each question is answered from the ingested scheme documents, with the
recent turns of the conversation available as context for follow-ups.

In-chat commands:
  /clear   forget the conversation so far
  /exit    leave the chat (Ctrl-D also works)

Examples:
  smartseva chat
  smartseva chat --session 7d8f`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			mgr, cleanup, err := buildManager(ctx, log)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			defer cleanup()

			sess, err := mgr.Session(ctx, session)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}

			fmt.Printf("SmartSeva chat (session %s). Type /exit to leave.\n\n", sess.ID())

			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

			for {
				fmt.Print("you> ")
				if !scanner.Scan() {
					fmt.Println()
					break
				}
				line := strings.TrimSpace(scanner.Text())

				switch line {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				case "/clear":
					sess.ClearMemory()
					fmt.Println("(conversation cleared)")
					continue
				}

				answer, err := sess.Ask(ctx, line)
				if err != nil {
					if errors.Is(err, orchestrator.ErrInvalidQuery) {
						fmt.Println("Please ask a shorter, non-empty question.")
						continue
					}
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}

				fmt.Printf("\nsmartseva> %s\n\n", answer.Text)
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("chat: reading input: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Session ID to resume an earlier conversation")

	return cmd
}

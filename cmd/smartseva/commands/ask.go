package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
)

// NewAskCmd constructs the `smartseva ask` command, which answers a single
// citizen question and prints the answer to stdout.
func NewAskCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about government schemes and services",
		Long: `Ask SmartSeva a single question about Indian government schemes.

The answer is grounded in the scheme documents you have ingested. Pass
--session to continue an earlier conversation; its recent turns are used
as context for follow-up questions.

Examples:
  smartseva ask "how do I apply for a ration card?"
  smartseva ask --session 7d8f "what documents do I need for that?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			mgr, cleanup, err := buildManager(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer cleanup()

			question := strings.Join(args, " ")

			answer, sessionID, err := mgr.Ask(ctx, session, question)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(answer.Text)
			if session == "" {
				fmt.Printf("\n(session: %s — pass --session %s to ask a follow-up)\n", sessionID, sessionID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Session ID to continue an earlier conversation")

	return cmd
}

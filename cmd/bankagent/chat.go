package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/Chative-Banking-Dialogue/agent/contract"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, envFile(cmd))
		if err != nil {
			return err
		}
		defer a.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sessão %s. Digite \"sair\" para encerrar.\n", sessionID)

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if strings.EqualFold(text, "sair") || strings.EqualFold(text, "exit") {
				return nil
			}

			reply, st, err := a.orchestrator.HandleMessage(ctx, sessionID, text)
			if errors.Is(err, contractx.ErrSessionEnded) {
				fmt.Fprintln(out, reply)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, reply)
			if st.Terminal() {
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "resume a stored session id")
}

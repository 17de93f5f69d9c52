package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/Chative-Banking-Dialogue/pkg/config"
	logx "github.com/tanpawarit/Chative-Banking-Dialogue/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "bankagent",
	Short: "Bank customer service dialogue agent",
	Long: `bankagent runs the bank assistant: authentication, credit limit requests,
the financial interview and currency exchange quotes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logCfg, err := configx.New[logx.Config]("LOG", configx.WithEnvFile(envFile(cmd)))
		if err != nil {
			return err
		}
		logx.Init(*logCfg)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env", "", "path to .env file (defaults to ./.env when present)")
}

func envFile(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("env")
	return path
}

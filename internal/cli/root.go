package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/opsdesk/opsdesk/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"   ___  _ __  ___  __| | ___  ___| | __\n" +
		"  / _ \\| '_ \\/ __|/ _` |/ _ \\/ __| |/ /\n" +
		" | (_) | |_) \\__ \\ (_| |  __/\\__ \\   <\n" +
		"  \\___/| .__/|___/\\__,_|\\___||___/_|\\_\\\n" +
		"       |_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "opsdesk",
	Short: "opsdesk - virtual department assistant",
	Long:  color.CyanString(logo) + "\nA Telegram assistant that routes your messages to virtual departments.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(deskCmd)
}

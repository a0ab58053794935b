package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/config"
	"github.com/opsdesk/opsdesk/internal/journal"
)

func printHeader(title string) {
	color.Cyan("\n%s\n", title)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ opsdesk Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📊 opsdesk Status")
		fmt.Printf("Version: %s\n", version)

		path, err := config.ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				fmt.Println("Config:   ✓ Found (" + path + ")")
			} else {
				fmt.Println("Config:   ✗ Not found (" + path + ")")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("Config:   ? Unable to load:", err)
			return
		}
		if cfg.Telegram.Token != "" {
			fmt.Println("Telegram: ✓ Token configured")
		} else {
			fmt.Println("Telegram: ✗ No token (set TELEGRAM_TOKEN)")
		}
		if cfg.Completion.APIKey != "" {
			fmt.Println("Completion: ✓ API key configured")
		} else {
			fmt.Println("Completion: ✗ No API key (dispatcher-only mode)")
		}

		jnlPath := filepath.Join(cfg.Paths.Data, "journal.db")
		if jnl, err := journal.Open(jnlPath); err == nil {
			if n, err := jnl.Count(); err == nil {
				fmt.Printf("Journal:  %d updates recorded\n", n)
			}
			if entries, err := jnl.Recent(5); err == nil && len(entries) > 0 {
				printHeader("🕑 Recent Activity")
				for _, e := range entries {
					fmt.Printf("%-8s %-18s %-10s %s\n", e.Kind, e.Rule, e.Department, e.Outcome)
				}
			}
			jnl.Close()
		}
		fmt.Println("Status:   Ready")
	},
}

package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/config"
	"github.com/opsdesk/opsdesk/internal/department"
	"github.com/opsdesk/opsdesk/internal/panel"
	"github.com/opsdesk/opsdesk/internal/store"
)

var deskCmd = &cobra.Command{
	Use:   "desk",
	Short: "Inspect department desks from the terminal",
}

func init() {
	deskCmd.AddCommand(
		deskViewCmd("tasks", "Show a department's open tasks", panel.Tasks),
		deskViewCmd("memory", "Show a department's recent notes", panel.Memory),
		deskViewCmd("summary", "Show a department's summary", panel.Summary),
	)
	deskCmd.AddCommand(deskListCmd)
}

// deskViewCmd renders the same screen text the panel shows, to stdout.
func deskViewCmd(name, short string, render func(department.Department, *store.Record) string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <department>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := department.Parse(args[0])
			if !ok {
				return fmt.Errorf("unknown department %q (one of: %s)", args[0], departmentNames())
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			st := store.New(filepath.Join(cfg.Paths.Data, "memory"))
			fmt.Println(render(d, st.Load(d)))
			return nil
		},
	}
}

var deskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List departments and their record sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		st := store.New(filepath.Join(cfg.Paths.Data, "memory"))
		printHeader("🗂 Departments")
		for _, d := range department.All {
			rec := st.Load(d)
			open := 0
			for _, task := range rec.Inbox {
				if task.Status == store.StatusOpen {
					open++
				}
			}
			label := string(d)
			if d == department.Default {
				label = color.GreenString(label + " (home)")
			}
			fmt.Printf("%-24s %d notes, %d open / %d tasks\n", label, len(rec.Notes), open, len(rec.Inbox))
		}
		return nil
	},
}

func departmentNames() string {
	names := make([]string, len(department.All))
	for i, d := range department.All {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

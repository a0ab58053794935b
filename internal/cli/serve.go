package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/config"
	"github.com/opsdesk/opsdesk/internal/dispatch"
	"github.com/opsdesk/opsdesk/internal/journal"
	"github.com/opsdesk/opsdesk/internal/provider"
	"github.com/opsdesk/opsdesk/internal/state"
	"github.com/opsdesk/opsdesk/internal/store"
	"github.com/opsdesk/opsdesk/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Telegram.Token == "" {
			return fmt.Errorf("no Telegram token configured (set TELEGRAM_TOKEN)")
		}

		st := store.New(filepath.Join(cfg.Paths.Data, "memory"))
		if err := st.Bootstrap(); err != nil {
			return err
		}
		states := state.NewManager(filepath.Join(cfg.Paths.Data, "state"))

		jnl, err := journal.Open(filepath.Join(cfg.Paths.Data, "journal.db"))
		if err != nil {
			// Journaling is observational; run without it rather than fail.
			slog.Warn("Journal unavailable", "error", err)
			jnl = nil
		} else {
			defer jnl.Close()
		}

		client := telegram.NewClient(cfg.Telegram.Token)
		completer := provider.NewOpenAIGateway(
			cfg.Completion.APIKey,
			cfg.Completion.APIBase,
			cfg.Completion.Model,
			*cfg.Completion.Temperature,
		)
		router := dispatch.NewRouter(client, st, states, completer, jnl)

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			var upd telegram.Update
			if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
				// Undecodable updates are dropped; the platform retries on
				// non-200 replies, which we never want.
				w.WriteHeader(http.StatusOK)
				return
			}
			// Each update gets its own handler that runs to completion; the
			// request context would be cancelled as soon as we reply 200.
			go router.HandleUpdate(context.Background(), &upd)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})

		addr := fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
		slog.Info("Webhook gateway listening", "addr", addr)
		return http.ListenAndServe(addr, mux)
	},
}

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/screwdriver-cd/scm-bitbucket/internal/log"
	"github.com/screwdriver-cd/scm-bitbucket/internal/scm"
	"github.com/screwdriver-cd/scm-bitbucket/internal/scm/bitbucket"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook listener",
	Long: `Serve accepts Bitbucket webhook deliveries on /v4/webhooks,
normalizes them into canonical events and logs the result. Unsupported
event kinds are acknowledged with 204 so the provider does not retry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := scm.NewRegistry()
		err := bitbucket.Register(registry, bitbucket.Config{
			OAuthClientID:     settings.Bitbucket.OAuthClientID,
			OAuthClientSecret: settings.Bitbucket.OAuthClientSecret,
			Username:          settings.Bitbucket.Username,
			Email:             settings.Bitbucket.Email,
			ForceHTTPS:        settings.Bitbucket.ForceHTTPS,
		})
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.HandleFunc("POST /v4/webhooks", webhookHandler(registry))

		server := &http.Server{
			Addr:    settings.Listen,
			Handler: mux,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("webhook listener started", "addr", settings.Listen, "contexts", registry.Contexts())
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-cmd.Context().Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
	},
}

// webhookHandler routes each delivery to the adapter that owns it and logs
// the canonical event. Deliveries no adapter recognizes are acknowledged
// with 204: the provider must never see an error for events we ignore.
func webhookHandler(registry *scm.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "unable to read request body", http.StatusInternalServerError)
			return
		}

		// Provider deliveries carry X-Request-UUID; synthesize one when
		// absent so every delivery stays traceable in the logs.
		if r.Header.Get("X-Request-UUID") == "" {
			r.Header.Set("X-Request-UUID", uuid.NewString())
		}

		adapter, found := registry.ForWebhook(r.Header, payload)
		if !found {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		event, err := adapter.ParseHook(r.Header, payload)
		if err != nil {
			log.Error("malformed webhook payload", log.Err(err))
			http.Error(w, "malformed webhook payload", http.StatusBadRequest)
			return
		}
		if event == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		log.Info("webhook event",
			"type", event.Type,
			"action", event.Action,
			"branch", event.Branch,
			"sha", event.SHA,
			log.HookID(event.HookID),
			log.ScmContext(event.ScmContext),
		)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(event)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

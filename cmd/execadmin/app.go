package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/greg-hellings/execadmin/pkg/backend"
	"github.com/greg-hellings/execadmin/pkg/config"
	"github.com/greg-hellings/execadmin/pkg/message"
	"github.com/greg-hellings/execadmin/pkg/state"
)

// app bundles the collaborators a backend-facing command needs.
type app struct {
	cfg        *config.Config
	store      *state.Store
	client     *backend.Client
	executives *backend.ExecutiveService
	prompts    *backend.PromptService
	messages   *backend.MessageService
}

// openStore loads the configuration without backend checks and opens the
// client settings store it points at.
func openStore() (*config.Config, *state.Store, error) {
	cfg, err := config.LoadLocal(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := state.Open(cfg.Client.StatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open client state: %w", err)
	}
	slog.Debug("client state opened", "path", store.Path())
	return cfg, store, nil
}

// credentials layers the token from the configuration file over the tokens
// kept in the settings store. Writes go through the settings store directly.
func credentials(cfg *config.Config, store *state.Store) state.CredentialStore {
	configured := state.NewInMemoryCredentialStore()
	if host := cfg.BackendHost(); host != "" && cfg.Backend.Token != "" {
		if err := configured.SetToken(host, cfg.Backend.Token); err != nil {
			slog.Warn("failed to register configured token", "error", err)
		}
	}
	return state.NewFallbackCredentialStore(configured, state.NewFileCredentialStore(store))
}

// newApp loads the configuration, the settings store and the backend facades.
// The backend token comes from EXECADMIN_<HOST>_TOKEN, then the configuration,
// then the credentials kept in the settings store.
func newApp() (*app, error) {
	cfg, err := config.LoadFromFile(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := state.Open(cfg.Client.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open client state: %w", err)
	}

	token, err := state.ResolveBackendToken(cfg.BackendHost(), nil, credentials(cfg, store))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backend token: %w", err)
	}
	slog.Debug("backend configured", "baseURL", cfg.Backend.BaseURL, "token", state.RedactToken(token))

	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Token:   token,
		Timeout: cfg.Backend.Timeout,
		OnError: func(op string, err error) {
			slog.Error("backend call failed", "op", op, "error", err)
			if logErr := store.AppendError(op, err); logErr != nil {
				slog.Warn("failed to record backend error", "error", logErr)
			}
		},
		Logger: slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		store:      store,
		client:     client,
		executives: backend.NewExecutiveService(client),
		prompts:    backend.NewPromptService(client),
		messages:   backend.NewMessageService(client),
	}, nil
}

// presenter shows backend errors on out, reading confirmations from in.
func (a *app) presenter(out io.Writer, in io.Reader) *message.Prompt {
	return message.New(a.messages, out, in, message.Options{Logger: slog.Default()})
}

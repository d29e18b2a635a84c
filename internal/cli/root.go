/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/recordgate"
	"github.com/suparena/recordgate/config"
	"github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/notify"
	"github.com/suparena/recordgate/recordmodels"
	"github.com/suparena/recordgate/recordstore"
	"github.com/suparena/recordgate/recordstore/ddb"
	"github.com/suparena/recordgate/recordstore/mock"
)

// StoreFactory builds the remote store described by a configuration.
type StoreFactory func(ctx context.Context, cfg *config.Config) (recordstore.RemoteStore, error)

// DefaultStoreFactory connects to DynamoDB, or returns an empty in-memory
// store for the memory backend. The memory store lives only as long as
// the process.
func DefaultStoreFactory(ctx context.Context, cfg *config.Config) (recordstore.RemoteStore, error) {
	switch cfg.Backend {
	case config.BackendDynamoDB:
		store, err := ddb.NewFromConfig(ctx, ddb.ClientConfig{
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Endpoint:  cfg.Endpoint,
		}, cfg.Table, ddb.WithRateLimit(cfg.RateLimit, cfg.Burst))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMemory:
		return mock.New(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

type app struct {
	configPath string
	scope      string
	backend    string
	verbose    bool
	newStore   StoreFactory
}

// NewRootCmd builds the recordgate command tree. A nil factory selects
// DefaultStoreFactory.
func NewRootCmd(newStore StoreFactory) *cobra.Command {
	if newStore == nil {
		newStore = DefaultStoreFactory
	}
	a := &app{newStore: newStore}

	rootCmd := &cobra.Command{
		Use:   "recordgate",
		Short: "Read and write records through the account-gated client",
		Long: `recordgate checks that the store account is available before every
operation, then queries, saves, updates or deletes records in one scope.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to a YAML or TOML config file")
	pf.StringVar(&a.scope, "scope", "", "record scope: public, private or shared")
	pf.StringVar(&a.backend, "backend", "", "store backend: memory or dynamodb")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newStatusCmd(a),
		newQueryCmd(a),
		newSaveCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd(nil).ExecuteContext(ctx)
}

// session is what a command works with once configuration is resolved.
type session struct {
	cfg      *config.Config
	store    recordstore.RemoteStore
	clients  *recordgate.Manager
	notifier *notify.ZerologNotifier
}

// open loads the configuration, applies flag overrides and builds one client
// per scope over a shared store.
func (a *app) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Read(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.scope != "" {
		cfg.Scope = a.scope
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	build := notify.NewLogBuild().WithLevel(notify.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		build.FromPath(cfg.LogFile)
	} else {
		build.FromWriter(cmd.ErrOrStderr())
	}
	notifier, err := build.Make()
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	logger := notifier.Logger()
	logger.Debug().
		Str("backend", cfg.Backend).
		Str("scope", cfg.Scope).
		Str("table", cfg.Table).
		Str("saveStrategy", cfg.SaveStrategy).
		Msg("configuration loaded")

	store, err := a.newStore(cmd.Context(), cfg)
	if err != nil {
		_ = notifier.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	clients := recordgate.NewManager()
	for _, scope := range []recordmodels.Scope{recordmodels.ScopePublic, recordmodels.ScopePrivate, recordmodels.ScopeShared} {
		c, err := recordgate.New(store, scope,
			recordgate.WithNotifier(notifier),
			recordgate.WithSaveStrategy(cfg.Strategy()),
		)
		if err == nil {
			err = clients.Register(scope.String(), c)
		}
		if err != nil {
			_ = notifier.Close()
			return nil, err
		}
	}

	return &session{cfg: cfg, store: store, clients: clients, notifier: notifier}, nil
}

// client returns the client for the configured scope.
func (s *session) client() (*recordgate.Client, error) {
	return s.clients.Get(s.cfg.StoreScope().String())
}

// requireAvailable applies the client gate to calls that go to the store directly.
func (s *session) requireAvailable(ctx context.Context) error {
	status, err := s.store.CheckAccountAvailability(ctx)
	if err != nil {
		return errors.NewStatusResolutionError(err)
	}
	if status != recordmodels.AccountStatusAvailable {
		return errors.NewAccountUnavailableError(status.String())
	}
	return nil
}

func (s *session) Close() error {
	return s.notifier.Close()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"storefront/internal/apiclient"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/localstore"
	"storefront/internal/session"
)

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "shopper",
		Short:        "Browse the storefront, keep a cart and check out from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log client activity to stderr")

	rootCmd.AddCommand(registerCmd(a))
	rootCmd.AddCommand(loginCmd(a))
	rootCmd.AddCommand(logoutCmd(a))
	rootCmd.AddCommand(whoamiCmd(a))
	rootCmd.AddCommand(productsCmd(a))
	rootCmd.AddCommand(cartCmd(a))
	rootCmd.AddCommand(checkoutCmd(a))
	rootCmd.AddCommand(ordersCmd(a))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the collaborators every subcommand shares.
type app struct {
	verbose bool

	logger  *log.Logger
	store   *localstore.Store
	cart    *cart.Store
	api     *apiclient.Client
	session *session.Binding
}

func (a *app) open(ctx context.Context) error {
	cfg := config.ClientFromEnv()

	a.logger = log.New(io.Discard, "", 0)
	if a.verbose {
		a.logger = log.New(os.Stderr, "[shopper] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	store, err := localstore.Open(cfg.StatePath)
	if err != nil {
		return err
	}
	a.store = store

	a.cart, err = cart.Open(ctx, store, cart.Guest, a.logger)
	if err != nil {
		return err
	}
	a.api = apiclient.New(cfg.APIURL, cfg.Timeout, a.logger)
	a.session = session.New(a.api, store, a.cart, a.logger)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// restore re-binds the stored credential so the cart opens in the right scope.
func (a *app) restore(ctx context.Context) error {
	_, err := a.session.Restore(ctx)
	if errors.Is(err, domain.ErrInvalidToken) {
		fmt.Fprintln(os.Stderr, "stored session expired, continuing as guest")
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	return nil
}

// requireLogin restores the session and fails unless a user is bound.
func (a *app) requireLogin(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	if a.session.Profile() == nil {
		return fmt.Errorf("not logged in, run `shopper login` first")
	}
	return nil
}

// Command shop is the storefront and admin console for the eshop API. The cart
// and the admin session flag live in a local key-value store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"eshop/internal/cart"
	"eshop/internal/client"
	"eshop/internal/notice"
	"eshop/internal/storage"
	"eshop/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, e := newRootCmd()
	err := root.ExecuteContext(ctx)
	e.finish(root)
	if err != nil {
		os.Exit(1)
	}
}

// env is everything a command needs, built once per invocation.
type env struct {
	log     *logrus.Logger
	kv      storage.KV
	cart    *cart.Cart
	session *storage.Session
	notices *notice.Queue
	api     *client.Client
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".eshop", "state.json")
	}
	return filepath.Join(home, ".eshop", "state.json")
}

// newRootCmd builds the command tree. Callers run env.finish after Execute so
// notices are shown and the store is closed even when a command fails.
func newRootCmd() (*cobra.Command, *env) {
	v := viper.New()
	e := &env{}

	root := &cobra.Command{
		Use:          "shop",
		Short:        "Browse the eshop catalog, manage a cart and administer products",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd, v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("api", "http://localhost:8080/api", "base URL of the eshop API")
	flags.String("store", defaultStorePath(), "client state location: a file path, memory:// or redis://host:port/db")
	flags.Duration("timeout", client.DefaultTimeout, "request timeout")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	v.SetEnvPrefix("ESHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newProductsCmd(e),
		newCartCmd(e),
		newAddCmd(e),
		newRemoveCmd(e),
		newQtyCmd(e),
		newLoginCmd(e),
		newLogoutCmd(e),
		newRegisterCmd(e),
		newAdminCmd(e),
	)
	return root, e
}

// open wires the store, cart, session and API client from configuration.
func (e *env) open(cmd *cobra.Command, v *viper.Viper) error {
	ctx := cmd.Context()
	e.log = logger.NewWithOutput(cmd.ErrOrStderr(), "shop", "development", v.GetString("log-level"))

	kv, err := storage.Open(ctx, v.GetString("store"))
	if err != nil {
		return fmt.Errorf("failed to open client store: %w", err)
	}
	e.kv = kv
	e.notices = notice.NewQueue(notice.DefaultTTL)
	e.cart = cart.New(cart.NewKVStore(kv, cart.DefaultKey), e.notices, e.log)
	e.cart.Rehydrate(ctx)
	e.session = storage.NewSession(kv)
	e.api = client.New(v.GetString("api"), v.GetDuration("timeout"), e.log)
	return nil
}

// finish prints the active notices and releases the store.
func (e *env) finish(cmd *cobra.Command) {
	e.printNotices(cmd)
	if e.notices != nil {
		e.notices.Close()
	}
	if e.kv != nil {
		if err := e.kv.Close(); err != nil {
			e.log.WithError(err).Warn("failed to close client store")
		}
	}
}

func (e *env) printNotices(cmd *cobra.Command) {
	if e.notices == nil {
		return
	}
	for _, n := range e.notices.Active() {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", n.Kind, n.Message)
	}
}

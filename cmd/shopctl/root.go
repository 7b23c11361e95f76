package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-shop-client/internal/config"
	"github.com/jrsteele09/go-shop-client/internal/logging"
	"github.com/jrsteele09/go-shop-client/sessions"
	"github.com/jrsteele09/go-shop-client/shop"
	"github.com/jrsteele09/go-shop-client/storage"
	"github.com/jrsteele09/go-shop-client/storage/sealed"
	"github.com/jrsteele09/go-shop-client/storage/sqlitestore"
	"github.com/jrsteele09/go-shop-client/storage/storefake"
)

// annotationKeepAlive marks commands that run the background renewal scheduler
const annotationKeepAlive = "keepalive"

// cli holds what every subcommand shares. The app is built lazily in PersistentPreRunE.
type cli struct {
	configPath string
	keepAlive  bool

	config config.Config
	logger zerolog.Logger
	app    *shop.App
	closer io.Closer
	out    io.Writer
}

func newRootCommand() *cobra.Command {
	c := &cli{out: os.Stdout}

	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Command line client for the shop backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(c.appName())
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "shopctl" {
				return nil
			}
			c.keepAlive = cmd.Annotations[annotationKeepAlive] == "true"
			c.out = cmd.OutOrStdout()
			return c.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("SHOP_CONFIG"), "config file (yaml, json or toml)")

	root.AddCommand(
		c.sessionCommand(),
		c.cartCommand(),
		c.favoritesCommand(),
		c.syncCommand(),
		c.adminCommand(),
	)
	return root
}

func (c *cli) open(ctx context.Context) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg
	c.logger = logging.New(cfg.GetLogLevel(), cfg.GetEnv(), os.Stderr)

	store, err := c.openStorage()
	if err != nil {
		return err
	}

	nav := sessions.NavigatorFunc(func(path string) {
		fmt.Fprintln(os.Stderr, "not logged in, run: shopctl session login")
	})
	deps := shop.DepsFromConfig(cfg, store, nav, c.logger)
	if !c.keepAlive {
		deps.KeepAliveSchedule = ""
	}

	c.app, err = shop.New(deps)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.app.Start(ctx); err != nil {
		// collections that failed to merge are retried on the next run
		c.logger.Warn().Err(err).Msg("startup sync incomplete")
	}
	return nil
}

func (c *cli) openStorage() (storage.Store, error) {
	var store storage.Store
	switch c.config.GetStorageBackend() {
	case config.StorageBackendMemory:
		store = storefake.NewFakeStore()
	default:
		db, err := sqlitestore.Open(c.config.GetStoragePath())
		if err != nil {
			return nil, err
		}
		c.closer = db
		store = db
	}

	if passphrase := c.config.GetStoragePassphrase(); passphrase != "" {
		s, err := sealed.New(store, passphrase)
		if err != nil {
			return nil, err
		}
		store = s
	}
	return store, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
	if c.closer != nil {
		if err := c.closer.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close storage")
		}
	}
}

func (c *cli) appName() string {
	if c.config != nil {
		return c.config.GetAppName()
	}
	return config.New().GetAppName()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

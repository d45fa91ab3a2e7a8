// Package cli wires the command-line interface: protocol discovery, account
// management and interactive connections.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/saikuru0/oshatori/connection"
	"github.com/saikuru0/oshatori/connection/irc"
	"github.com/saikuru0/oshatori/connection/mock"
	"github.com/saikuru0/oshatori/connection/sockchat"
	"github.com/saikuru0/oshatori/internal/config"
	"github.com/saikuru0/oshatori/internal/logging"
	"github.com/saikuru0/oshatori/internal/store"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oshatori",
		Short: "oshatori — multi-protocol chat client",
		Long:  "oshatori normalizes chat backends behind one protocol-agnostic connection surface.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.oshatori/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newProtocolsCmd())
	cmd.AddCommand(newAccountsCmd())
	cmd.AddCommand(newConnectCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// newRegistry builds the adapter registry with every built-in protocol.
func newRegistry() *connection.Registry {
	reg := connection.NewRegistry(log)
	mock.Register(reg)
	sockchat.Register(reg)
	irc.Register(reg)
	return reg
}

// openAccountStore opens the configured account store backend.
func openAccountStore() (store.AccountStore, func(), error) {
	if cfg.Store.Backend == "memory" {
		return store.NewMemoryAccountStore(), func() {}, nil
	}

	db, err := store.Open(paths.AccountDB(cfg.Store), log)
	if err != nil {
		return nil, nil, err
	}
	return store.NewSQLiteAccountStore(db), func() { db.Close() }, nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

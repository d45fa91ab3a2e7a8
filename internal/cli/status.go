package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saikuru0/oshatori/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show oshatori status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("oshatori %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			fmt.Printf("Store:   backend=%s path=%s\n", cfg.Store.Backend, paths.AccountDB(cfg.Store))
			fmt.Printf("Logging: level=%s\n", cfg.Logging.Level)

			fmt.Printf("Protocols: %s\n", strings.Join(newRegistry().Names(), ", "))

			if len(cfg.Accounts) > 0 {
				for _, acc := range cfg.Accounts {
					auto := ""
					if acc.AutoConnect {
						auto = " [auto]"
					}
					fmt.Printf("Account: %s protocol=%s%s\n", acc.Name, acc.Protocol, auto)
				}
			} else {
				fmt.Println("Account: (none in config)")
			}

			accounts, done, err := openAccountStore()
			if err != nil {
				return err
			}
			defer done()
			stored, err := accounts.List()
			if err != nil {
				return err
			}
			fmt.Printf("Stored:  %d account(s)\n", len(stored))
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/internal/store"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage stored accounts",
	}
	cmd.AddCommand(newAccountsListCmd())
	cmd.AddCommand(newAccountsAddCmd())
	cmd.AddCommand(newAccountsRemoveCmd())
	cmd.AddCommand(newAccountsImportCmd())
	return cmd
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, done, err := openAccountStore()
			if err != nil {
				return err
			}
			defer done()

			list, err := accounts.List()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("no accounts stored")
				return nil
			}
			for _, rec := range list {
				auto := ""
				if rec.AutoConnect {
					auto = " [auto]"
				}
				fmt.Printf("%s  protocol=%s%s\n", rec.Name, rec.Protocol, auto)
			}
			return nil
		},
	}
}

func newAccountsAddCmd() *cobra.Command {
	var (
		protocol    string
		fields      []string
		secrets     []string
		autoConnect bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if protocol == "" {
				return fmt.Errorf("--protocol is required")
			}

			auth, err := parseFieldArgs(fields, secrets)
			if err != nil {
				return err
			}

			accounts, done, err := openAccountStore()
			if err != nil {
				return err
			}
			defer done()

			rec, err := accounts.Save(store.AccountRecord{
				Name:        args[0],
				Protocol:    protocol,
				Auth:        auth,
				AutoConnect: autoConnect,
			})
			if err != nil {
				return err
			}
			fmt.Printf("saved account %s (%s)\n", rec.Name, rec.Protocol)
			return nil
		},
	}

	cmd.Flags().StringVar(&protocol, "protocol", "", "protocol name (see 'oshatori protocols')")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "auth field as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&secrets, "secret", nil, "password field as name=value (repeatable)")
	cmd.Flags().BoolVar(&autoConnect, "auto-connect", false, "connect this account on startup")
	return cmd
}

func newAccountsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a stored account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, done, err := openAccountStore()
			if err != nil {
				return err
			}
			defer done()

			if err := accounts.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("removed account %s\n", args[0])
			return nil
		},
	}
}

// newAccountsImportCmd copies accounts declared in config.yaml into the
// store, so file-managed and CLI-managed accounts end up in one place.
func newAccountsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import accounts from the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(cfg.Accounts) == 0 {
				fmt.Println("no accounts in config")
				return nil
			}

			accounts, done, err := openAccountStore()
			if err != nil {
				return err
			}
			defer done()

			for _, acc := range cfg.Accounts {
				auth, err := acc.AuthFields()
				if err != nil {
					return fmt.Errorf("account %s: %w", acc.Name, err)
				}
				if _, err := accounts.Save(store.AccountRecord{
					Name:        acc.Name,
					Protocol:    acc.Protocol,
					Auth:        auth,
					AutoConnect: acc.AutoConnect,
				}); err != nil {
					return fmt.Errorf("account %s: %w", acc.Name, err)
				}
				fmt.Printf("imported %s (%s)\n", acc.Name, acc.Protocol)
			}
			return nil
		},
	}
}

func parseFieldArgs(fields, secrets []string) ([]domain.AuthField, error) {
	var out []domain.AuthField
	for _, raw := range fields {
		name, value, err := splitFieldArg(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.AuthField{Name: name, Value: domain.TextValue(value)})
	}
	for _, raw := range secrets {
		name, value, err := splitFieldArg(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.AuthField{Name: name, Value: domain.PasswordValue(value)})
	}
	return out, nil
}

func splitFieldArg(raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("malformed field %q, want name=value", raw)
	}
	return name, value, nil
}

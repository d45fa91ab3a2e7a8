package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saikuru0/oshatori/domain"
)

func newProtocolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "protocols",
		Short: "List supported protocols and their login fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, spec := range newRegistry().Specs() {
				fmt.Printf("%s\n", spec.Name)
				printFields(spec.Auth, 1)
			}
			return nil
		},
	}
}

func printFields(fields []domain.AuthField, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		label := f.Display
		if label == "" {
			label = f.Name
		}
		marker := ""
		if f.Required {
			marker = " (required)"
		}
		fmt.Printf("%s%s: %s [%s]%s\n", indent, f.Name, label, f.Value.Kind, marker)
		if f.Value.Kind == domain.FieldGroup {
			printFields(f.Value.Group, depth+1)
		}
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wayward-wolves/chronocall/internal/messages"
)

func newHelpActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help-actions",
		Short: "Show how to phrase add, delete, move and list commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(globals)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), messages.For(cfg.Language).Usage())
			return nil
		},
	}
}

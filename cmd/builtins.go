package cmd

import (
	"fmt"

	"github.com/josephlewis42/msh/core/builtin"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the commands the shell runs in its own process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, v := range builtin.AllBuiltins.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}

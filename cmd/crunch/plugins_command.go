package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bjaus/crunch/builtin"
	"github.com/bjaus/crunch/jobfile"
)

func newPluginsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the components job files can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := builtin.Registry()
			rows := make([][]string, 0, len(jobfile.Kinds))
			for _, kind := range jobfile.Kinds {
				rows = append(rows, []string{string(kind), strings.Join(reg.Names(kind), ", ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Kind", "Components"}, rows))
			return nil
		},
	}
}

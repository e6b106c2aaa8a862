// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/absmach/topictree/router"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the shape of the topic tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.closeInto(&err)

		tree, err := e.loadTree(cmd.Context())
		if err != nil {
			return err
		}

		st := tree.Stats()
		return printResult(cmd, st, formatStats(st))
	},
}

func formatStats(st router.Stats) string {
	return fmt.Sprintf(`subscriptions:  %d
root wildcards: %d
segments:       %d
nodes:          %d
indexed nodes:  %d
lock stripes:   %d`, st.Subscriptions, st.RootWildcards, st.Segments, st.Nodes, st.IndexedNodes, st.LockStripes)
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

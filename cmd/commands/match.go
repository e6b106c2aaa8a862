// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/absmach/topictree/router"
	"github.com/absmach/topictree/topics"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <topic>",
	Short: "List the subscribers of a published topic",
	Long: `Replay the stored subscriptions into a topic tree and list the
subscribers a publication to <topic> reaches.

Subscriptions of the same client are merged: the highest QoS wins and all
subscription identifiers are kept. Shared subscriptions are listed per group.

Examples:
  topictree match sensor/kitchen/temperature
  topictree match sensor/kitchen/temperature --exclude-root-wildcard --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		exclude, _ := cmd.Flags().GetBool("exclude-root-wildcard")

		topic := args[0]
		if err := topics.ValidateTopicName(topic); err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.closeInto(&err)

		tree, err := e.loadTree(cmd.Context())
		if err != nil {
			return err
		}

		start := time.Now()
		matches := tree.GetSubscribers(topic, exclude)
		e.metrics.RecordMatch(len(matches), time.Since(start))

		return printResult(cmd, matches, formatMatches(matches))
	},
}

func formatMatches(matches []router.Match) string {
	if len(matches) == 0 {
		return "no subscribers"
	}

	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s qos=%d", m.ClientID, m.QoS)
		if m.IsShared() {
			fmt.Fprintf(&b, " share=%s filter=%s", m.SharedName, m.TopicFilter)
		}
		if len(m.SubscriptionIDs) > 0 {
			fmt.Fprintf(&b, " ids=%v", m.SubscriptionIDs)
		}
	}
	return b.String()
}

func init() {
	matchCmd.Flags().Bool("exclude-root-wildcard", false, "skip subscriptions to # and filters starting with +")

	rootCmd.AddCommand(matchCmd)
}

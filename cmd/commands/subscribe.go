// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"strings"

	"github.com/absmach/topictree/storage"
	"github.com/absmach/topictree/topics"
	"github.com/spf13/cobra"
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <client-id> <filter>",
	Short: "Persist a subscription",
	Long: `Persist a subscription in the configured storage.

A filter of the form $share/<group>/<filter> creates a shared subscription.

Examples:
  topictree subscribe client-1 'home/+/light' --qos 2 --id 12
  topictree subscribe worker-3 '$share/workers/jobs/#'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		qos, _ := cmd.Flags().GetUint8("qos")
		id, _ := cmd.Flags().GetUint32("id")
		noLocal, _ := cmd.Flags().GetBool("no-local")
		rap, _ := cmd.Flags().GetBool("retain-as-published")

		shareName, filter, err := splitShared(args[1])
		if err != nil {
			return err
		}
		if err := topics.ValidateTopicFilter(filter); err != nil {
			return err
		}

		sub := &storage.Subscription{
			ClientID:  args[0],
			Filter:    filter,
			ShareName: shareName,
			QoS:       qos,
			Options: storage.SubscribeOptions{
				NoLocal:           noLocal,
				RetainAsPublished: rap,
			},
		}
		if cmd.Flags().Changed("id") {
			sub.SubscriptionID = &id
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.closeInto(&err)

		if err := e.store.Subscriptions().Add(sub); err != nil {
			e.metrics.RecordError("storage")
			return err
		}
		return printResult(cmd, sub, fmt.Sprintf("subscribed %s to %s", sub.ClientID, args[1]))
	},
}

var unsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe <client-id> [filter]",
	Short: "Remove a persisted subscription",
	Long: `Remove a persisted subscription, or every subscription of a client with --all.

Examples:
  topictree unsubscribe client-1 'home/+/light'
  topictree unsubscribe worker-3 '$share/workers/jobs/#'
  topictree unsubscribe client-1 --all`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 2) {
			return fmt.Errorf("either a filter or --all is required")
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.closeInto(&err)

		clientID := args[0]
		if all {
			if err := e.store.Subscriptions().RemoveAll(clientID); err != nil {
				return err
			}
			return printResult(cmd, map[string]string{"client_id": clientID}, fmt.Sprintf("removed all subscriptions of %s", clientID))
		}

		shareName, filter, err := splitShared(args[1])
		if err != nil {
			return err
		}
		if err := e.store.Subscriptions().Remove(clientID, filter, shareName); err != nil {
			return err
		}
		return printResult(cmd, map[string]string{"client_id": clientID, "filter": args[1]}, fmt.Sprintf("unsubscribed %s from %s", clientID, args[1]))
	},
}

// splitShared separates "$share/<group>/<filter>" into its parts. A filter
// that starts with the share prefix but is malformed is rejected.
func splitShared(filter string) (string, string, error) {
	shareName, topicFilter, ok := topics.ParseShared(filter)
	if !ok && strings.HasPrefix(filter, topics.SharePrefix) {
		return "", "", fmt.Errorf("malformed shared subscription %q", filter)
	}
	return shareName, topicFilter, nil
}

func init() {
	subscribeCmd.Flags().Uint8("qos", 0, "maximum QoS (0, 1 or 2)")
	subscribeCmd.Flags().Uint32("id", 0, "MQTT 5 subscription identifier")
	subscribeCmd.Flags().Bool("no-local", false, "do not deliver the client's own publications")
	subscribeCmd.Flags().Bool("retain-as-published", false, "keep the original retain flag")

	unsubscribeCmd.Flags().Bool("all", false, "remove every subscription of the client")

	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(unsubscribeCmd)
}

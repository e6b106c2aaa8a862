// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Command topictree manages persisted subscriptions and queries the topic
// tree built from them.
//
// Usage:
//
//	topictree [flags] <command> [args]
//
// Commands:
//
//	subscribe    - Persist a subscription
//	unsubscribe  - Remove a persisted subscription
//	match        - List the subscribers of a published topic
//	stats        - Show the shape of the topic tree
//	bench        - Benchmark the topic tree with synthetic subscriptions
package main

import (
	"fmt"
	"os"

	"github.com/absmach/topictree/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

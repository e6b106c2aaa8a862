// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/absmach/topictree/router"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark the topic tree with synthetic subscriptions",
	Long: `Fill a topic tree with synthetic subscriptions and run concurrent lookups.

Filters are spread over tenants and devices and mix exact filters, '+' and
'#' wildcards, and shared subscriptions. Storage is not touched.

Examples:
  topictree bench --subscriptions 1000000 --lookups 2000000 --workers 16`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		subs, _ := cmd.Flags().GetInt("subscriptions")
		lookups, _ := cmd.Flags().GetInt("lookups")
		workers, _ := cmd.Flags().GetInt("workers")
		tenants, _ := cmd.Flags().GetInt("tenants")
		if subs < 1 || lookups < 1 || workers < 1 || tenants < 1 {
			return fmt.Errorf("subscriptions, lookups, workers and tenants must be positive")
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.closeInto(&err)

		tree := router.New(e.treeConfig(), e.metrics, e.logger)

		start := time.Now()
		if err := fill(tree, subs, tenants); err != nil {
			return err
		}
		fillTime := time.Since(start)

		var matched atomic.Int64
		var wg sync.WaitGroup
		start = time.Now()
		for w := range workers {
			n := lookups / workers
			if w < lookups%workers {
				n++
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				r := rand.New(rand.NewPCG(uint64(w), 0))
				for range n {
					topic := fmt.Sprintf("tenant%d/device%d/state", r.IntN(tenants), r.IntN(subs/tenants+1))
					t0 := time.Now()
					m := tree.GetSubscribers(topic, false)
					e.metrics.RecordMatch(len(m), time.Since(t0))
					matched.Add(int64(len(m)))
				}
			}()
		}
		wg.Wait()
		lookupTime := time.Since(start)

		res := benchResult{
			Subscriptions:    tree.Count(),
			FillTime:         fillTime.String(),
			SubscribesPerSec: float64(subs) / fillTime.Seconds(),
			Lookups:          lookups,
			LookupTime:       lookupTime.String(),
			LookupsPerSec:    float64(lookups) / lookupTime.Seconds(),
			AvgSubscribers:   float64(matched.Load()) / float64(lookups),
			Stats:            tree.Stats(),
		}
		return printResult(cmd, res, res.String())
	},
}

type benchResult struct {
	Subscriptions    int64        `json:"subscriptions"`
	FillTime         string       `json:"fill_time"`
	SubscribesPerSec float64      `json:"subscribes_per_sec"`
	Lookups          int          `json:"lookups"`
	LookupTime       string       `json:"lookup_time"`
	LookupsPerSec    float64      `json:"lookups_per_sec"`
	AvgSubscribers   float64      `json:"avg_subscribers"`
	Stats            router.Stats `json:"stats"`
}

func (r benchResult) String() string {
	return fmt.Sprintf(`subscriptions:   %d in %s (%.0f/s)
lookups:         %d in %s (%.0f/s)
avg subscribers: %.2f
%s`, r.Subscriptions, r.FillTime, r.SubscribesPerSec,
		r.Lookups, r.LookupTime, r.LookupsPerSec,
		r.AvgSubscribers, formatStats(r.Stats))
}

// fill adds n subscriptions with random client IDs. One in ten is a '+'
// filter, one in twenty a '#' filter and one in fifty a shared subscription.
func fill(tree *router.TopicTree, n, tenants int) error {
	devices := n/tenants + 1
	for i := range n {
		tenant := i % tenants
		device := (i / tenants) % devices

		var filter, share string
		switch {
		case i%50 == 0:
			filter = fmt.Sprintf("tenant%d/+/state", tenant)
			share = fmt.Sprintf("group%d", tenant%4)
		case i%20 == 0:
			filter = fmt.Sprintf("tenant%d/device%d/#", tenant, device)
		case i%10 == 0:
			filter = fmt.Sprintf("tenant%d/+/state", tenant)
		default:
			filter = fmt.Sprintf("tenant%d/device%d/state", tenant, device)
		}

		topic := router.Topic{Filter: filter, QoS: byte(i % 3)}
		if _, err := tree.AddTopic(uuid.NewString(), topic, 0, share); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	benchCmd.Flags().Int("subscriptions", 100000, "number of synthetic subscriptions")
	benchCmd.Flags().Int("lookups", 1000000, "number of topic lookups")
	benchCmd.Flags().Int("workers", 8, "concurrent lookup goroutines")
	benchCmd.Flags().Int("tenants", 100, "number of distinct first topic levels")

	rootCmd.AddCommand(benchCmd)
}

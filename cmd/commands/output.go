// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// printResult writes v as JSON with --json, otherwise the text form.
func printResult(cmd *cobra.Command, v any, text string) error {
	out := cmd.OutOrStdout()
	if !jsonOutput {
		_, err := fmt.Fprintln(out, text)
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

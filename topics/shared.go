// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

import "strings"

// SharePrefix starts every shared subscription filter.
const SharePrefix = "$share/"

// ParseShared parses a shared subscription filter.
// Format: $share/{ShareName}/{TopicFilter}
// Returns: shareName, topicFilter, isShared
//
// Examples:
//   - "$share/group1/sensors/#" -> ("group1", "sensors/#", true)
//   - "sensors/#" -> ("", "sensors/#", false)
//   - "$share//sensors" -> ("", "$share//sensors", false)
func ParseShared(filter string) (shareName, topicFilter string, isShared bool) {
	rest, ok := strings.CutPrefix(filter, SharePrefix)
	if !ok {
		return "", filter, false
	}

	name, topicFilter, ok := strings.Cut(rest, Separator)
	if !ok || name == "" || topicFilter == "" {
		return "", filter, false
	}

	return name, topicFilter, true
}

// JoinShared builds the $share form of a shared subscription.
// An empty shareName returns filter unchanged.
func JoinShared(shareName, filter string) string {
	if shareName == "" {
		return filter
	}
	return SharePrefix + shareName + Separator + filter
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Separator delimits topic levels.
	Separator = "/"

	// SingleLevelWildcard matches exactly one topic level.
	SingleLevelWildcard = "+"

	// MultiLevelWildcard matches any number of trailing topic levels.
	MultiLevelWildcard = "#"
)

// ErrInvalidArgument is returned when a helper is called with arguments that
// violate its contract.
var ErrInvalidArgument = errors.New("invalid argument")

// SegmentKey returns the part of topic covering its first n levels.
// If topic has fewer than n levels, the whole topic is returned.
//
// Examples:
//   - SegmentKey("a/b/c", 1) -> "a"
//   - SegmentKey("a/b/c", 2) -> "a/b"
//   - SegmentKey("a/b", 5)   -> "a/b"
//   - SegmentKey("/a", 1)    -> ""
func SegmentKey(topic string, n int) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("%w: topic must not be empty", ErrInvalidArgument)
	}
	if n <= 0 {
		return "", fmt.Errorf("%w: segment count must be positive, got %d", ErrInvalidArgument, n)
	}

	idx := 0
	for i := 0; i < n; i++ {
		next := strings.IndexByte(topic[idx:], '/')
		if next < 0 {
			return topic, nil
		}
		if i == n-1 {
			return topic[:idx+next], nil
		}
		idx += next + 1
	}
	return topic, nil
}

// FirstSegmentKey returns the first level of topic. Unlike SegmentKey it
// accepts an empty topic, which may happen when topic is already a segment key.
func FirstSegmentKey(topic string) string {
	if topic == "" {
		return ""
	}
	if i := strings.IndexByte(topic, '/'); i >= 0 {
		return topic[:i]
	}
	return topic
}

// ContainsWildcard reports whether segment contains '+' or '#' anywhere.
// A segment such as "a+b" is reported too, even though MQTT only treats a
// wildcard standing alone as a wildcard.
func ContainsWildcard(segment string) bool {
	return strings.ContainsAny(segment, SingleLevelWildcard+MultiLevelWildcard)
}

// Split splits topic into its levels, keeping empty levels.
// An empty topic has no levels.
func Split(topic string) []string {
	if topic == "" {
		return nil
	}
	return strings.Split(topic, Separator)
}

// Levels returns the number of levels in topic without allocating.
func Levels(topic string) int {
	if topic == "" {
		return 0
	}
	return strings.Count(topic, Separator) + 1
}

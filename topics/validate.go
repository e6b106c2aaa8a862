// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxLevels is the deepest topic or filter accepted by the subscription tree.
const MaxLevels = 1000

// Common validation errors.
var (
	ErrInvalidTopicName   = errors.New("invalid topic name: contains wildcards or illegal characters")
	ErrInvalidTopicFilter = errors.New("invalid topic filter")
)

// ValidateTopicName checks if the topic name is valid for PUBLISH (no wildcards).
func ValidateTopicName(topic string) error {
	if topic == "" {
		return ErrInvalidTopicName
	}
	// "The Topic Name ... MUST NOT contain wildcard characters"
	if ContainsWildcard(topic) {
		return ErrInvalidTopicName
	}
	if !utf8.ValidString(topic) {
		return ErrInvalidTopicName
	}
	if strings.Contains(topic, "\u0000") {
		return ErrInvalidTopicName
	}
	return nil
}

// ValidateTopicFilter checks a SUBSCRIBE filter: wildcards must occupy a
// whole level and '#' may only be the last level.
func ValidateTopicFilter(filter string) error {
	if filter == "" || !utf8.ValidString(filter) || strings.Contains(filter, "\u0000") {
		return ErrInvalidTopicFilter
	}
	if Levels(filter) > MaxLevels {
		return ErrInvalidTopicFilter
	}

	levels := Split(filter)
	for i, level := range levels {
		if !ContainsWildcard(level) {
			continue
		}
		switch level {
		case SingleLevelWildcard:
		case MultiLevelWildcard:
			if i != len(levels)-1 {
				return ErrInvalidTopicFilter
			}
		default:
			return ErrInvalidTopicFilter
		}
	}
	return nil
}

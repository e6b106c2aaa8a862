// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseShared(t *testing.T) {
	tests := []struct {
		name             string
		filter           string
		expectedShare    string
		expectedTopic    string
		expectedIsShared bool
	}{
		{
			name:             "Valid shared subscription",
			filter:           "$share/group1/sensors/#",
			expectedShare:    "group1",
			expectedTopic:    "sensors/#",
			expectedIsShared: true,
		},
		{
			name:             "Valid shared with single level wildcard",
			filter:           "$share/consumers/home/+/temperature",
			expectedShare:    "consumers",
			expectedTopic:    "home/+/temperature",
			expectedIsShared: true,
		},
		{
			name:             "Non-shared subscription",
			filter:           "sensors/#",
			expectedShare:    "",
			expectedTopic:    "sensors/#",
			expectedIsShared: false,
		},
		{
			name:             "No topic after group",
			filter:           "$share/group1",
			expectedShare:    "",
			expectedTopic:    "$share/group1",
			expectedIsShared: false,
		},
		{
			name:             "Empty group",
			filter:           "$share//sensors",
			expectedShare:    "",
			expectedTopic:    "$share//sensors",
			expectedIsShared: false,
		},
		{
			name:             "Empty filter",
			filter:           "",
			expectedShare:    "",
			expectedTopic:    "",
			expectedIsShared: false,
		},
		{
			name:             "Share prefix only",
			filter:           "$share/",
			expectedShare:    "",
			expectedTopic:    "$share/",
			expectedIsShared: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shareName, topicFilter, isShared := ParseShared(tt.filter)
			assert.Equal(t, tt.expectedShare, shareName)
			assert.Equal(t, tt.expectedTopic, topicFilter)
			assert.Equal(t, tt.expectedIsShared, isShared)
		})
	}
}

func TestJoinShared(t *testing.T) {
	assert.Equal(t, "$share/g1/a/b", JoinShared("g1", "a/b"))
	assert.Equal(t, "a/b", JoinShared("", "a/b"))

	name, filter, ok := ParseShared(JoinShared("grp", "x/+/#"))
	assert.True(t, ok)
	assert.Equal(t, "grp", name)
	assert.Equal(t, "x/+/#", filter)
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentKey(t *testing.T) {
	tests := []struct {
		topic string
		n     int
		want  string
	}{
		{"a/b/c", 1, "a"},
		{"a/b/c", 2, "a/b"},
		{"a/b/c", 3, "a/b/c"},
		{"a/b/c", 4, "a/b/c"},
		{"topic", 1, "topic"},
		{"topic", 2, "topic"},
		{"/a", 1, ""},
		{"/a", 2, "/a"},
		{"//", 2, "/"},
		{"a/", 1, "a"},
		{"a/", 2, "a/"},
	}

	for _, tt := range tests {
		got, err := SegmentKey(tt.topic, tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "SegmentKey(%q, %d)", tt.topic, tt.n)
	}
}

func TestSegmentKey_InvalidArguments(t *testing.T) {
	_, err := SegmentKey("", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SegmentKey("a/b", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SegmentKey("a/b", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFirstSegmentKey(t *testing.T) {
	assert.Equal(t, "", FirstSegmentKey(""))
	assert.Equal(t, "a", FirstSegmentKey("a"))
	assert.Equal(t, "a", FirstSegmentKey("a/b/c"))
	assert.Equal(t, "", FirstSegmentKey("/a"))
	assert.Equal(t, "+", FirstSegmentKey("+/a"))
}

func TestContainsWildcard(t *testing.T) {
	tests := []struct {
		segment string
		want    bool
	}{
		{"+", true},
		{"#", true},
		{"a+b", true},
		{"abc#", true},
		{"abc", false},
		{"", false},
		{"$SYS", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsWildcard(tt.segment), tt.segment)
	}
}

func TestSplit(t *testing.T) {
	assert.Empty(t, Split(""))
	assert.Equal(t, []string{"a"}, Split("a"))
	assert.Equal(t, []string{"", ""}, Split("/"))
	assert.Equal(t, []string{"a", "", "b"}, Split("a//b"))
	assert.Equal(t, []string{"", "", "", "", "", ""}, Split("/////"))
}

func TestLevels(t *testing.T) {
	assert.Equal(t, 0, Levels(""))
	assert.Equal(t, 1, Levels("a"))
	assert.Equal(t, 2, Levels("/"))
	assert.Equal(t, 3, Levels("a/b/c"))
}

// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTopicName(t *testing.T) {
	assert.NoError(t, ValidateTopicName("a/b/c"))
	assert.NoError(t, ValidateTopicName("/"))
	assert.ErrorIs(t, ValidateTopicName(""), ErrInvalidTopicName)
	assert.ErrorIs(t, ValidateTopicName("a/+/c"), ErrInvalidTopicName)
	assert.ErrorIs(t, ValidateTopicName("a/#"), ErrInvalidTopicName)
	assert.ErrorIs(t, ValidateTopicName("a\u0000b"), ErrInvalidTopicName)
	assert.ErrorIs(t, ValidateTopicName(string([]byte{0xff, 0xfe})), ErrInvalidTopicName)
}

func TestValidateTopicFilter(t *testing.T) {
	valid := []string{"#", "+", "a/b", "a/+/b", "a/#", "+/+/#", "/", "a//b"}
	for _, f := range valid {
		assert.NoError(t, ValidateTopicFilter(f), f)
	}

	invalid := []string{"", "a/#/b", "a/b#", "a+/b", "#/a", strings.Repeat("a/", MaxLevels) + "a"}
	for _, f := range invalid {
		assert.ErrorIs(t, ValidateTopicFilter(f), ErrInvalidTopicFilter, f)
	}
}

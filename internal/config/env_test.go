// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		envSet       bool
		want         string
	}{
		{name: "environment variable set", key: "TEST_STRING", defaultValue: "default", envValue: "from-env", envSet: true, want: "from-env"},
		{name: "environment variable not set", key: "TEST_STRING_UNSET", defaultValue: "default", want: "default"},
		{name: "environment variable empty string", key: "TEST_STRING_EMPTY", defaultValue: "default", envValue: "", envSet: true, want: "default"},
		{name: "sensitive variable (secret)", key: "TEST_JWT_SECRET", defaultValue: "default", envValue: "s3cr3t", envSet: true, want: "s3cr3t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}
			assert.Equal(t, tt.want, ParseString(tt.key, tt.defaultValue))
		})
	}
}

func TestParseTyped(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "forty-two")
	t.Setenv("TEST_DUR", "90s")
	t.Setenv("TEST_DUR_BAD", "soon")
	t.Setenv("TEST_BOOL", "yes")
	t.Setenv("TEST_BOOL_BAD", "maybe")
	t.Setenv("TEST_FLOAT", "0.25")

	assert.Equal(t, 42, ParseInt("TEST_INT", 1))
	assert.Equal(t, 1, ParseInt("TEST_INT_BAD", 1))
	assert.Equal(t, 90*time.Second, ParseDuration("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, ParseDuration("TEST_DUR_BAD", time.Second))
	assert.True(t, ParseBool("TEST_BOOL", false))
	assert.False(t, ParseBool("TEST_BOOL_BAD", false))
	assert.InDelta(t, 0.25, ParseFloat("TEST_FLOAT", 1), 1e-9)
}

func TestParseList(t *testing.T) {
	t.Setenv("TEST_LIST", " a ,b,, c ")
	t.Setenv("TEST_LIST_BLANK", " , ")

	assert.Equal(t, []string{"a", "b", "c"}, ParseList("TEST_LIST", nil))
	assert.Equal(t, []string{"*"}, ParseList("TEST_LIST_BLANK", []string{"*"}))
	assert.Equal(t, []string{"*"}, ParseList("TEST_LIST_UNSET", []string{"*"}))
}

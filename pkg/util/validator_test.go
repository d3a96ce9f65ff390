package util

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestIsValidDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "two alphanumerics", input: "ab", valid: true},
		{name: "dotted name", input: "player.one", valid: true},
		{name: "all specials once", input: "a.b_c@d-e", valid: true},
		{name: "max length", input: strings.Repeat("a", 32), valid: true},
		{name: "empty", input: "", valid: false},
		{name: "single char", input: "a", valid: false},
		{name: "too long", input: strings.Repeat("a", 33), valid: false},
		{name: "consecutive dashes", input: "a--b", valid: false},
		{name: "mixed consecutive specials", input: "a.@b", valid: false},
		{name: "leading special", input: ".ab", valid: false},
		{name: "trailing special", input: "ab_", valid: false},
		{name: "space", input: "a b", valid: false},
		{name: "slash", input: "a/b", valid: false},
		{name: "non ascii", input: "名字", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidDisplayName(tt.input))
		})
	}
}

func TestShouldShowDisplayNameError(t *testing.T) {
	assert.False(t, ShouldShowDisplayNameError(""))
	assert.False(t, ShouldShowDisplayNameError("-"), "short input is still being typed")
	assert.False(t, ShouldShowDisplayNameError("ab"))
	assert.True(t, ShouldShowDisplayNameError("a-"))
	assert.True(t, ShouldShowDisplayNameError("a--b"))
}

// 命名规则属性

func TestProperty_DisplayNamePolicy(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("names shorter than 2 are rejected", prop.ForAll(
		func(s string) bool {
			return !IsValidDisplayName(s)
		},
		gen.RegexMatch(`[a-zA-Z0-9._@-]{0,1}`),
	))

	properties.Property("names longer than 32 are rejected", prop.ForAll(
		func(s string) bool {
			return !IsValidDisplayName(s)
		},
		gen.RegexMatch(`[a-zA-Z0-9]{33,64}`),
	))

	properties.Property("non-alphanumeric first character is rejected", prop.ForAll(
		func(s string) bool {
			return !IsValidDisplayName(s)
		},
		gen.RegexMatch(`[._@ /#-][a-zA-Z0-9]{1,20}`),
	))

	properties.Property("non-alphanumeric last character is rejected", prop.ForAll(
		func(s string) bool {
			return !IsValidDisplayName(s)
		},
		gen.RegexMatch(`[a-zA-Z0-9]{1,20}[._@ /#-]`),
	))

	properties.Property("two consecutive specials are rejected", prop.ForAll(
		func(s string) bool {
			return !IsValidDisplayName(s)
		},
		gen.RegexMatch(`[a-zA-Z0-9]{1,10}[._@-]{2,3}[a-zA-Z0-9]{1,10}`),
	))

	properties.Property("well-formed names are accepted", prop.ForAll(
		func(s string) bool {
			return IsValidDisplayName(s)
		},
		gen.RegexMatch(`[a-zA-Z0-9]{2,8}([._@-][a-zA-Z0-9]{1,7}){0,2}`),
	))

	properties.TestingRun(t)
}

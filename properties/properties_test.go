// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package properties

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	var b Builder
	p := b.Set("key", "a").Set("service.ranking", "10").Build()

	v, ok := p.GetString("key")
	require.True(t, ok)
	assert.Equal(t, "a", v)

	n, ok := p.GetLong("service.ranking")
	require.True(t, ok)
	assert.Equal(t, int64(10), n)

	_, ok = p.GetLong("key")
	assert.False(t, ok, "non-numeric value should not parse as a long")

	_, ok = p.Get("missing")
	assert.False(t, ok)
}

func TestBuilderReuse(t *testing.T) {
	var b Builder
	b.Set("a", "1")
	first := b.Build()

	b.Set("b", "2")
	second := b.Build()

	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 2, second.Len())
}

func TestTypedAccessors(t *testing.T) {
	p := New(map[string]string{
		"double": "3.14",
		"bool":   "true",
		"bad":    "nope",
	})

	d, ok := p.GetDouble("double")
	require.True(t, ok)
	assert.InDelta(t, 3.14, d, 0.0001)

	b, ok := p.GetBool("bool")
	require.True(t, ok)
	assert.True(t, b)

	_, ok = p.GetBool("bad")
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	p := New(map[string]string{"a": "1"})
	cloned := p.Clone()

	assert.True(t, p.Equal(cloned))

	var b Builder
	mutated := b.Merge(cloned).Set("a", "2").Build()

	assert.False(t, p.Equal(mutated))
	v, _ := p.Get("a")
	assert.Equal(t, "1", v, "original snapshot must not be affected by building from its clone")
}

func TestEqual(t *testing.T) {
	a := New(map[string]string{"x": "1", "y": "2"})
	b := New(map[string]string{"y": "2", "x": "1"})
	c := New(map[string]string{"x": "1"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, Properties{}.Equal(Properties{}))
}

func TestHasAndLen(t *testing.T) {
	p := New(map[string]string{"a": "1"})
	assert.True(t, p.Has("a"))
	assert.False(t, p.Has("b"))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 0, Properties{}.Len())
}

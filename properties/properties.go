// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package properties provides the case-sensitive, immutable string-keyed
// property bags attached to every service registration and evaluated by
// filters.
package properties

import "strconv"

// Reserved system property keys. These are always present on a service
// registration's merged properties. The registry overwrites any user value
// for service.id and objectClass; a user-supplied service.ranking is read
// as the ranking (0 when absent or not an integer) and stored back in
// canonical form.
const (
	KeyServiceID      = "service.id"
	KeyObjectClass    = "objectClass"
	KeyServiceRanking = "service.ranking"
)

// Properties is an immutable, case-sensitive string-to-string map. The zero
// value is an empty, usable instance. Instances are safe for concurrent
// reads by any number of goroutines, which is what allows a ServiceRegistry
// to hand the same snapshot to many listeners and trackers at once.
type Properties struct {
	values map[string]string
}

// Get returns the string value for key, if present.
func (p Properties) Get(key string) (string, bool) {
	if p.values == nil {
		return "", false
	}

	v, ok := p.values[key]
	return v, ok
}

// GetString is an alias for Get, provided for symmetry with the other typed
// accessors.
func (p Properties) GetString(key string) (string, bool) {
	return p.Get(key)
}

// GetLong parses key's value as a base-10 int64.
func (p Properties) GetLong(key string) (int64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}

	n, err := strconv.ParseInt(v, 10, 64)
	return n, err == nil
}

// GetDouble parses key's value as a float64.
func (p Properties) GetDouble(key string) (float64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}

	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

// GetBool parses key's value as a bool, accepting the same formats as
// strconv.ParseBool.
func (p Properties) GetBool(key string) (bool, bool) {
	v, ok := p.Get(key)
	if !ok {
		return false, false
	}

	b, err := strconv.ParseBool(v)
	return b, err == nil
}

// Has reports whether key is present, regardless of value.
func (p Properties) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Len returns the number of properties.
func (p Properties) Len() int {
	return len(p.values)
}

// Keys returns the property keys in unspecified order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}

	return keys
}

// Each applies a visitor to every key/value pair. The visitor must not
// retain the arguments past the call.
func (p Properties) Each(f func(key, value string)) {
	for k, v := range p.values {
		f(k, v)
	}
}

// Clone returns an independent copy of p. Since Properties is immutable,
// Clone is rarely necessary; the registry does not call it, as every
// modification builds a fresh snapshot.
func (p Properties) Clone() Properties {
	if len(p.values) == 0 {
		return Properties{}
	}

	cloned := make(map[string]string, len(p.values))
	for k, v := range p.values {
		cloned[k] = v
	}

	return Properties{values: cloned}
}

// Equal reports whether p and o have exactly the same keys and values.
func (p Properties) Equal(o Properties) bool {
	if len(p.values) != len(o.values) {
		return false
	}

	for k, v := range p.values {
		if ov, ok := o.values[k]; !ok || ov != v {
			return false
		}
	}

	return true
}

// New creates an immutable Properties from a plain map. The supplied map is
// copied; callers retain ownership of the original.
func New(m map[string]string) Properties {
	if len(m) == 0 {
		return Properties{}
	}

	values := make(map[string]string, len(m))
	for k, v := range m {
		values[k] = v
	}

	return Properties{values: values}
}

// Builder is a Fluent Builder for Properties. The zero value is a ready to
// use builder. A Builder is not safe for concurrent use.
type Builder struct {
	values map[string]string
}

// Set stages a key/value pair. A later Set with the same key overwrites an
// earlier one.
func (b *Builder) Set(key, value string) *Builder {
	if b.values == nil {
		b.values = make(map[string]string)
	}

	b.values[key] = value
	return b
}

// SetAll stages every key/value pair from m.
func (b *Builder) SetAll(m map[string]string) *Builder {
	for k, v := range m {
		b.Set(k, v)
	}

	return b
}

// Merge stages every key/value pair from an existing Properties.
func (b *Builder) Merge(p Properties) *Builder {
	p.Each(b.Set)
	return b
}

// Build freezes the staged key/value pairs into an immutable Properties.
// The builder's state is unaffected and may be reused.
func (b *Builder) Build() Properties {
	if len(b.values) == 0 {
		return Properties{}
	}

	values := make(map[string]string, len(b.values))
	for k, v := range b.values {
		values[k] = v
	}

	return Properties{values: values}
}

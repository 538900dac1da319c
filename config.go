// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package svcrt

import "time"

// RegistryConfig is an easily unmarshalable configuration for a
// ServiceRegistry, mirroring the field-tagging style of the bridge
// package's Consul Config. It is optional — an application can construct
// a *registry.ServiceRegistry directly with registry.RegistryOptions
// instead.
type RegistryConfig struct {
	// UnregisterGracePeriod is how long Unregister waits for outstanding
	// references to drain before logging a warning. Zero uses the
	// registry's own default (5s).
	UnregisterGracePeriod time.Duration `json:"unregisterGracePeriod" yaml:"unregisterGracePeriod" mapstructure:"unregisterGracePeriod"`

	// LogLevel names a level for the registry's diagnostic logger
	// ("debug", "info", "warn", "error"). New does not read it: the
	// registry logs through the Logger passed to New, and discards its
	// output when none is passed.
	LogLevel string `json:"logLevel" yaml:"logLevel" mapstructure:"logLevel"`
}

// ComponentConfig is an easily unmarshalable declaration of a Component's
// static shape: its dependencies, whether each is required, and the
// update strategy to use for it. Callers still supply the Init/Start/
// Stop/Deinit and dependency callbacks in code; this type only carries
// what can be externalized.
type ComponentConfig struct {
	// Name identifies the component for introspection and logging.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Dependencies declares each of the component's service
	// dependencies.
	Dependencies []DependencyConfig `json:"dependencies" yaml:"dependencies" mapstructure:"dependencies"`
}

// DependencyConfig is the externalizable shape of a single
// depmgr.ServiceDependency.
type DependencyConfig struct {
	// Name is the target service name to track.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Filter is an optional LDAP-style filter string further narrowing
	// which services under Name are tracked.
	Filter string `json:"filter" yaml:"filter" mapstructure:"filter"`

	// Required marks whether the component cannot instantiate without
	// at least one match for this dependency.
	Required bool `json:"required" yaml:"required" mapstructure:"required"`

	// Suspend opts this dependency into the suspending update strategy
	// in place of the default locking one.
	Suspend bool `json:"suspend" yaml:"suspend" mapstructure:"suspend"`
}

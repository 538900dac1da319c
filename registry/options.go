// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"time"

	"github.com/xmidt-org/svcrt/svcrtlog"
)

const defaultUnregisterGracePeriod = 5 * time.Second

type config struct {
	logger      svcrtlog.Logger
	gracePeriod time.Duration
}

func defaultConfig() config {
	return config{
		logger:      svcrtlog.Discard(),
		gracePeriod: defaultUnregisterGracePeriod,
	}
}

// RegistryOption is a functional option for NewServiceRegistry. Each option
// may modify the registry's internal configuration prior to first use. The
// bridge package's client options use the teacher's generic AsOption
// coercion, where two distinct constructor shapes (with and without an
// error return) genuinely need unifying; a registry only ever mutates a
// config and can't fail, so a plain functional option is the right size
// here.
type RegistryOption func(*config)

// WithLogger directs the registry's diagnostic logging (listener panics,
// factory errors, unregister grace-period warnings) to l.
func WithLogger(l svcrtlog.Logger) RegistryOption {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUnregisterGracePeriod overrides how long Unregister waits for
// outstanding references to drain before logging a warning. It does not
// change Unregister's blocking behavior; it only controls when the warning
// fires. The zero value disables the warning entirely.
func WithUnregisterGracePeriod(d time.Duration) RegistryOption {
	return func(c *config) {
		c.gracePeriod = d
	}
}

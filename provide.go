// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package svcrt

import (
	"go.uber.org/fx"

	"github.com/xmidt-org/svcrt/depmgr"
	"github.com/xmidt-org/svcrt/registry"
	"github.com/xmidt-org/svcrt/svcrtlog"
)

// New is the standard constructor for a ServiceRegistry, applying cfg
// followed by any number of options to tailor it further. This mirrors the
// teacher's praetor.New(api.Config, ...Option) shape, repointed at
// constructing a *registry.ServiceRegistry from a RegistryConfig instead
// of an api.Client from an api.Config.
func New(cfg RegistryConfig, logger svcrtlog.Logger, opts ...registry.RegistryOption) *registry.ServiceRegistry {
	all := make([]registry.RegistryOption, 0, len(opts)+2)

	if logger != nil {
		all = append(all, registry.WithLogger(logger))
	}

	if cfg.UnregisterGracePeriod > 0 {
		all = append(all, registry.WithUnregisterGracePeriod(cfg.UnregisterGracePeriod))
	}

	all = append(all, opts...)
	return registry.NewServiceRegistry(all...)
}

// Provide gives a very simple, opinionated way of using New and
// depmgr.New within an fx.App. It assumes a global, unnamed RegistryConfig
// optional dependency and zero or more registry.RegistryOptions in a value
// group named 'svcrt.options', mirroring praetor.Provide's
// 'consul.options' group exactly.
//
// Zero or more options external to the enclosing fx.App may be supplied to
// this function; they take precedence over injected options, same as the
// teacher's Provide.
//
// This provider emits a global, unnamed *registry.ServiceRegistry and
// *depmgr.DependencyManager.
func Provide(external ...registry.RegistryOption) fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg RegistryConfig, logger svcrtlog.Logger, injected ...registry.RegistryOption) *registry.ServiceRegistry {
					return New(cfg, logger, append(injected, external...)...)
				},
				fx.ParamTags(`optional:"true"`, `optional:"true"`, `group:"svcrt.options"`),
			),
		),
		fx.Provide(func(reg *registry.ServiceRegistry) *depmgr.DependencyManager {
			return depmgr.New(reg)
		}),
	)
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"

	"github.com/hashicorp/consul/api"
	"github.com/xmidt-org/retry"
	"go.uber.org/fx"

	"github.com/xmidt-org/svcrt/registry"
	"github.com/xmidt-org/svcrt/svcrtlog"
)

// Module assembles a Registrar, Health, and TTL manager on top of the
// *api.Client and *registry.ServiceRegistry already available in the
// fx.App, and binds the registrar's Register/Deregister and the TTL
// manager's Start/Stop to the application's lifecycle. translate decides
// which core registry registrations are mirrored to Consul and how.
//
// Callers still need Provide (for the *api.Client) and the root package's
// Provide (for the *registry.ServiceRegistry) in the same fx.App; Module
// only adds the glue between them.
func Module(rcfg retry.Config, translate Translator, logger svcrtlog.Logger) fx.Option {
	return fx.Options(
		fx.Provide(
			func(client *api.Client) AgentRegisterer { return client.Agent() },
			func(client *api.Client) AgentTTLer { return client.Agent() },
			NewDatacenters,
			func(reg *registry.ServiceRegistry) (ServiceExports, error) {
				return BuildExports(reg, translate)
			},
			func(ar AgentRegisterer, se ServiceExports) Registrar {
				return NewAgentRegistrar(ar, rcfg, se)
			},
			func(se ServiceExports) *Health { return NewHealth(se) },
			func(ttler AgentTTLer, h *Health, se ServiceExports) (*TTL, error) {
				return NewTTL(ttler, h, se, logger)
			},
		),
		fx.Invoke(BindRegistrar, bindTTL),
	)
}

// bindTTL starts t against the application's lifecycle on start and stops
// it on shutdown.
func bindTTL(t *TTL, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			t.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			t.Stop()
			return nil
		},
	})
}

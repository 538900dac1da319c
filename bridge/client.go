// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"github.com/hashicorp/consul/api"
	"go.uber.org/fx"
	"go.uber.org/multierr"
)

// Decorate returns a new consul client Config that results from applying
// any number of options to an existing Config. If no options are
// supplied, this function returns a clone of the original.
func Decorate(original api.Config, opts ...Option) (cfg api.Config, err error) {
	cfg = original
	for _, o := range opts {
		err = multierr.Append(err, o(&cfg))
	}

	return
}

// New is the standard constructor for a consul client. It allows for any
// number of options to tailor the configuration after the api.Config has
// been unmarshaled or obtained from some external source.
func New(cfg api.Config, opts ...Option) (c *api.Client, err error) {
	cfg, err = Decorate(cfg, opts...)
	if err == nil {
		c, err = api.NewClient(&cfg)
	}

	return
}

// NewFromConfig builds a consul client directly from this package's Config
// type, translating it to an api.Config via newAPIConfig before applying
// opts.
func NewFromConfig(cfg Config, opts ...Option) (*api.Client, error) {
	configurer := asAPIConfigurer[Config](newAPIConfig)

	acfg, err := configurer(cfg)
	if err != nil {
		return nil, err
	}

	return New(acfg, opts...)
}

// Provide gives a very simple, opinionated way of using New within an
// fx.App. It assumes a global, unnamed api.Config optional dependency and
// zero or more Options in a value group named 'bridge.options'.
//
// Zero or more options external to the enclosing fx.App may be supplied to
// this provider function. Any external options supplied here take
// precedence over injected options.
//
// This provider emits a global, unnamed *api.Client, along with the
// *api.Agent, *api.Catalog, and *api.Health obtained from it.
func Provide(external ...Option) fx.Option {
	ctor := New
	if len(external) > 0 {
		ctor = func(cfg api.Config, injected ...Option) (*api.Client, error) {
			return New(cfg, append(injected, external...)...)
		}
	}

	return fx.Provide(
		fx.Annotate(
			ctor,
			fx.ParamTags(`optional:"true"`, `group:"bridge.options"`),
		),
		(*api.Client).Agent,
		(*api.Client).Catalog,
		(*api.Client).Health,
	)
}

// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package bridge is a reference external collaborator for the core
// runtime: it mirrors a BundleContext's registrations into a Consul
// agent, demonstrating how a remote-service bridge (explicitly out of
// core scope, but named as a supportable external collaborator) is built
// on top of the core registry's contracts alone.
package bridge

import (
	"reflect"
	"time"

	"github.com/hashicorp/consul/api"
)

// APIConfigurer is a closure type that can translate a custom
// configuration object into a consul api.Config.
//
// The signature of this closure is flexible. It may return an *api.Config
// or an api.Config. However, it is always api.Config (the non-pointer
// type) that is consumed by this package. Additionally, this closure can
// return an optional second error result.
type APIConfigurer[T any] interface {
	~func(T) api.Config |
		~func(T) (api.Config, error) |
		~func(T) *api.Config |
		~func(T) (*api.Config, error)
}

// tryAsAPIConfigurer encapsulates an attempt to convert src into a target
// closure. If no conversion is possible, this function returns false.
func tryAsAPIConfigurer[F any](src reflect.Value) (f F, ok bool) {
	ft := reflect.TypeOf(f)
	if ok = src.CanConvert(ft); ok {
		f = src.Convert(ft).Interface().(F)
	}

	return
}

// asAPIConfigurer normalizes an APIConfigurer closure into a common
// signature.
func asAPIConfigurer[T any, F APIConfigurer[T]](f F) func(T) (api.Config, error) {
	fv := reflect.ValueOf(f)

	if af, ok := tryAsAPIConfigurer[func(T) *api.Config](fv); ok {
		return func(cfg T) (acfg api.Config, _ error) {
			if p := af(cfg); p != nil {
				acfg = *p
			}

			return
		}
	}

	if af, ok := tryAsAPIConfigurer[func(T) (*api.Config, error)](fv); ok {
		return func(cfg T) (acfg api.Config, err error) {
			var p *api.Config
			if p, err = af(cfg); p != nil {
				acfg = *p
			}

			return
		}
	}

	if af, ok := tryAsAPIConfigurer[func(T) api.Config](fv); ok {
		return func(cfg T) (api.Config, error) {
			return af(cfg), nil
		}
	}

	// at this point, there's only (1) possible type left
	af, _ := tryAsAPIConfigurer[func(T) (api.Config, error)](fv)
	return af
}

// BasicAuthConfig holds the HTTP basic authorization credentials for
// Consul.
type BasicAuthConfig struct {
	UserName string `json:"userName" yaml:"userName" mapstructure:"userName"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
}

// TLSConfig holds the TLS options supported by this bridge.
type TLSConfig struct {
	Address            string `json:"address" yaml:"address" mapstructure:"address"`
	CAFile             string `json:"caFile" yaml:"caFile" mapstructure:"caFile"`
	CAPath             string `json:"caPath" yaml:"caPath" mapstructure:"caPath"`
	CertificateFile    string `json:"certificateFile" yaml:"certificateFile" mapstructure:"certificateFile"`
	KeyFile            string `json:"keyFile" yaml:"keyFile" mapstructure:"keyFile"`
	InsecureSkipVerify bool   `json:"insecureSkipVerify" yaml:"insecureSkipVerify" mapstructure:"insecureSkipVerify"`
}

// Config is an easily unmarshalable configuration this package uses to
// create a consul api.Config. Fields in this struct mirror those of
// api.Config. newAPIConfig translates it into an api.Config, and
// NewFromConfig builds a client directly from it.
type Config struct {
	Scheme     string `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Address    string `json:"address" yaml:"address" mapstructure:"address"`
	PathPrefix string `json:"pathPrefix" yaml:"pathPrefix" mapstructure:"pathPrefix"`
	Datacenter string `json:"datacenter" yaml:"datacenter" mapstructure:"datacenter"`

	WaitTime time.Duration `json:"waitTime" yaml:"waitTime" mapstructure:"waitTime"`

	Token     string `json:"token" yaml:"token" mapstructure:"token"`
	TokenFile string `json:"tokenFile" yaml:"tokenFile" mapstructure:"tokenFile"`
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
	Partition string `json:"partition" yaml:"partition" mapstructure:"partition"`

	BasicAuth BasicAuthConfig `json:"basicAuth" yaml:"basicAuth" mapstructure:"basicAuth"`
	TLS       TLSConfig       `json:"tls" yaml:"tls" mapstructure:"tls"`

	// TTLCheckInterval is carried for configuration only: newAPIConfig and
	// TTL do not read it. TTL pushes each check's update on the interval
	// given by that check's own TTL duration.
	TTLCheckInterval time.Duration `json:"ttlCheckInterval" yaml:"ttlCheckInterval" mapstructure:"ttlCheckInterval"`
}

// newAPIConfig is an APIConfigurer that can be passed to asAPIConfigurer.
func newAPIConfig(src Config) (dst api.Config) {
	dst = api.Config{
		Scheme:     src.Scheme,
		Address:    src.Address,
		PathPrefix: src.PathPrefix,
		Datacenter: src.Datacenter,
		WaitTime:   src.WaitTime,
		Token:      src.Token,
		TokenFile:  src.TokenFile,
		Namespace:  src.Namespace,
		Partition:  src.Partition,
		TLSConfig: api.TLSConfig{
			Address:            src.TLS.Address,
			CAFile:             src.TLS.CAFile,
			CAPath:             src.TLS.CAPath,
			CertFile:           src.TLS.CertificateFile,
			KeyFile:            src.TLS.KeyFile,
			InsecureSkipVerify: src.TLS.InsecureSkipVerify,
		},
	}

	if len(src.BasicAuth.UserName) > 0 {
		dst.HttpAuth = &api.HttpBasicAuth{
			Username: src.BasicAuth.UserName,
			Password: src.BasicAuth.Password,
		}
	}

	return
}

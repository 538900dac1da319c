// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/consul/api"
	"go.uber.org/fx"
)

func ExampleProvide_simple() {
	fx.New(
		fx.NopLogger,
		fx.Supply(api.Config{}), // this consul client config can be obtained however desired
		Provide(),
		fx.Invoke(
			func(client *api.Client) {
				fmt.Println("client")
			},
			func(agent *api.Agent) {
				fmt.Println("agent")
			},
			func(agent *api.Catalog) {
				fmt.Println("catalog")
			},
			func(agent *api.Health) {
				fmt.Println("health")
			},
		),
	)

	// Output:
	// client
	// agent
	// catalog
	// health
}

func ExampleProvide_injectcustomclient() {
	fx.New(
		fx.NopLogger,
		fx.Supply(api.Config{Scheme: "https", Address: "foobar:8080"}),
		fx.Supply(
			&http.Client{Timeout: 5 * time.Minute},
		),
		fx.Decorate(
			func(original api.Config, customClient *http.Client) api.Config {
				original.HttpClient = customClient
				return original
			},
		),
		Provide(),
		fx.Invoke(
			func(client *api.Client) {
				fmt.Println("client")
			},
			func(agent *api.Agent) {
				fmt.Println("agent")
			},
		),
	)

	// Output:
	// client
	// agent
}

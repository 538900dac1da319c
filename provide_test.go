// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package svcrt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/xmidt-org/svcrt/depmgr"
	"github.com/xmidt-org/svcrt/registry"
	"github.com/xmidt-org/svcrt/svcrtlog"
)

type ProvideSuite struct {
	suite.Suite
}

func (suite *ProvideSuite) testNewNoOptions() {
	reg := New(RegistryConfig{}, nil)
	suite.NotNil(reg)
}

func (suite *ProvideSuite) testNewWithGracePeriod() {
	reg := New(RegistryConfig{UnregisterGracePeriod: time.Second}, svcrtlog.Discard())
	suite.NotNil(reg)
}

func (suite *ProvideSuite) TestNew() {
	suite.Run("NoOptions", suite.testNewNoOptions)
	suite.Run("WithGracePeriod", suite.testNewWithGracePeriod)
}

func (suite *ProvideSuite) testProvideDefault() {
	var (
		reg *registry.ServiceRegistry
		dm  *depmgr.DependencyManager
	)

	app := fxtest.New(
		suite.T(),
		Provide(),
		fx.Populate(&reg, &dm),
	)

	suite.NoError(app.Err())
	suite.NotNil(reg)
	suite.NotNil(dm)
}

func (suite *ProvideSuite) testProvideWithConfig() {
	var reg *registry.ServiceRegistry

	app := fxtest.New(
		suite.T(),
		fx.Supply(
			RegistryConfig{UnregisterGracePeriod: time.Second},
		),
		Provide(),
		fx.Populate(&reg),
	)

	suite.NoError(app.Err())
	suite.NotNil(reg)
}

func (suite *ProvideSuite) testProvideWithGroupedOptions() {
	var reg *registry.ServiceRegistry

	app := fxtest.New(
		suite.T(),
		fx.Supply(
			fx.Annotate(
				registry.WithUnregisterGracePeriod(2*time.Second),
				fx.ResultTags(`group:"svcrt.options"`),
			),
		),
		Provide(),
		fx.Populate(&reg),
	)

	suite.NoError(app.Err())
	suite.NotNil(reg)
}

func (suite *ProvideSuite) TestProvide() {
	suite.Run("Default", suite.testProvideDefault)
	suite.Run("WithConfig", suite.testProvideWithConfig)
	suite.Run("WithGroupedOptions", suite.testProvideWithGroupedOptions)
}

func TestProvide(t *testing.T) {
	suite.Run(t, new(ProvideSuite))
}

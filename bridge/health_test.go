// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/suite"

	"github.com/xmidt-org/svcrt/depmgr"
)

type HealthSuite struct {
	suite.Suite
}

func (suite *HealthSuite) newExports() ServiceExports {
	se, err := NewServiceExports(
		ServiceExport{
			ServiceID: 1,
			Name:      "a",
			ID:        "svc-a",
			Checks: []api.AgentServiceCheck{
				{CheckID: "chk-a", Status: api.HealthWarning, Notes: "starting"},
			},
		},
		ServiceExport{
			ServiceID: 2,
			Name:      "b",
			ID:        "svc-b",
			Checks:    []api.AgentServiceCheck{{CheckID: "chk-b"}},
		},
	)

	suite.Require().NoError(err)
	return se
}

func (suite *HealthSuite) TestNewHealthSeedsInitialState() {
	h := NewHealth(suite.newExports())

	state, err := h.GetCheck("chk-a")
	suite.NoError(err)
	suite.Equal(HealthWarning, state.Status)
	suite.Equal("starting", state.Notes)

	state, err = h.GetCheck("chk-b")
	suite.NoError(err)
	suite.Equal(HealthPassing, state.Status)
}

func (suite *HealthSuite) TestGetCheckUnknown() {
	h := NewHealth(suite.newExports())

	_, err := h.GetCheck("nope")
	suite.ErrorIs(err, ErrNoSuchCheckID)
}

func (suite *HealthSuite) TestSetCheck() {
	h := NewHealth(suite.newExports())

	suite.NoError(h.SetCheck("chk-a", HealthState{Status: HealthCritical, Notes: "down"}))

	state, err := h.GetCheck("chk-a")
	suite.NoError(err)
	suite.Equal(HealthCritical, state.Status)

	suite.ErrorIs(h.SetCheck("nope", HealthState{}), ErrNoSuchCheckID)
}

func (suite *HealthSuite) TestSetService() {
	h := NewHealth(suite.newExports())

	suite.NoError(h.SetService("svc-a", HealthState{Status: HealthPassing}))
	state, err := h.GetCheck("chk-a")
	suite.NoError(err)
	suite.Equal(HealthPassing, state.Status)

	suite.ErrorIs(h.SetService("nope", HealthState{}), ErrNoSuchAgentServiceID)
}

func (suite *HealthSuite) TestSetAll() {
	h := NewHealth(suite.newExports())

	h.Set(HealthState{Status: HealthMaint})

	var statuses []HealthStatus
	h.Each(func(agentServiceID string, checkID CheckID, state HealthState) {
		statuses = append(statuses, state.Status)
	})

	suite.Len(statuses, 2)
	for _, s := range statuses {
		suite.Equal(HealthMaint, s)
	}
}

func (suite *HealthSuite) TestStatusTextRoundTrip() {
	suite.Equal(api.HealthPassing, HealthPassing.StatusText())
	suite.Equal(api.HealthWarning, HealthWarning.StatusText())
	suite.Equal(api.HealthCritical, HealthCritical.StatusText())
	suite.Equal(api.HealthMaint, HealthMaint.StatusText())
	suite.Equal(api.HealthCritical, HealthStatus(99).StatusText())

	suite.Equal(HealthPassing, FromHealthStatusText(api.HealthPassing))
	suite.Equal(HealthWarning, FromHealthStatusText(api.HealthWarning))
	suite.Equal(HealthCritical, FromHealthStatusText(api.HealthCritical))
	suite.Equal(HealthCritical, FromHealthStatusText("garbage"))
}

func (suite *HealthSuite) TestComponentHealth() {
	suite.Equal(HealthPassing, ComponentHealth(depmgr.TrackingOptional))
	suite.Equal(HealthWarning, ComponentHealth(depmgr.Instantiated))
	suite.Equal(HealthCritical, ComponentHealth(depmgr.WaitingForRequired))
	suite.Equal(HealthCritical, ComponentHealth(depmgr.Stopping))
}

func TestHealth(t *testing.T) {
	suite.Run(t, new(HealthSuite))
}

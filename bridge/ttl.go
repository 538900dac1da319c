// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
	"go.uber.org/multierr"

	"github.com/xmidt-org/svcrt/svcrtlog"
)

const defaultTTLCheckInterval = 10 * time.Second

type ticker func(time.Duration) (<-chan time.Time, func())

func defaultTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// AgentTTLer describes the behavior of updating an Agent's TTL check.
type AgentTTLer interface {
	UpdateTTLOpts(checkID, output, status string, q *api.QueryOptions) error
}

type ttlCheck struct {
	agentServiceID string
	checkID        CheckID
	interval       time.Duration
	cancel         func()
}

// TTL manages pushing updates for every TTL check in an export bundle to
// a consul agent, in the background, on its own ticker per check.
type TTL struct {
	ttler  AgentTTLer
	health *Health
	logger svcrtlog.Logger

	lock   sync.Mutex
	ticker ticker
	checks []*ttlCheck
}

// NewTTL builds a TTL manager for every check in se that declares a TTL
// duration. Checks with a malformed TTL duration are reported via the
// returned error but do not prevent the remaining checks from being
// registered.
func NewTTL(ttler AgentTTLer, health *Health, se ServiceExports, logger svcrtlog.Logger) (t *TTL, err error) {
	if logger == nil {
		logger = svcrtlog.Discard()
	}

	t = &TTL{ttler: ttler, health: health, logger: logger, ticker: defaultTicker}

	se.EachCheck(func(agentServiceID string, checkID CheckID, check api.AgentServiceCheck) {
		if len(check.TTL) == 0 {
			return
		}

		interval, timeErr := time.ParseDuration(check.TTL)
		if timeErr != nil {
			err = multierr.Append(err, fmt.Errorf(
				"invalid TTL duration for service [%s] check [%s]: %s",
				agentServiceID, checkID, timeErr,
			))

			return
		}

		t.checks = append(t.checks, &ttlCheck{
			agentServiceID: agentServiceID,
			checkID:        checkID,
			interval:       interval,
		})
	})

	return
}

// Start launches one background goroutine per TTL check, each pushing the
// check's current Health state to the agent on its own interval until ctx
// is canceled or Stop is called.
func (t *TTL) Start(ctx context.Context) {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, c := range t.checks {
		c := c
		checkCtx, cancel := context.WithCancel(ctx)
		c.cancel = cancel

		go t.updateTTLTask(checkCtx, c)
	}
}

// Stop cancels every background TTL push goroutine started by Start.
func (t *TTL) Stop() {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, c := range t.checks {
		if c.cancel != nil {
			c.cancel()
		}
	}
}

// updateTTLTask runs on its own goroutine for the lifetime of checkCtx,
// pushing c's current Health state to the agent every c.interval. This is
// the background driver the original left as an empty stub.
func (t *TTL) updateTTLTask(ctx context.Context, c *ttlCheck) {
	tick, stop := t.ticker(c.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			state, err := t.health.GetCheck(c.checkID)
			if err != nil {
				continue
			}

			updateErr := t.ttler.UpdateTTLOpts(
				string(c.checkID),
				state.Notes,
				state.Status.StatusText(),
				new(api.QueryOptions).WithContext(ctx),
			)

			if updateErr != nil {
				t.logger.Warn("ttl update failed",
					svcrtlog.String("check_id", string(c.checkID)),
					svcrtlog.String("agent_service_id", c.agentServiceID),
					svcrtlog.Error(updateErr),
				)
			}
		}
	}
}

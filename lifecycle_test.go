package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceLog struct {
	calls []string
}

func (l *serviceLog) service(name string, startErr error) service {
	return service{
		name: name,
		start: func(context.Context) error {
			l.calls = append(l.calls, "start "+name)
			return startErr
		},
		stop: func(context.Context) error {
			l.calls = append(l.calls, "stop "+name)
			return nil
		},
	}
}

func TestStartAll_StopsStartedServicesOnFailure(t *testing.T) {
	log := &serviceLog{}
	services := []service{
		log.service("metrics server", nil),
		log.service("bot", errors.New("gateway refused")),
		log.service("never", nil),
	}

	err := startAll(context.Background(), services)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error starting bot")
	assert.Contains(t, err.Error(), "gateway refused")
	assert.Equal(t, []string{"start metrics server", "start bot", "stop metrics server"}, log.calls)
}

func TestStartAll_ThenStopAllInReverse(t *testing.T) {
	log := &serviceLog{}
	services := []service{log.service("metrics server", nil), log.service("bot", nil)}

	require.NoError(t, startAll(context.Background(), services))
	stopAll(context.Background(), services)

	assert.Equal(t, []string{"start metrics server", "start bot", "stop bot", "stop metrics server"}, log.calls)
}

func TestStopAll_KeepsGoingAfterAnError(t *testing.T) {
	log := &serviceLog{}
	failing := log.service("bot", nil)
	failing.stop = func(context.Context) error {
		log.calls = append(log.calls, "stop bot")
		return errors.New("already closed")
	}

	stopAll(context.Background(), []service{log.service("metrics server", nil), failing})

	assert.Equal(t, []string{"stop bot", "stop metrics server"}, log.calls)
}

package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ecommapi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	name     string
	startErr error
	stopped  atomic.Bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesOnCancel(t *testing.T) {
	api := &fakeService{name: "http"}
	worker := &fakeService{name: "worker"}
	runner := NewRunner(api, worker)
	cleaned := false
	runner.OnShutdown(func() error {
		cleaned = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	require.NoError(t, runner.Run(ctx, time.Second, nil))

	assert.True(t, api.stopped.Load())
	assert.True(t, worker.stopped.Load())
	assert.True(t, cleaned)
}

func TestRunnerReturnsFirstServiceError(t *testing.T) {
	boom := errors.New("listen failed")
	failing := &fakeService{name: "http", startErr: boom}
	healthy := &fakeService{name: "worker"}

	err := NewRunner(failing, healthy).Run(context.Background(), time.Second, nil)
	assert.ErrorIs(t, err, boom)
	assert.True(t, healthy.stopped.Load())
}

func TestRunnerWithoutServices(t *testing.T) {
	assert.Error(t, NewRunner().Run(context.Background(), time.Second, nil))
	assert.Error(t, RunWithOptions(nil, Options{}))
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	_, err := BuildRunner(&config.Config{}, "cron")
	assert.Error(t, err)
	_, err = BuildRunner(nil, ModeAll)
	assert.Error(t, err)
	assert.True(t, ValidMode(ModeWorker))
	assert.False(t, ValidMode(""))
}

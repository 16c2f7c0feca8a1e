package app

import (
	"errors"
	"fmt"

	"github.com/ecommapi/internal/cache"
	"github.com/ecommapi/internal/config"
	"github.com/ecommapi/internal/provider"
	"github.com/ecommapi/internal/router"
	"github.com/ecommapi/internal/worker"
)

// BuildRunner 按启动模式组装服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	container, err := provider.NewContainer(cfg)
	if err != nil {
		return nil, err
	}

	var services []Service
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server.Addr(), engine))
	}

	// worker 依赖队列；all 模式下队列未启用时通知走进程内发送，不启动 worker
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		if !cfg.Queue.Enabled {
			return nil, errors.New("worker mode requires queue.enabled")
		}
		consumer := worker.NewConsumer(container.OrderRepo, container.NotificationService)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.OnShutdown(container.QueueClient.Close)
	runner.OnShutdown(cache.Close)
	runner.OnShutdown(container.NotificationService.Wait)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"osulink/bridge"
)

// osulink 入口：读取配置、初始化日志，把游戏遥测桥接到串口设备
func main() {
	var cfgPath string
	pflag.StringVarP(&cfgPath, "config", "c", "", "path to YAML config; defaults are used when empty")
	pflag.Parse()

	cfg, err := bridge.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}
	// 使用第三方 zap 日志库写入滚动日志文件
	if err := bridge.InitLogger(cfg.Log); err != nil {
		panic(err)
	}
	defer bridge.SyncLogger()

	// 收到 Ctrl+C 时结束等待并退出进程
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := bridge.NewPipeline(cfg, bridge.OpenSerial, bridge.Log)

	if cfg.Status.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Status.Addr,
			Handler:           bridge.NewStatusHandler(p),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			bridge.Log.Infof("status listening on %s", cfg.Status.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				bridge.Log.Errorf("status listen: %v", err)
			}
		}()
	}

	bridge.Log.Infow("bridge starting",
		"telemetry", cfg.Telemetry.URL,
		"device", cfg.Device.Path,
		"baud", cfg.Device.Baud)

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		bridge.Log.Errorf("pipeline: %v", err)
		bridge.SyncLogger()
		os.Exit(1)
	}
	bridge.Log.Info("Shutting down...")
}

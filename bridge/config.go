package bridge

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值即原先写死在程序里的常量
const (
	DefaultTelemetryURL = "ws://localhost:24050/ws"
	DefaultDevicePath   = "/dev/ttyACM0"
	DefaultBaudRate     = 115200
	DefaultBackoff      = 5 * time.Second
	DefaultWriteTimeout = 50 * time.Millisecond
)

// Config 桥接进程的完整配置
type Config struct {
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Device    DeviceConfig    `yaml:"device"`
	Log       LogConfig       `yaml:"log"`
	Status    StatusConfig    `yaml:"status"`
}

// TelemetryConfig 遥测 websocket 连接参数
type TelemetryConfig struct {
	URL              string        `yaml:"url"`
	Backoff          time.Duration `yaml:"backoff"`
	HandshakeTimeout time.Duration `yaml:"handshakeTimeout"`
	// ReadTimeout 单条消息的读超时，0 表示不限制
	ReadTimeout time.Duration `yaml:"readTimeout"`
}

// DeviceConfig 串口设备参数
type DeviceConfig struct {
	Path         string        `yaml:"path"`
	Baud         int           `yaml:"baud"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	Backoff      time.Duration `yaml:"backoff"`
}

// LogConfig 日志输出参数
type LogConfig struct {
	File    string `yaml:"file"`
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// StatusConfig 只读状态接口；Addr 为空表示不启动
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig 返回全部使用默认值的配置
func DefaultConfig() Config {
	return Config{
		Telemetry: TelemetryConfig{
			URL:              DefaultTelemetryURL,
			Backoff:          DefaultBackoff,
			HandshakeTimeout: 10 * time.Second,
		},
		Device: DeviceConfig{
			Path:         DefaultDevicePath,
			Baud:         DefaultBaudRate,
			WriteTimeout: DefaultWriteTimeout,
			Backoff:      DefaultBackoff,
		},
		Log: LogConfig{
			File:  "osulink.log",
			Level: "debug",
		},
	}
}

// LoadConfig 读取 YAML 配置文件；path 为空时直接返回默认配置。
// 文件中缺省的字段保留默认值。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate 检查配置是否可用
func (c Config) Validate() error {
	u, err := url.Parse(c.Telemetry.URL)
	if err != nil {
		return fmt.Errorf("telemetry.url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("telemetry.url: unsupported scheme %q", u.Scheme)
	}
	if c.Telemetry.Backoff <= 0 {
		return errors.New("telemetry.backoff must be positive")
	}
	if c.Telemetry.ReadTimeout < 0 {
		return errors.New("telemetry.readTimeout must not be negative")
	}
	if c.Device.Path == "" {
		return errors.New("device.path is empty")
	}
	if c.Device.Baud <= 0 {
		return errors.New("device.baud must be positive")
	}
	if c.Device.WriteTimeout <= 0 {
		return errors.New("device.writeTimeout must be positive")
	}
	if c.Device.Backoff <= 0 {
		return errors.New("device.backoff must be positive")
	}
	return nil
}

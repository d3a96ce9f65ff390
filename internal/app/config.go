// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/screen-connect-controller/internal/dao"
	"github.com/haierkeys/screen-connect-controller/internal/identity"
	"github.com/haierkeys/screen-connect-controller/pkg/transport"
	"github.com/haierkeys/screen-connect-controller/pkg/util"
	"github.com/haierkeys/screen-connect-controller/pkg/workerpool"
	"github.com/haierkeys/screen-connect-controller/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File       string             `yaml:"-"` // 配置文件路径，不序列化
	Server     ServerConfig       `yaml:"server"`
	Log        LogConfig          `yaml:"log"`
	Controller ControllerConfig   `yaml:"controller"`
	Transport  TransportConfig    `yaml:"transport"`
	Identity   identity.Config    `yaml:"identity"`
	Database   dao.DatabaseConfig `yaml:"database"`
	App        AppSettings        `yaml:"app"`
	Tracer     TracerConfig       `yaml:"tracer"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 本地控制接口配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:"127.0.0.1:9300"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址（metrics / pprof），为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9301"`
}

// ControllerConfig which display to pair with and where it lives
// ControllerConfig 要配对的显示端及其服务地址
type ControllerConfig struct {
	// ServerURL 显示端服务地址，ws:// 或 wss://
	ServerURL string `yaml:"server-url" default:"ws://localhost:8082"`
	// DisplayID 目标显示端 ID
	DisplayID string `yaml:"display-id"`
	// Lang 视图语言 en / zh
	Lang string `yaml:"lang" default:"en"`
}

// TransportConfig 传输配置
type TransportConfig struct {
	// Type krmx / memory
	Type string `yaml:"type" default:"krmx"`
	// HandshakeTimeout 握手超时，如 10s
	HandshakeTimeout string `yaml:"handshake-timeout" default:"10s"`
	// PingInterval 心跳间隔，如 25s
	PingInterval string `yaml:"ping-interval" default:"25s"`
	// ReadMaxPayloadSize 单条消息最大字节数
	ReadMaxPayloadSize int `yaml:"read-max-payload-size" default:"65536"`
	// CommandTimeout 单条命令超时，如 15s
	CommandTimeout string `yaml:"command-timeout" default:"15s"`
	// AutoAdvance memory 传输是否模拟服务端推进状态
	AutoAdvance bool `yaml:"auto-advance" default:"true"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// IsReturnSussess 是否返回成功信息
	IsReturnSussess bool `yaml:"is-return-sussess" default:"true"`
	// ApiRateLimit 控制接口每秒请求数，0 表示不限制
	ApiRateLimit int64 `yaml:"api-rate-limit" default:"20"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"4"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"64"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"16"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"5s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// ValidateController checks the pairing target before anything dials out
// ValidateController 在拨号前检查配对目标
func (c *AppConfig) ValidateController() error {
	if strings.TrimSpace(c.Controller.DisplayID) == "" {
		return errors.New("controller.display-id is required")
	}
	if strings.Contains(c.Controller.DisplayID, "/") {
		return errors.Errorf("controller.display-id %q must not contain '/'", c.Controller.DisplayID)
	}
	if c.Transport.Type == "memory" {
		return nil
	}
	if c.Transport.Type != "krmx" {
		return errors.Errorf("transport.type %q is not supported", c.Transport.Type)
	}
	u, err := url.Parse(c.Controller.ServerURL)
	if err != nil {
		return errors.Wrap(err, "parse controller.server-url failed")
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errors.Errorf("controller.server-url scheme %q, want ws or wss", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("controller.server-url has no host")
	}
	return nil
}

// GetKrmxConfig 获取 krmx 传输配置
func (c *AppConfig) GetKrmxConfig() transport.KrmxConfig {
	return transport.KrmxConfig{
		HandshakeTimeout:   util.ParseDurationOr(c.Transport.HandshakeTimeout, 10*time.Second),
		PingInterval:       util.ParseDurationOr(c.Transport.PingInterval, 25*time.Second),
		ReadMaxPayloadSize: c.Transport.ReadMaxPayloadSize,
	}
}

// GetCommandTimeout 获取单条命令超时
func (c *AppConfig) GetCommandTimeout() time.Duration {
	return util.ParseDurationOr(c.Transport.CommandTimeout, 15*time.Second)
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}
	// 命令自身带超时，池的超时只作为上限
	if timeout := c.GetCommandTimeout(); timeout > cfg.TaskTimeout {
		cfg.TaskTimeout = timeout
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if c.App.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}
	if c.App.WriteQueueIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil {
			cfg.IdleTimeout = idleTime
		}
	}

	return cfg
}

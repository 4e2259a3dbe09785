package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ClientConfig REQ 客户端配置
type ClientConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	DialTimeout time.Duration `mapstructure:"dialTimeout"`
}

// ControllerConfig 模拟控制器配置
type ControllerConfig struct {
	Listen     string `mapstructure:"listen"`
	RuntimeDir string `mapstructure:"runtimeDir"`
	NumTTL     int    `mapstructure:"numTTL"`
	NumDDS     int    `mapstructure:"numDDS"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// LumberjackConfig 日志滚动（lumberjack）配置，Filename 为空时不写文件
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	Output string           `mapstructure:"output"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// Config 顶层配置结构
type Config struct {
	Client     ClientConfig     `mapstructure:"client"`
	Controller ControllerConfig `mapstructure:"controller"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// flagKeys 命令行参数名 -> 配置键
var flagKeys = map[string]string{
	"timeout":      "client.timeout",
	"dial-timeout": "client.dialTimeout",
	"log-level":    "logging.level",
	"listen":       "controller.listen",
	"runtime-dir":  "controller.runtimeDir",
	"http-addr":    "http.addr",
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 MOLECUBE_CONFIG 读取；否则在 . ./configs /etc/molecube 下查找 molecube.yaml。
func Load(path string) (*Config, error) {
	return LoadWithFlags(path, nil)
}

// LoadWithFlags 同 Load，命令行中显式给出的参数优先级最高
func LoadWithFlags(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 环境变量覆盖：前缀 MOLECUBE_，并将点号替换为下划线
	v.SetEnvPrefix("MOLECUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG")
	}

	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/molecube")
		v.SetConfigName("molecube")
		v.SetConfigType("yaml")
	}

	// 默认值
	setDefaults(v)

	if fs != nil {
		if err := BindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// 未指定文件时允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BindFlags 将 fs 中已定义的已知参数绑定到对应配置键
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	if c.Client.Timeout < 0 {
		return fmt.Errorf("client.timeout must not be negative: %s", c.Client.Timeout)
	}
	if c.Controller.NumTTL <= 0 || c.Controller.NumTTL > 256 {
		return fmt.Errorf("controller.numTTL out of range [1, 256]: %d", c.Controller.NumTTL)
	}
	// 通道号只有 6 位
	if c.Controller.NumDDS <= 0 || c.Controller.NumDDS > 64 {
		return fmt.Errorf("controller.numDDS out of range [1, 64]: %d", c.Controller.NumDDS)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.timeout", "5s")
	v.SetDefault("client.dialTimeout", "3s")

	v.SetDefault("controller.listen", "tcp://*:7777")
	v.SetDefault("controller.runtimeDir", "/var/lib/molecube/")
	v.SetDefault("controller.numTTL", 32)
	v.SetDefault("controller.numDDS", 22)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")
}

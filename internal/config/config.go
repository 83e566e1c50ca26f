package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Client   ClientConfig   `toml:"client"`
	Network  NetworkConfig  `toml:"network"`
	Protocol ProtocolConfig `toml:"protocol"`
	Data     DataConfig     `toml:"data"`
	View     ViewConfig     `toml:"view"`
	Control  ControlConfig  `toml:"control"`
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
	Script   ScriptConfig   `toml:"script"`
}

type ClientConfig struct {
	Name   string `toml:"name"`
	Server string `toml:"server"` // host:port, ws://host:port/path or wss://...
	Group  uint8  `toml:"group"`  // requested right after connecting
}

type NetworkConfig struct {
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
	Linger         time.Duration `toml:"linger"` // how long Close waits for queued output
	TickRate       time.Duration `toml:"tick_rate"`
	InQueueSize    int           `toml:"in_queue_size"`
	OutQueueSize   int           `toml:"out_queue_size"`
}

type ProtocolConfig struct {
	Key     uint64 `toml:"key"`     // 0 = derive from the metadata files
	Charset string `toml:"charset"` // WHATWG label for wire strings
}

type DataConfig struct {
	UnitList   string `toml:"unit_list"`
	EffectList string `toml:"effect_list"`
	MapList    string `toml:"map_list"`
}

type ViewConfig struct {
	Width       float32 `toml:"width"`
	Height      float32 `toml:"height"`
	SpawnHeight float32 `toml:"spawn_height"`
	Clearance   float32 `toml:"clearance"`
	EdgeSpeed   float32 `toml:"edge_speed"`
}

type ControlConfig struct {
	AutoTargetInterval time.Duration `toml:"auto_target_interval"`
	MoveReliableMax    int           `toml:"move_reliable_max"`
	MoveDedup          time.Duration `toml:"move_dedup"`
	DeadGrace          time.Duration `toml:"dead_grace"` // 0 = keep dead units until the server drops them
	AOICell            float32       `toml:"aoi_cell"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty = no match journal
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type ScriptConfig struct {
	Path     string        `toml:"path"` // empty = no bot
	Interval time.Duration `toml:"interval"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	if c.Client.Server == "" {
		return fmt.Errorf("client.server is required")
	}
	if c.Network.TickRate <= 0 {
		return fmt.Errorf("network.tick_rate must be positive")
	}
	if c.Control.DeadGrace < 0 {
		return fmt.Errorf("control.dead_grace must not be negative")
	}
	if c.View.Width <= 0 || c.View.Height <= 0 {
		return fmt.Errorf("view size %vx%v must be positive", c.View.Width, c.View.Height)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Client: ClientConfig{
			Name:   "tfl-client",
			Server: "127.0.0.1:23333",
			Group:  1,
		},
		Network: NetworkConfig{
			ConnectTimeout: 500 * time.Millisecond,
			WriteTimeout:   10 * time.Second,
			Linger:         500 * time.Millisecond,
			TickRate:       16 * time.Millisecond,
			InQueueSize:    256,
			OutQueueSize:   256,
		},
		Protocol: ProtocolConfig{
			Charset: "utf-8",
		},
		Data: DataConfig{
			UnitList:   "data/yaml/unit_list.yaml",
			EffectList: "data/yaml/effect_list.yaml",
			MapList:    "data/yaml/map_list.yaml",
		},
		View: ViewConfig{
			Width:       1280,
			Height:      720,
			SpawnHeight: 200,
			Clearance:   100,
			EdgeSpeed:   0.001,
		},
		Control: ControlConfig{
			AutoTargetInterval: 500 * time.Millisecond,
			MoveReliableMax:    16,
			MoveDedup:          100 * time.Millisecond,
			AOICell:            64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    2,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Script: ScriptConfig{
			Interval: 500 * time.Millisecond,
		},
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Transport roles selectable at construction time.
const (
	RoleListen  = "listen"
	RoleConnect = "connect"
)

type Config struct {
	Bridge BridgeConfig `mapstructure:"bridge"`
	Engine EngineConfig `mapstructure:"engine"`
	Robot  RobotConfig  `mapstructure:"robot"`
	API    APIConfig    `mapstructure:"api"`
}

type BridgeConfig struct {
	Role string `mapstructure:"role"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Path string `mapstructure:"path"`
}

type EngineConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	NominalVoltage  float64       `mapstructure:"nominal_voltage"`
	DSPacketTimeout time.Duration `mapstructure:"ds_packet_timeout"`
}

type RobotConfig struct {
	Profile string `mapstructure:"profile"`
}

type APIConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("bridge.role", RoleListen)
	viper.SetDefault("bridge.host", "0.0.0.0")
	viper.SetDefault("bridge.port", 3300)
	viper.SetDefault("bridge.path", "/wpilibws")

	// The poll interval and the counterpart's send cadence are independent
	// tuning knobs; only the former lives here.
	viper.SetDefault("engine.poll_interval", "50ms")
	viper.SetDefault("engine.nominal_voltage", 12.0)
	viper.SetDefault("engine.ds_packet_timeout", "1s")

	viper.SetDefault("robot.profile", "configs/profiles/virtual.yaml")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.port", 8080)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("WSROBOT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Bridge.Role != RoleListen && config.Bridge.Role != RoleConnect {
		return nil, fmt.Errorf("invalid bridge role %q (want %q or %q)",
			config.Bridge.Role, RoleListen, RoleConnect)
	}

	return &config, nil
}

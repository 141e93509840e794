package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/ftp4you/f4y"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	FTP4You FTP4YouConfig `mapstructure:"ftp4you"`
}

// FTP4YouConfig stores ftp4you specific configurations.
type FTP4YouConfig struct {
	Endpoint   EndpointConfig `mapstructure:"endpoint"`
	Transfer   TransferConfig `mapstructure:"transfer"`
	Monitor    MonitorConfig  `mapstructure:"monitor"`
	CacheDir   string         `mapstructure:"cacheDir"`
	StagingDir string         `mapstructure:"stagingDir"`
}

// EndpointConfig stores the remote endpoint details.
type EndpointConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	User                  string `mapstructure:"user"`
	Password              string `mapstructure:"password"`
	DialTimeoutSeconds    int    `mapstructure:"dialTimeoutSeconds"`
	CommandTimeoutSeconds int    `mapstructure:"commandTimeoutSeconds"`
}

// DialTimeout returns the dial timeout as a duration.
func (e EndpointConfig) DialTimeout() time.Duration {
	return time.Duration(e.DialTimeoutSeconds) * time.Second
}

// TransferConfig stores transfer behavior flags. The two follow-symlink flags
// are independent.
type TransferConfig struct {
	FollowSymlinksForSize        bool     `mapstructure:"followSymlinksForSize"`
	FollowSymlinksForPermissions bool     `mapstructure:"followSymlinksForPermissions"`
	ScanWorkers                  int      `mapstructure:"scanWorkers"`
	IgnorePatterns               []string `mapstructure:"ignorePatterns"`
}

// MonitorConfig stores health monitor configurations.
type MonitorConfig struct {
	PollIntervalSeconds int `mapstructure:"pollIntervalSeconds"`
}

// PollInterval returns the poll interval as a duration.
func (m MonitorConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("ftp4you.endpoint.port", internal.DefaultFTPPort)
	viper.SetDefault("ftp4you.endpoint.user", "anonymous")
	viper.SetDefault("ftp4you.endpoint.dialTimeoutSeconds", int(internal.DefaultDialTimeout/time.Second))
	viper.SetDefault("ftp4you.endpoint.commandTimeoutSeconds", int(internal.DefaultCommandTimeout/time.Second))
	viper.SetDefault("ftp4you.transfer.followSymlinksForSize", false)
	viper.SetDefault("ftp4you.transfer.followSymlinksForPermissions", false)
	viper.SetDefault("ftp4you.monitor.pollIntervalSeconds", int(internal.DefaultPollInterval/time.Second))
	viper.SetDefault("ftp4you.cacheDir", internal.DefaultCacheDir)
	viper.SetDefault("ftp4you.stagingDir", internal.DefaultStagingDir)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // ftp4you.endpoint.host becomes FTP4YOU_ENDPOINT_HOST

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}

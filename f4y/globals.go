package internal

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var (
	// DefaultConfigPath is the default path to the config file
	DefaultAppName        = "ftp4you"
	DefaultConfigPath     = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultCacheDir       = filepath.Join(DefaultConfigPath, ".cache")
	DefaultStagingDir     = filepath.Join(DefaultCacheDir, "staging")
	DefaultIgnoreFileName = "." + DefaultAppName + "-ignore"

	// Default connection settings
	DefaultFTPPort        = 21
	DefaultDialTimeout    = 30 * time.Second
	DefaultCommandTimeout = 15 * time.Second
	DefaultPollInterval   = 10 * time.Second
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			// Last resort - use tmp directory
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

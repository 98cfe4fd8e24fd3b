package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const configFileHeader = `# ytdl configuration.
# Values here are overridden by YTDL_* environment variables and CLI flags.

`

// Defaults returns a Config populated with every default value.
func Defaults() Config {
	return Config{
		SavePath:        DefaultSavePath,
		BinDir:          DefaultBinDir,
		DatabasePath:    DefaultDatabasePath,
		BleveIndexPath:  DefaultBleveIndexPath,
		ListenAddr:      DefaultListenAddr,
		MaxDurationSec:  DefaultMaxDurationSec,
		ProbeTimeoutSec: DefaultProbeTimeoutSec,
		FetchTimeoutSec: DefaultFetchTimeoutSec,
		InterJobPauseMs: DefaultInterJobPauseMs,
		BatchLimit:      DefaultBatchLimit,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
	}
}

// WriteDefault writes a commented default config file to path. Refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(configFileHeader); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(Defaults()); err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	return nil
}

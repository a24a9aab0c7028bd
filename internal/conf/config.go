// config.go: defines the settings struct and functions to load the settings.
package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/karasolutions/mediascan-go/internal/errors"
)

// LogConfig holds settings for a component log file.
type LogConfig struct {
	Enabled    bool   // true to write a log file
	Path       string // path to the log file
	MaxSize    int    // rotate after this many megabytes
	MaxBackups int    // rotated files to keep
	MaxAge     int    // days to retain rotated files
}

// MainSettings contains process wide settings.
type MainSettings struct {
	Name string    // instance name, included in log records
	Log  LogConfig // log file settings
}

// InputSettings describes where the scraped media images live.
type InputSettings struct {
	Path      string // path to the directory containing images
	Recursive bool   // true to descend into subdirectories
}

// DetectorSettings contains settings for the object detection model.
type DetectorSettings struct {
	ModelPath  string  // path to the TFLite model file
	InputSize  int     // model input square size in pixels
	Threshold  float64 // minimum confidence for a detection to be kept
	IoU        float64 // IoU threshold for non-maximum suppression
	Threads    int     // interpreter thread count, 0 for automatic
	UseXNNPACK bool    // true to enable the XNNPACK delegate
}

// SQLiteSettings contains settings for the SQLite backend.
type SQLiteSettings struct {
	Enabled bool
	Path    string // path to the database file
}

// MySQLSettings contains settings for the MySQL backend.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// OutputSettings selects and configures the relational store.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// HTTPSettings contains settings for the message API server.
type HTTPSettings struct {
	Port string // port to listen on
}

// Settings is the top level configuration passed to components.
type Settings struct {
	Debug bool // enables debug level logging

	Main     MainSettings
	Input    InputSettings
	Detector DetectorSettings
	Output   OutputSettings
	HTTP     HTTPSettings
}

// Load reads the configuration file and environment into a Settings struct.
// An empty configPath falls back to the default search paths. A missing
// config file is not an error, defaults and environment apply.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MEDIASCAN")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "mediascan"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.New(fmt.Errorf("reading config file: %w", err)).
				Component("configuration").
				Category(errors.CategoryConfiguration).
				Context("config_path", configPath).
				Build()
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("unmarshaling config: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// ValidateSettings checks the loaded settings for inconsistencies.
func ValidateSettings(settings *Settings) error {
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return errors.Newf("only one database output may be enabled at a time").
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return errors.Newf("no database output enabled, enable output.sqlite or output.mysql").
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.Newf("output.sqlite.path must not be empty").
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}
	if settings.Detector.Threshold < 0 || settings.Detector.Threshold > 1 {
		return errors.Newf("detector.threshold must be between 0.0 and 1.0, got %.2f", settings.Detector.Threshold).
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}
	if settings.Detector.IoU <= 0 || settings.Detector.IoU > 1 {
		return errors.Newf("detector.iou must be between 0.0 and 1.0, got %.2f", settings.Detector.IoU).
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

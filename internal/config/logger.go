package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig configures console and file logging. Console output always
// goes to stderr; stdout is reserved for generated documents.
type LoggingConfig struct {
	// Level is the console level: debug, info, warn, error or none.
	// Default: "info"
	Level string `mapstructure:"level"`

	// File is an optional log file path.
	File string `mapstructure:"file"`

	// FileLevel is the file level, same values as Level.
	// Default: "debug"
	FileLevel string `mapstructure:"file_level"`

	// FileMode is "append" or "overwrite".
	// Default: "append"
	FileMode string `mapstructure:"file_mode"`
}

func (conf LoggingConfig) validate() error {
	for _, lvl := range []string{conf.Level, conf.FileLevel} {
		if _, _, err := parseLevel(lvl); err != nil {
			return err
		}
	}
	switch conf.FileMode {
	case "", "append", "overwrite":
		return nil
	default:
		return fmt.Errorf("logging.file_mode must be append or overwrite, got %q", conf.FileMode)
	}
}

func parseLevel(name string) (zapcore.Level, bool, error) {
	switch name {
	case "", "info":
		return zapcore.InfoLevel, true, nil
	case "debug":
		return zapcore.DebugLevel, true, nil
	case "warn":
		return zapcore.WarnLevel, true, nil
	case "error":
		return zapcore.ErrorLevel, true, nil
	case "none":
		return zapcore.InfoLevel, false, nil
	default:
		return zapcore.InfoLevel, false, fmt.Errorf("unknown log level %q", name)
	}
}

// Prepare returns the configured zap logger.
func (conf *LoggingConfig) Prepare() (*zap.Logger, error) {
	cores := make([]zapcore.Core, 0, 2)

	lvl, enabled, err := parseLevel(conf.Level)
	if err != nil {
		return nil, err
	}
	if enabled {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), lvl))
	}

	if conf.File != "" {
		fileLvl, fileEnabled, err := parseLevel(conf.FileLevel)
		if err != nil {
			return nil, err
		}
		if fileEnabled {
			f, err := openLogFile(conf.File, conf.FileMode)
			if err != nil {
				return nil, fmt.Errorf("unable to access log file (%s): %w", conf.File, err)
			}
			enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
			cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(f), fileLvl))
		}
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named("edigen"), nil
}

func openLogFile(name, mode string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, err
	}
	flags := os.O_CREATE | os.O_WRONLY
	if mode == "overwrite" {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	return os.OpenFile(name, flags, 0644)
}

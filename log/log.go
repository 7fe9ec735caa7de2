/*
Package log is a configurable module logger built on zerolog
(https://github.com/rs/zerolog).

The logger is configured through a toml file read by viper. All fields are
optional and default to sensible values:

	# default level for all modules; debug/info/warn/error/fatal/panic
	level = "info"

	# output formatter; console, console_no_color or json
	formatter = "json"

	# print source file and line
	caller = false

	# timestamp format, e.g. "3:04 PM" (see time/format.go)
	timefieldformat = ""

	# per-module level overrides
	[dispute]
	level = "debug"

The file is searched as "l2dispute-log.toml" next to the binary, or at the
path given by the L2DISPUTE_LOGCONFIG environment variable.
*/
package log

import (
	"os"
	"strings"
	"sync"

	colorable "github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	confFilePathKey     = "LOGCONFIG"
	confEnvPrefix       = "L2DISPUTE"
	defaultConfFileName = "l2dispute-log"
)

var (
	baseLogger  = zerolog.New(os.Stderr)
	baseLevel   = zerolog.InfoLevel
	logInitLock sync.Mutex
	isLogInit   = false
	viperConf   = viper.New()
)

func loadConfigFile() {
	viperConf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperConf.SetEnvPrefix(confEnvPrefix)
	viperConf.AutomaticEnv()

	viperConf.SetConfigType("toml")
	viperConf.SetConfigName(defaultConfFileName)
	viperConf.AddConfigPath(".")

	if confFilePath := viperConf.GetString(confFilePathKey); confFilePath != "" {
		viperConf.SetConfigFile(confFilePath)
	}

	err := viperConf.ReadInConfig()
	if err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			baseLogger.Error().Err(err).Msg("Fail to read the logger config file")
		}
	}
}

func initLog() {
	if format := viperConf.GetString("timefieldformat"); format != "" {
		zerolog.TimeFieldFormat = format
	}

	out := os.Stderr
	switch strings.ToLower(viperConf.GetString("formatter")) {
	case "", "json":
		baseLogger = baseLogger.Output(out)
	case "console":
		baseLogger = baseLogger.Output(
			zerolog.ConsoleWriter{Out: colorable.NewColorable(out), NoColor: false, TimeFormat: zerolog.TimeFieldFormat})
	case "console_no_color":
		baseLogger = baseLogger.Output(
			zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: zerolog.TimeFieldFormat})
	default:
		baseLogger.Warn().Str("formatter", viperConf.GetString("formatter")).
			Msg("Invalid formatter. Only allowed; console/console_no_color/json")
	}

	if viperConf.GetBool("caller") {
		baseLogger = baseLogger.With().Caller().Logger()
	}

	level := viperConf.GetString("level")
	zLevel := zerolog.InfoLevel
	if level != "" {
		var err error
		if zLevel, err = zerolog.ParseLevel(level); err != nil {
			baseLogger.Warn().Err(err).Msg("Fail to parse the default log level, using info")
			zLevel = zerolog.InfoLevel
		}
	}

	baseLogger = baseLogger.With().Timestamp().Logger().Level(zLevel)
	baseLevel = zLevel
}

// NewLogger creates a logger tagged with the given module name, applying
// any per-module level override from the config file.
func NewLogger(moduleName string) *zerolog.Logger {
	logInitLock.Lock()
	defer logInitLock.Unlock()

	if !isLogInit {
		loadConfigFile()
		initLog()
		isLogInit = true
	}

	zLogger := baseLogger.With().Str("module", moduleName).Logger()
	if subConf := viperConf.Sub(moduleName); subConf != nil {
		if level := subConf.GetString("level"); level != "" {
			zLevel, err := zerolog.ParseLevel(level)
			if err != nil {
				zLevel = baseLevel
			}
			zLogger = zLogger.Level(zLevel)
		}
	}
	return &zLogger
}

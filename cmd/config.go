package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"settingsync.dev/pkg/settingsync/internal/adapter"
	"settingsync.dev/pkg/settingsync/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "settingsync"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	configDirFlagName = "config-dir"
	apiURLFlagName    = "api-url"
	gistIDFlagName    = "gist-id"
	tokenFlagName     = "token"
	verboseFlagName   = "verbose"
	tuiFlagName       = "tui"

	configDirKey             = "config-dir"
	apiURLKey                = "api-url"
	gistIDKey                = "gist-id"
	tokenKey                 = "token"
	tuiKey                   = "tui"
	packageManagerCommandKey = "package-manager.command"
	packageManagerTimeoutKey = "package-manager.timeout"

	defaultEditorDirName         = ".atom"
	defaultPackageManagerCommand = "apm"
	defaultTUI                   = true

	envPrefix     = "SETTINGSYNC"
	editorHomeEnv = "ATOM_HOME"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var defaultLogFilename = filepath.Join(os.TempDir(), "settingsync.log")

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", configBaseName))
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Unprefixed names the editor integration has always honoured.
	cobra.CheckErr(viper.BindEnv(configDirKey, envPrefix+"_CONFIG_DIR", editorHomeEnv))
	cobra.CheckErr(viper.BindEnv(gistIDKey, envPrefix+"_GIST_ID", domain.EnvGistID))
	cobra.CheckErr(viper.BindEnv(tokenKey, envPrefix+"_TOKEN", domain.EnvGitHubToken))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(configDirKey, defaultConfigDir())
	viper.SetDefault(apiURLKey, adapter.DefaultGistAPIURL)
	viper.SetDefault(tuiKey, defaultTUI)
	viper.SetDefault(packageManagerCommandKey, defaultPackageManagerCommand)
	viper.SetDefault(packageManagerTimeoutKey, int64(adapter.DefaultPackageManagerTimeout.Seconds()))

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		slog.Warn("failed to read config file", "error", err)
	}
}

// defaultConfigDir is ~/.atom, or a relative .atom when the home directory is
// unknown.
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultEditorDirName
	}

	return filepath.Join(home, defaultEditorDirName)
}

func packageManagerTimeout() time.Duration {
	seconds := viper.GetInt64(packageManagerTimeoutKey)
	if seconds <= 0 {
		return adapter.DefaultPackageManagerTimeout
	}

	return time.Duration(seconds) * time.Second
}

// envFallback serves the gist id and token from flags, the environment or
// settingsync.yaml when the editor configuration has none.
func envFallback(name string) string {
	switch name {
	case domain.EnvGistID:
		return viper.GetString(gistIDKey)
	case domain.EnvGitHubToken:
		return viper.GetString(tokenKey)
	default:
		return os.Getenv(name)
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

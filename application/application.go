package application

import (
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/danmu-serde/pkg/config"
	zlog "github.com/lk2023060901/danmu-serde/pkg/log"
	"github.com/lk2023060901/danmu-serde/pkg/metrics"
	"github.com/lk2023060901/danmu-serde/pkg/serde"
)

const (
	// ConfigPathEnv overrides the default config file location.
	ConfigPathEnv = "SERDE_CONFIG_FILE_PATH"

	defaultConfigPath = "./config.yaml"

	// serdeLoggerName is the "logging" entry used for the serializer's logger.
	serdeLoggerName = "serde"
)

// Application is the runtime container for a serde process.
// It owns configuration, loggers and the configured Serializer.
type Application struct {
	cfg        *config.Config
	loggers    map[string]*zlog.MLogger
	serializer *serde.Serializer
	registerer prometheus.Registerer
}

// Option customizes an Application.
type Option func(a *Application)

// WithRegisterer sets the Prometheus registerer used when metrics are enabled.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(a *Application) {
		a.registerer = r
	}
}

// New creates a new Application instance.
func New(opts ...Option) *Application {
	a := &Application{
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run parses os.Args and starts the application.
func (a *Application) Run() error {
	return a.RunWithArgs(os.Args[1:])
}

// RunWithArgs loads configuration, initializes logging and metrics, and builds
// the Serializer. The config file is resolved with the following priority:
//  1. Default: ./config.yaml (skipped when missing)
//  2. Env: SERDE_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
func (a *Application) RunWithArgs(args []string) error {
	cfg, err := a.loadConfig(args)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	if cfg.Metrics.Enable {
		metrics.Register(a.registerer)
	}

	s, err := serde.NewFromConfig(cfg.Serde, serde.WithLogger(a.Logger(serdeLoggerName)))
	if err != nil {
		return fmt.Errorf("create serializer: %w", err)
	}
	a.serializer = s

	zlog.Info("serde application started",
		zlog.FieldFormat(s.Format().Name()),
		zlog.FieldComponent("application"))
	return nil
}

// Close releases resources held by the application.
func (a *Application) Close() {
	if a.serializer != nil {
		a.serializer.Close()
	}
	_ = zlog.Sync()
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *config.Config {
	return a.cfg
}

// Serializer returns the Serializer built from configuration.
func (a *Application) Serializer() *serde.Serializer {
	return a.serializer
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return zlog.With(zlog.FieldModule(name))
}

// loadConfig resolves the config file path and loads it through pkg/config.
func (a *Application) loadConfig(args []string) (*config.Config, error) {
	configPath := defaultConfigPath
	explicit := false

	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		configPath = envPath
		explicit = true
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value after --config")
			}
			configPath = args[i+1]
			explicit = true
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			if val := strings.TrimPrefix(arg, "--config="); val != "" {
				configPath = val
				explicit = true
			}
			continue
		}
	}

	if !explicit {
		if _, err := os.Stat(configPath); err != nil {
			configPath = ""
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}
	return cfg, nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLogger(); err != nil {
		return err
	}
	return a.initModuleLoggers()
}

// initGlobalLogger configures the process-wide logger from the "log" section.
// SERDE_LOG_LEVEL and SERDE_LOG_FORMAT take precedence over the file.
func (a *Application) initGlobalLogger() error {
	cfg := a.cfg.Log
	cfg.Level = getenvDefault("SERDE_LOG_LEVEL", cfg.Level)
	cfg.Format = getenvDefault("SERDE_LOG_FORMAT", cfg.Format)
	cfg.Initialize()

	logger, props, err := zlog.InitLogger(&cfg)
	if err != nil {
		return fmt.Errorf("init global logger: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggers creates named loggers from the "logging" section.
//
// Example:
//
//	logging:
//	  serde:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: serde.log
func (a *Application) initModuleLoggers() error {
	if len(a.cfg.Logging) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(a.cfg.Logging))
	for name, lc := range a.cfg.Logging {
		cfgCopy := lc
		cfgCopy.Initialize()
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldModule(name))}
	}
	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

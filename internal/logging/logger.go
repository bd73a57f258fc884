// Package logging builds the zap loggers used across kirum.
// Components receive a *zap.Logger and call Named with one of the categories
// below; the logging config can switch individual categories off.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kirum/internal/config"
)

// Category is a logger name used by one subsystem.
type Category string

const (
	CategoryGraph     Category = "graph"     // graph ingestion and validation
	CategoryDerive    Category = "derive"    // render passes
	CategoryTransform Category = "transform" // pipeline steps
	CategoryScript    Category = "script"    // script compilation and calls
	CategoryPhonetic  Category = "phonetic"  // word generation
	CategoryDaughter  Category = "daughter"  // daughter language generation
	CategoryProject   Category = "project"   // project file loading
	CategoryExport    Category = "export"    // output writers
	CategoryWatch     Category = "watch"     // file watching
)

// Categories lists every category.
var Categories = []Category{
	CategoryGraph, CategoryDerive, CategoryTransform, CategoryScript,
	CategoryPhonetic, CategoryDaughter, CategoryProject, CategoryExport,
	CategoryWatch,
}

// New builds a logger writing to stderr. verbose forces the debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level, verbose)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "text" {
		zc = zap.NewDevelopmentConfig()
		zc.Development = false
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = !verbose

	logger, err := zc.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return filterCategories(core, cfg)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// NewWithWriter builds a logger writing to ws, for tests and embedding.
func NewWithWriter(cfg config.LoggingConfig, verbose bool, ws zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level, verbose)
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	var enc zapcore.Encoder
	if cfg.Format == "text" {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, ws, level)
	return zap.New(filterCategories(core, cfg)), nil
}

func parseLevel(level string, verbose bool) (zapcore.Level, error) {
	if verbose {
		return zapcore.DebugLevel, nil
	}
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

func filterCategories(core zapcore.Core, cfg config.LoggingConfig) zapcore.Core {
	if len(cfg.Categories) == 0 {
		return core
	}
	return &categoryCore{Core: core, cfg: cfg}
}

// categoryCore drops entries whose logger name contains a disabled category.
type categoryCore struct {
	zapcore.Core
	cfg config.LoggingConfig
}

func (c *categoryCore) With(fields []zapcore.Field) zapcore.Core {
	return &categoryCore{Core: c.Core.With(fields), cfg: c.cfg}
}

func (c *categoryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.allowed(ent.LoggerName) {
		return ce
	}
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *categoryCore) allowed(name string) bool {
	if name == "" {
		return true
	}
	for _, part := range strings.Split(name, ".") {
		if !c.cfg.IsCategoryEnabled(part) {
			return false
		}
	}
	return true
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

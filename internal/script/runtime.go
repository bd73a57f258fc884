// Package script runs user-supplied Go scripts as word transforms using the
// yaegi interpreter.
//
// A script declares
//
//	func Transform(word string, meta map[string]interface{}) (string, error)
//
// and may only import packages on the runtime's allow-list. The package
// clause is optional; scripts without one are treated as package main.
// meta carries "part_of_speech", "language", "tags", "archaic" and
// "historical_metadata". Scalars are strings, so archaic is "true" or
// "false"; tags and historical_metadata are []string.
package script

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"kirum/internal/transform"
)

// DefaultAllowedPackages is the import allow-list used when none is configured.
var DefaultAllowedPackages = []string{
	"bytes", "errors", "fmt", "math", "regexp", "sort",
	"strconv", "strings", "unicode", "unicode/utf8",
}

// TransformFunc is the Go type a script's Transform must have.
type TransformFunc = func(string, map[string]interface{}) (string, error)

// Options configures a Runtime.
type Options struct {
	// Dir resolves relative script paths.
	Dir string
	// Timeout bounds a single call. Zero means no limit beyond the caller's context.
	Timeout time.Duration
	// CacheSize is the number of compiled scripts kept. Defaults to 64.
	CacheSize       int
	AllowedPackages []string
	Logger          *zap.Logger
}

type compiled struct {
	modTime time.Time
	size    int64
	fn      TransformFunc
}

// Runtime implements transform.Scripter.
type Runtime struct {
	dir     string
	timeout time.Duration
	allowed map[string]bool
	cache   *lru.Cache[string, compiled]
	log     *zap.Logger

	compiles int
}

var _ transform.Scripter = (*Runtime)(nil)

// New creates a script runtime.
func New(opts Options) (*Runtime, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[string, compiled](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create script cache: %w", err)
	}

	pkgs := opts.AllowedPackages
	if len(pkgs) == 0 {
		pkgs = DefaultAllowedPackages
	}
	allowed := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		allowed[p] = true
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runtime{
		dir:     opts.Dir,
		timeout: opts.Timeout,
		allowed: allowed,
		cache:   cache,
		log:     log.Named("script"),
	}, nil
}

// TransformWord loads (or reuses) the script at file and calls its Transform.
func (r *Runtime) TransformWord(ctx context.Context, file string, in transform.ScriptInput) (string, error) {
	fn, err := r.load(file)
	if err != nil {
		return "", err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type outcome struct {
		word string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("%w: %s: %v", ErrPanic, file, p)}
			}
		}()
		word, err := fn(in.Word, Meta(in))
		done <- outcome{word, err}
	}()

	select {
	case out := <-done:
		return out.word, out.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %s: %w", ErrTimeout, file, ctx.Err())
	}
}

// Meta converts script input into the map passed to Transform.
func Meta(in transform.ScriptInput) map[string]interface{} {
	return map[string]interface{}{
		"part_of_speech":      in.PartOfSpeech.String(),
		"language":            in.Language,
		"tags":                append([]string{}, in.Tags...),
		"archaic":             strconv.FormatBool(in.Archaic),
		"historical_metadata": append([]string{}, in.Historical...),
	}
}

// Compiles returns how many times a script was interpreted from source.
func (r *Runtime) Compiles() int { return r.compiles }

func (r *Runtime) resolve(file string) string {
	if filepath.IsAbs(file) || r.dir == "" {
		return file
	}
	return filepath.Join(r.dir, file)
}

func (r *Runtime) load(file string) (TransformFunc, error) {
	path := r.resolve(file)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat script: %w", err)
	}

	if c, ok := r.cache.Get(path); ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.fn, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	fn, err := r.compile(path, string(src))
	if err != nil {
		return nil, err
	}

	r.cache.Add(path, compiled{modTime: info.ModTime(), size: info.Size(), fn: fn})
	r.compiles++
	r.log.Debug("script compiled", zap.String("path", path))
	return fn, nil
}

func (r *Runtime) compile(path, src string) (TransformFunc, error) {
	if _, err := parser.ParseFile(token.NewFileSet(), path, src, parser.PackageClauseOnly); err != nil {
		src = "package main\n\n" + src
	}

	pkg, err := r.validateImports(path, src)
	if err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("script evaluation failed: %s: %w", path, err)
	}

	v, err := i.Eval(pkg + ".Transform")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingFunction, path)
	}
	fn, ok := v.Interface().(TransformFunc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBadSignature, path)
	}
	return fn, nil
}

// validateImports parses the import block and returns the package name.
func (r *Runtime) validateImports(path, src string) (string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), path, src, parser.ImportsOnly)
	if err != nil {
		return "", fmt.Errorf("failed to parse script: %w", err)
	}

	var forbidden []string
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return "", fmt.Errorf("failed to parse script import %s: %w", imp.Path.Value, err)
		}
		if !r.allowed[p] {
			forbidden = append(forbidden, p)
		}
	}
	if len(forbidden) > 0 {
		return "", fmt.Errorf("%w: %v in %s (allowed: %v)", ErrForbiddenImport, forbidden, path, r.allowedPackages())
	}
	return f.Name.Name, nil
}

func (r *Runtime) allowedPackages() []string {
	pkgs := make([]string, 0, len(r.allowed))
	for p := range r.allowed {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)
	return pkgs
}

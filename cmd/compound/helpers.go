package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/compound/internal/memstore"
	"github.com/mesh-intelligence/compound/pkg/compound"
	"github.com/mesh-intelligence/compound/pkg/sqlite"
	"github.com/mesh-intelligence/compound/pkg/types"
)

// cliError carries the exit code for err.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func userError(err error) error {
	return &cliError{code: exitUserError, err: err}
}

// exitCode maps err to the process exit code. Bad input and validation
// failures are user errors; everything else is a system error.
func exitCode(err error) int {
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	if _, ok := types.AsValidationError(err); ok {
		return exitUserError
	}
	for _, target := range []error{
		types.ErrNotFound,
		types.ErrInvalidID,
		types.ErrInvalidData,
		types.ErrSelfReference,
		types.ErrInvalidSequence,
		types.ErrNotMember,
		types.ErrNoObjects,
		types.ErrNoParents,
	} {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// argsUsage wraps a cobra argument validator so its failures exit as user
// errors.
func argsUsage(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return userError(err)
		}
		return nil
	}
}

// newLogger returns a JSON production logger, or a development logger on
// stderr when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		return cfg.Build()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// writeMetrics writes the registry in the Prometheus text format, for the
// node exporter textfile collector.
func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// attachBackend creates and attaches the backend cfg selects. The caller
// must Detach it.
func attachBackend(cfg types.Config) (types.Backend, error) {
	var backend types.Backend
	switch cfg.Backend {
	case types.BackendMemory:
		backend = memstore.New()
	default:
		backend = sqlite.NewBackend(logger)
	}
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// engine wires the relationship components over an attached backend.
type engine struct {
	cfg       types.Config
	backend   types.Backend
	metrics   *compound.Metrics
	editor    *compound.Editor
	validator *compound.Validator
	manager   *compound.Manager
	thumbs    *compound.ThumbnailRefresher
}

var engineMetrics *compound.Metrics

func openEngine() (*engine, error) {
	cfg, err := engineConfig()
	if err != nil {
		return nil, err
	}
	backend, err := attachBackend(cfg)
	if err != nil {
		return nil, err
	}

	if engineMetrics == nil {
		engineMetrics = compound.NewMetrics(registry)
	}
	bus := compound.NewBus(logger)
	opts := []compound.Option{
		compound.WithLogger(logger),
		compound.WithMetrics(engineMetrics),
		compound.WithBus(bus),
	}

	e := &engine{cfg: cfg, backend: backend, metrics: engineMetrics}
	e.editor = compound.NewEditor(backend, cfg, opts...)
	e.validator = compound.NewValidator(backend, cfg, opts...)
	e.manager = compound.NewManager(backend, e.validator, e.editor, opts...)
	e.thumbs = compound.NewThumbnailRefresher(e.editor, backend, opts...)
	if cfg.GenerateThumbnailOnChildChange {
		bus.Subscribe(e.thumbs)
	}
	return e, nil
}

// executor returns a sequencing executor finalizing with the thumbnail
// refresher.
func (e *engine) executor(concurrency int, progress compound.ProgressFunc) *compound.Executor {
	return compound.NewExecutor(e.backend, e.cfg,
		compound.WithLogger(logger),
		compound.WithMetrics(e.metrics),
		compound.WithFinalizer(e.thumbs),
		compound.WithConcurrency(concurrency),
		compound.WithProgress(progress),
	)
}

// load returns the object pid, as a user error when it does not exist.
func (e *engine) load(cmd *cobra.Command, pid string) (*types.CompoundObject, error) {
	obj, err := e.backend.Load(cmd.Context(), pid)
	if errors.Is(err, types.ErrNotFound) {
		return nil, userError(fmt.Errorf("object %q not found", pid))
	}
	return obj, err
}

func (e *engine) close() error {
	return e.backend.Detach()
}

// withEngine opens the engine, runs fn and detaches, reporting the first
// error.
func withEngine(fn func(e *engine) error) (err error) {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(e)
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package converter turns DOCX documents into PDF by delegating to a
// headless LibreOffice (soffice) process. It locates the binary, runs it with
// a bounded lifetime and classifies every failure as a Kind.
package converter

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/ditto/pkg/types"
)

const (
	// DefaultTimeout applies when Options.Timeout is zero.
	DefaultTimeout = 2 * time.Minute
	// DefaultGracePeriod applies when Options.GracePeriod is zero.
	DefaultGracePeriod = 5 * time.Second

	stagingPattern = ".ditto-*"
)

// Options configures a Converter. The zero value is usable: default timeouts,
// no cleanup on failure, shared LibreOffice profile.
type Options struct {
	Timeout          time.Duration
	GracePeriod      time.Duration
	BinaryPath       string
	CleanupOnFailure bool
	IsolateProfile   bool
	VerifyInput      bool
	Inspect          bool
}

// DefaultOptions returns the options the CLI starts from.
func DefaultOptions() Options {
	return Options{
		Timeout:          DefaultTimeout,
		GracePeriod:      DefaultGracePeriod,
		CleanupOnFailure: true,
		IsolateProfile:   true,
	}
}

// OptionsFromConfig maps the file/env configuration onto Options.
func OptionsFromConfig(cfg types.ConversionConfig) Options {
	return Options{
		Timeout:          cfg.Timeout,
		GracePeriod:      cfg.GracePeriod,
		BinaryPath:       cfg.BinaryPath,
		CleanupOnFailure: cfg.CleanupOnFailure,
		IsolateProfile:   cfg.IsolateProfile,
		VerifyInput:      cfg.VerifyInput,
		Inspect:          cfg.Inspect,
	}
}

// Request names one document to convert and where its PDF should land.
type Request struct {
	InputPath  string
	OutputPath string
}

// Result describes a successful conversion.
type Result struct {
	// OutputPath is the absolute path of the PDF.
	OutputPath string
	// Binary is the converter executable that was run.
	Binary   string
	Duration time.Duration
	Size     int64
	// Pages is set only when Options.Inspect is on.
	Pages int
}

// Converter runs DOCX-to-PDF conversions. It holds no per-call state and is
// safe for concurrent use.
type Converter struct {
	opts      Options
	log       *zap.Logger
	runner    Runner
	fallbacks []string
}

// New creates a Converter that runs the real soffice binary. A nil logger
// disables logging.
func New(opts Options, log *zap.Logger) *Converter {
	return newConverter(opts, log, osRunner{}, defaultFallbacks())
}

func newConverter(opts Options, log *zap.Logger, runner Runner, fallbacks []string) *Converter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{opts: opts, log: log, runner: runner, fallbacks: fallbacks}
}

// Options returns the effective options, defaults applied.
func (c *Converter) Options() Options {
	return c.opts
}

// Convert converts a single file with a one-off Converter.
func Convert(ctx context.Context, inputPath, outputPath string, opts Options) (Result, error) {
	return New(opts, nil).Convert(ctx, Request{InputPath: inputPath, OutputPath: outputPath})
}

// Binary reports which converter executable Convert would run.
func (c *Converter) Binary() (string, error) {
	return c.resolveBinary()
}

// Convert performs one conversion attempt. On failure the error is always an
// *Error; nothing is retried.
func (c *Converter) Convert(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	log := c.log.With(
		zap.String("run", uuid.NewString()),
		zap.String("input", req.InputPath),
		zap.String("output", req.OutputPath),
	)

	if err := ctx.Err(); err != nil {
		return Result{}, newError(KindFromError(err), req.InputPath, "", err)
	}

	bin, err := c.resolveBinary()
	if err != nil {
		log.Debug("converter binary not found", zap.Error(err))
		return Result{}, err
	}
	if err := validateInput(req.InputPath, c.opts.VerifyInput); err != nil {
		log.Debug("input rejected", zap.Error(err))
		return Result{}, err
	}
	outPath, err := prepareOutput(req.OutputPath)
	if err != nil {
		log.Debug("output rejected", zap.Error(err))
		return Result{}, err
	}
	input, err := filepath.Abs(req.InputPath)
	if err != nil {
		return Result{}, newError(KindInputInvalid, req.InputPath, "resolving input path", err)
	}

	// Staging lives next to the output so the final move is a rename on one
	// filesystem and two runs with the same input stem never collide.
	staging, err := os.MkdirTemp(filepath.Dir(outPath), stagingPattern)
	if err != nil {
		return Result{}, newError(KindInputInvalid, req.OutputPath, "output directory is not writable", err)
	}

	res, err := c.run(ctx, log, bin, input, outPath, staging)
	if err != nil {
		var convErr *Error
		if !errors.As(err, &convErr) {
			convErr = newError(KindInternal, req.InputPath, "", err)
		}
		c.cleanup(log, staging, convErr)
		log.Debug("conversion failed", zap.String("kind", string(convErr.Kind)), zap.Error(convErr))
		return Result{}, convErr
	}

	if err := os.RemoveAll(staging); err != nil {
		log.Warn("removing staging directory", zap.String("dir", staging), zap.Error(err))
	}
	res.Binary = bin
	res.Duration = time.Since(start)
	log.Debug("conversion finished",
		zap.Duration("duration", res.Duration),
		zap.Int64("bytes", res.Size),
	)
	return res, nil
}

// args builds the soffice command line. The output directory is the staging
// directory; soffice names the result <stem>.pdf inside it.
func (c *Converter) args(input, staging string) []string {
	args := []string{"--headless", "--norestore", "--nolockcheck"}
	if c.opts.IsolateProfile {
		args = append(args, "-env:UserInstallation="+fileURL(filepath.Join(staging, "profile")))
	}
	return append(args, "--convert-to", "pdf", "--outdir", staging, input)
}

func (c *Converter) run(ctx context.Context, log *zap.Logger, bin, input, outPath, staging string) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	args := c.args(input, staging)
	log.Debug("spawning converter", zap.String("bin", bin), zap.Strings("args", args))

	exit, err := c.runner.Run(runCtx, bin, args, c.opts.GracePeriod)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			return Result{}, newError(KindCancelled, input, "", ctx.Err())
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return Result{}, &Error{
				Kind:   KindTimeout,
				Path:   input,
				Msg:    "conversion exceeded " + c.opts.Timeout.String() + "; the converter was terminated",
				Stderr: truncateDiagnostic(exit.Stderr),
				Err:    context.DeadlineExceeded,
			}
		default:
			return Result{}, newError(KindExternalTool, input, "could not run converter", err)
		}
	}

	if exit.Code != 0 {
		return Result{}, &Error{
			Kind:     KindExternalTool,
			Path:     input,
			ExitCode: exit.Code,
			Stderr:   truncateDiagnostic(exit.Stderr),
		}
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	produced := filepath.Join(staging, stem+outputExt)
	info, err := os.Stat(produced)
	if err != nil || !info.Mode().IsRegular() {
		return Result{}, &Error{
			Kind:   KindOutputMissing,
			Path:   produced,
			Stderr: truncateDiagnostic(exit.Stderr),
		}
	}
	if info.Size() == 0 {
		return Result{}, newError(KindOutputCorrupt, produced, "produced PDF is empty", nil)
	}
	if err := checkPDFHeader(produced); err != nil {
		return Result{}, newError(KindOutputCorrupt, produced, "", err)
	}

	res := Result{OutputPath: outPath, Size: info.Size()}
	if c.opts.Inspect {
		pages, err := CountPages(produced)
		if err != nil {
			return Result{}, newError(KindOutputCorrupt, produced, "", err)
		}
		res.Pages = pages
	}

	if err := os.Rename(produced, outPath); err != nil {
		return Result{}, newError(KindOutputRenameFailed, outPath, "", err)
	}
	return res, nil
}

// cleanup applies the failure policy: remove the staging directory when
// CleanupOnFailure is set, otherwise keep it and record it on the error.
func (c *Converter) cleanup(log *zap.Logger, staging string, convErr *Error) {
	if !c.opts.CleanupOnFailure {
		convErr.Staging = staging
		return
	}
	if err := os.RemoveAll(staging); err != nil {
		log.Warn("removing staging directory", zap.String("dir", staging), zap.Error(err))
	}
}

// fileURL converts an absolute path to the file:// form soffice expects for
// -env:UserInstallation.
func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

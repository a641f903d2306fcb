// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// maxDiagnosticBytes bounds the captured stdout and stderr of the converter.
const maxDiagnosticBytes = 4096

// Exit is what the external converter left behind when it finished.
type Exit struct {
	Code   int
	Stdout string
	Stderr string
}

// Runner abstracts the external converter process so tests can simulate a
// missing binary, a hang, a non-zero exit or a silent failure.
type Runner interface {
	// LookPath resolves a command name or an absolute path to an executable.
	LookPath(file string) (string, error)

	// Run executes bin with args until it exits or ctx is done. A process
	// that ran to completion yields a nil error whatever its exit code; a
	// non-nil error means the process could not be started or ctx ended it.
	// grace bounds the wait for its output pipes after it is killed.
	Run(ctx context.Context, bin string, args []string, grace time.Duration) (Exit, error)
}

// osRunner is the production Runner backed by os/exec.
type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osRunner) Run(ctx context.Context, bin string, args []string, grace time.Duration) (Exit, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	killProcessGroup(cmd)
	cmd.WaitDelay = grace

	stdout := &boundedBuffer{limit: maxDiagnosticBytes}
	stderr := &boundedBuffer{limit: maxDiagnosticBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	exit := Exit{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return exit, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		exit.Code = -1
		return exit, ctxErr
	}

	// soffice may hand its pipes to a helper that outlives it.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		return exit, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exit.Code = exitErr.ExitCode()
		return exit, nil
	}
	return exit, fmt.Errorf("starting %s: %w", bin, err)
}

// boundedBuffer keeps the first limit bytes written to it and counts the rest.
type boundedBuffer struct {
	buf     bytes.Buffer
	limit   int
	dropped int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	switch {
	case room <= 0:
		b.dropped += len(p)
	case len(p) > room:
		b.buf.Write(p[:room])
		b.dropped += len(p) - room
	default:
		b.buf.Write(p)
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	s, dropped := b.buf.String(), b.dropped
	if dropped > 0 {
		kept := trimPartialRune(s)
		dropped += len(s) - len(kept)
		s = kept
	}
	s = strings.TrimSpace(s)
	if dropped > 0 {
		s += fmt.Sprintf(" ... [%d bytes truncated]", dropped)
	}
	return s
}

// truncateDiagnostic applies the same bound to text from any Runner.
func truncateDiagnostic(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxDiagnosticBytes+64 {
		return s
	}
	kept := trimPartialRune(s[:maxDiagnosticBytes])
	return kept + fmt.Sprintf(" ... [%d bytes truncated]", len(s)-len(kept))
}

// trimPartialRune drops a multibyte sequence left incomplete at the end of s
// by a cut at a byte offset.
func trimPartialRune(s string) string {
	for i := 1; i < utf8.UTFMax && i <= len(s); i++ {
		if utf8.RuneStart(s[len(s)-i]) {
			if !utf8.FullRuneInString(s[len(s)-i:]) {
				return s[:len(s)-i]
			}
			return s
		}
	}
	return s
}

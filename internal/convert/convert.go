// Package convert turns merged documents into the delivery format by invoking
// an external converter process (a LibreOffice-compatible binary) in a scoped
// temporary directory.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ConversionError reports a failed conversion: non-zero exit, timeout, or a
// converter that produced no output file. It always carries enough context to
// diagnose the subprocess; conversion never silently yields empty output.
type ConversionError struct {
	Format string
	Stderr string
	Err    error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("convert to %s: %v", e.Format, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Options configures a Converter.
type Options struct {
	// BinaryPath is the converter executable, e.g. "soffice".
	BinaryPath string
	// Timeout bounds one conversion; the subprocess is killed on expiry.
	Timeout time.Duration
}

// Converter shells out to a headless office binary to convert documents.
type Converter struct {
	binary  string
	timeout time.Duration
}

// NewConverter creates a Converter. BinaryPath is required.
func NewConverter(opts Options) (*Converter, error) {
	if strings.TrimSpace(opts.BinaryPath) == "" {
		return nil, errors.New("converter binary path is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Converter{binary: opts.BinaryPath, timeout: timeout}, nil
}

// Convert writes doc into a fresh temporary directory, runs the converter
// with the requested target format, and returns the produced file's bytes.
// The directory is removed on every exit path.
func (c *Converter) Convert(ctx context.Context, doc []byte, targetFormat string) ([]byte, error) {
	if len(doc) == 0 {
		return nil, errors.New("document is empty")
	}
	if strings.TrimSpace(targetFormat) == "" {
		return nil, errors.New("target format is required")
	}

	workDir, err := os.MkdirTemp("", "postbud-convert-*")
	if err != nil {
		return nil, fmt.Errorf("create conversion workdir: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(workDir)
	}()

	inputPath := filepath.Join(workDir, "document.html")
	if writeErr := os.WriteFile(inputPath, doc, 0o600); writeErr != nil {
		return nil, fmt.Errorf("write conversion input: %w", writeErr)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary,
		"--headless",
		"--convert-to", targetFormat,
		"--outdir", workDir,
		inputPath,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if runErr := cmd.Run(); runErr != nil {
		if ctx.Err() != nil {
			runErr = fmt.Errorf("%w: %w", ctx.Err(), runErr)
		}
		return nil, &ConversionError{
			Format: targetFormat,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    runErr,
		}
	}

	outputPath := filepath.Join(workDir, "document."+targetFormat)
	out, readErr := os.ReadFile(outputPath)
	if readErr != nil {
		return nil, &ConversionError{
			Format: targetFormat,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    fmt.Errorf("converter produced no output: %w", readErr),
		}
	}
	if len(out) == 0 {
		return nil, &ConversionError{
			Format: targetFormat,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    errors.New("converter produced an empty file"),
		}
	}
	return out, nil
}

// Package flac wraps the flac command-line encoder.
//
// Prefer this package over ad-hoc exec.Command usage when encoding tracks so
// argument construction, output streaming, and error shaping stay in one
// place.
package flac

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"flacpress/internal/services"
)

var commandContext = exec.CommandContext

// Tag is one metadata tag applied at encode time, emitted as -T NAME=VALUE.
// Values are handed to the encoder as a single argv element, so quote
// characters and spaces travel verbatim without shell escaping.
type Tag struct {
	Name  string
	Value string
}

// EncodeRequest describes a single track encode.
type EncodeRequest struct {
	InputPath        string
	OutputPath       string
	PicturePath      string // optional embedded cover art
	Tags             []Tag
	CompressionLevel int // 0..8
	Verify           bool
	// OnOutput receives each encoder output line as it is produced.
	OnOutput func(line string)
}

// Client defines flac encoding behaviour.
type Client interface {
	Encode(ctx context.Context, req EncodeRequest) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI invokes the flac command-line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "flac"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Encode runs one encoder invocation, blocking until the process exits.
func (c *CLI) Encode(ctx context.Context, req EncodeRequest) error {
	if req.InputPath == "" {
		return errors.New("input path required")
	}
	if req.OutputPath == "" {
		return errors.New("output path required")
	}

	args := buildArgs(req)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "start flac", "", err)
	}

	tail := newLineTail(8)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		tail.add(line)
		if req.OnOutput != nil {
			req.OnOutput(line)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("read flac output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "flac", tail.String(), err)
	}
	return nil
}

func buildArgs(req EncodeRequest) []string {
	level := req.CompressionLevel
	if level < 0 || level > 8 {
		level = 8
	}
	args := []string{"-" + strconv.Itoa(level)}
	if req.Verify {
		args = append(args, "--verify")
	}
	for _, tag := range req.Tags {
		args = append(args, "-T", tag.Name+"="+tag.Value)
	}
	if req.PicturePath != "" {
		args = append(args, "--picture="+req.PicturePath)
	}
	args = append(args, "--output-name", req.OutputPath, req.InputPath)
	return args
}

// lineTail keeps the most recent output lines for error reporting.
type lineTail struct {
	limit int
	lines []string
}

func newLineTail(limit int) *lineTail {
	return &lineTail{limit: limit}
}

func (t *lineTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *lineTail) String() string {
	return strings.Join(t.lines, " | ")
}

var _ Client = (*CLI)(nil)

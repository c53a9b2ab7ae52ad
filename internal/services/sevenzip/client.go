// Package sevenzip wraps the 7z command-line archiver.
//
// It covers the two invocations the pipeline needs: creating a compressed
// archive of a directory's contents and testing an archive's integrity.
package sevenzip

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

// Client defines archiver behaviour.
type Client interface {
	// Create archives the contents of sourceDir into archivePath. The
	// archiver runs with sourceDir as its working directory so paths inside
	// the archive are relative.
	Create(ctx context.Context, archivePath, sourceDir string, onOutput func(string)) error
	// Test runs the archiver's integrity check against archivePath.
	Test(ctx context.Context, archivePath string, onOutput func(string)) error
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

// WithCompressionLevel sets the -mx level (0..9).
func WithCompressionLevel(level int) Option {
	return func(c *CLI) {
		if level >= 0 && level <= 9 {
			c.level = level
		}
	}
}

// WithSolid toggles solid archive mode.
func WithSolid(solid bool) Option {
	return func(c *CLI) {
		c.solid = solid
	}
}

// CLI invokes the 7z command-line archiver.
type CLI struct {
	binary string
	level  int
	solid  bool
}

// NewCLI constructs a CLI client using defaults (-mx9, solid).
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "7z", level: 9, solid: true}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Create implements Client.
func (c *CLI) Create(ctx context.Context, archivePath, sourceDir string, onOutput func(string)) error {
	if archivePath == "" {
		return errors.New("archive path required")
	}
	if sourceDir == "" {
		return errors.New("source directory required")
	}

	args := []string{"a", "-t7z", "-mx" + strconv.Itoa(c.level), "-sccUTF-8", "-scsUTF-8", "-ssw"}
	if !c.solid {
		args = append(args, "-ms=off")
	}
	args = append(args, archivePath)

	return c.run(ctx, "create", args, sourceDir, onOutput)
}

// Test implements Client.
func (c *CLI) Test(ctx context.Context, archivePath string, onOutput func(string)) error {
	if archivePath == "" {
		return errors.New("archive path required")
	}
	return c.run(ctx, "test", []string{"t", archivePath}, "", onOutput)
}

func (c *CLI) run(ctx context.Context, operation string, args []string, workDir string, onOutput func(string)) error {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	cmd.Dir = workDir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "archive", "start 7z", "", err)
	}

	var tail []string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			tail = append(tail, trimmed)
			if len(tail) > 8 {
				tail = tail[len(tail)-8:]
			}
		}
		if onOutput != nil {
			onOutput(line)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("read 7z output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return services.Wrap(services.ErrExternalTool, "archive", operation, strings.Join(tail, " | "), err)
	}
	return nil
}

var _ Client = (*CLI)(nil)

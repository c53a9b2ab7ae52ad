package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"flacpress/internal/batch"
)

func main() {
	os.Exit(run())
}

// run executes the command tree and maps the outcome to an exit code:
// 0 on success, 2 when a conversion completed but some albums failed,
// 1 for everything else.
func run() int {
	err := newRootCommand().Execute()
	if err == nil {
		return 0
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	if errors.Is(err, batch.ErrRunFailures) {
		return 2
	}
	return 1
}

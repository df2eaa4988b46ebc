package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"bake/internal/bake"
	"bake/internal/log"
)

// Run executes a parsed invocation and returns the process exit code: 0 on
// success, 1 on any failure with a single-line diagnostic on stderr.
func Run(ctx context.Context, inv Invocation, stdin io.Reader, stdout, stderr io.Writer) int {
	switch {
	case inv.Debug:
		log.SetLevel(logrus.DebugLevel)
	case inv.Verbose:
		log.SetLevel(logrus.InfoLevel)
	}

	b := bake.New(inv.File)
	b.Target = inv.Target
	b.Subdir = inv.Subdir
	b.Stdin = stdin
	b.Stdout = stdout

	if err := b.Run(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// Command imagecheck submits one image to a validation service and prints
// the result the way the upload form displays it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/phambaophuc/image-validator/internal/logging"
	"github.com/phambaophuc/image-validator/internal/validation"
	"go.uber.org/zap"
)

const defaultServer = "http://localhost:8080"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("imagecheck", flag.ContinueOnError)
	flags.SetOutput(stderr)
	server := flags.String("server", defaultServer, "base URL of the validation service")
	timeout := flags.Duration("timeout", 30*time.Second, "request timeout")
	verbose := flags.Bool("v", false, "log failure details to stderr")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: imagecheck [-server URL] [-timeout D] [-v] <image>")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	path := flags.Arg(0)
	image, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "imagecheck: %v\n", err)
		return 1
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = logging.NewLogger(); err != nil {
			fmt.Fprintf(stderr, "imagecheck: %v\n", err)
			return 1
		}
		defer logger.Sync()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	session := validation.NewSession(validation.NewClient(*server), logger)
	session.Select(filepath.Base(path), image)

	display, err := session.Submit(ctx)
	if display != "" {
		fmt.Fprintf(stdout, "Result: %s\n", display)
	}
	if err != nil {
		return 1
	}
	return 0
}

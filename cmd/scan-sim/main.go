package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/absensi/internal/adapters/repository"
	"github.com/okian/absensi/internal/scansim"
	"github.com/okian/absensi/pkg/logger"
)

// Default configuration constants.
const (
	defaultDelay    = 2500 * time.Millisecond
	defaultTimeout  = 10 * time.Second
	defaultStudents = "1-17"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		tokens   = flag.String("tokens", "", "File with one token per line (default: generate demo tokens)")
		secret   = flag.String("secret", repository.DefaultSecret, "Demo signing secret")
		students = flag.String("students", defaultStudents, "Student ids to generate tokens for")
		repeat   = flag.Int("repeat", 1, "Passes over the token list")
		shuffle  = flag.Bool("shuffle", false, "Randomise the order of each pass")
		delay    = flag.Duration("delay", defaultDelay, "Pause between scans")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Log every scan")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		scansim.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := &scansim.Config{
		BaseURL:    *baseURL,
		TokensFile: *tokens,
		Secret:     *secret,
		Repeat:     *repeat,
		Shuffle:    *shuffle,
		Delay:      *delay,
		Timeout:    *timeout,
		Verbose:    *verbose,
	}
	if cfg.TokensFile == "" {
		ids, err := scansim.ParseIDs(*students)
		if err != nil {
			_, _ = os.Stderr.WriteString("invalid -students: " + err.Error() + "\n")
			os.Exit(2)
		}
		cfg.StudentIDs = ids
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := scansim.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("scan simulation failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

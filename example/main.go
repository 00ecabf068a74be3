package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	watch "github.com/dpotapov/go-watch"
	"github.com/dpotapov/go-watch/htree"
)

func LoggerMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("HTTP request", "method", r.Method, "url", r.URL)
		next.ServeHTTP(w, r)
	})
}

func main() {
	configPath := flag.String("config", "example/watch.yaml", "configuration file")
	dumpPath := flag.String("dump", "", "examine and dump a local file, then exit")
	diff := flag.Bool("diff", false, "compare the two files given as arguments, then exit")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var err error
	switch {
	case *dumpPath != "":
		err = dumpFile(*dumpPath)
	case *diff:
		if flag.NArg() != 2 {
			err = errors.New("-diff needs two files")
			break
		}
		err = diffFiles(flag.Arg(0), flag.Arg(1))
	default:
		err = serve(*configPath, logger)
	}
	if err != nil {
		logger.Error("Exit", "error", err)
		os.Exit(1)
	}
}

func serve(configPath string, logger *slog.Logger) error {
	cfg, err := watch.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := watch.NewMonitor(*cfg)
	mon.Logger = logger

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           LoggerMiddleware(&watch.Handler{Monitor: mon, Logger: logger}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mon.Run(ctx)
	})
	if cfg.Listen != "" {
		g.Go(func() error {
			logger.Info("Starting HTTP server", "address", cfg.Listen)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

// contentType guesses the media type of a local file from its extension.
func contentType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "text/html"
}

func readPage(path string) (string, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	ct := contentType(path)
	content, _, err := watch.Decode(b, ct)
	return ct, content, err
}

func dumpFile(path string) error {
	ct, content, err := readPage(path)
	if err != nil {
		return err
	}
	info, err := watch.Examine(ct, content, watch.IgnoreRules{})
	if err != nil {
		return err
	}
	if err := htree.Dump(os.Stdout, info.Tree); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func diffFiles(a, b string) error {
	var docs [2]*htree.Doc
	for i, path := range []string{a, b} {
		ct, content, err := readPage(path)
		if err != nil {
			return err
		}
		docs[i] = htree.ParseWithOptions(content, htree.ParseOptions{ContentType: ct})
	}
	for _, c := range watch.DiffText(docs[0], docs[1], 10) {
		fmt.Printf("- %s %q\n+ %s %q\n", c.OldPath, c.Old, c.NewPath, c.New)
	}
	d, err := watch.DiffDump(docs[0], docs[1])
	if err != nil {
		return err
	}
	fmt.Print(d)
	return nil
}

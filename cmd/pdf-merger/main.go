// Command pdf-merger merges PDF files, in the order given, into one document.
//
//	pdf-merger [-name out] [-config pdfmerge.yaml] [-sink file|stdout|gcs] a.pdf gs://bucket/b.pdf ...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdfmerge/internal/codec"
	"github.com/Lllllllleong/pdfmerge/internal/config"
	"github.com/Lllllllleong/pdfmerge/internal/delivery"
	"github.com/Lllllllleong/pdfmerge/internal/gcp"
	"github.com/Lllllllleong/pdfmerge/internal/merge"
	"github.com/Lllllllleong/pdfmerge/internal/models"
	"github.com/Lllllllleong/pdfmerge/internal/session"
	"github.com/Lllllllleong/pdfmerge/internal/source"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var loadErr *merge.LoadError
		switch {
		case errors.Is(err, flag.ErrHelp):
			os.Exit(0)
		case errors.As(err, &loadErr):
			os.Exit(3)
		default:
			os.Exit(1)
		}
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pdf-merger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "output file name (default merged-document-<date>.pdf)")
	configPath := fs.String("config", "", "YAML config file")
	sinkKind := fs.String("sink", "", "where to deliver: file, stdout or gcs")
	outDir := fs.String("out", "", "output directory for the file sink")
	quiet := fs.Bool("q", false, "only log errors")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}
	if *sinkKind != "" {
		cfg.Sink = *sinkKind
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}

	level := cfg.SlogLevel()
	if *quiet {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: pdf-merger [flags] input.pdf [input.pdf ...]")
		fs.PrintDefaults()
		return merge.ErrEmptyInput
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gcsClient *storage.Client
	if cfg.Sink == config.SinkGCS || hasRemote(fs.Args()) {
		gcsClient, err = storage.NewClient(ctx)
		if err != nil {
			logger.Error("Failed to create Storage client.", "error", err)
			return fmt.Errorf("failed to create Storage client: %w", err)
		}
		defer gcsClient.Close()
	}

	sink := newSink(cfg, gcsClient, stdout)
	engine := merge.NewEngine(codec.NewPDFCPU(cfg.ValidationMode, cfg.Optimize), logger)
	sess := session.New(engine, sink,
		session.WithLogger(logger),
		session.WithCooldown(0),
		session.WithProgressObserver(func(p models.MergeProgress) {
			logger.Info(fmt.Sprintf("Merging PDF %d of %d", p.Completed, p.Total), "percent", int(p.Percent()))
		}),
	)
	defer sess.Close()

	resolver := source.Resolver{}
	if gcsClient != nil {
		resolver.Remote = gcp.RemoteResolver(gcsClient)
	}
	candidates, err := resolver.Resolve(ctx, fs.Args())
	if err != nil {
		logger.Error("Failed to resolve inputs.", "error", err)
		return err
	}

	res := sess.Add(candidates...)
	for _, rej := range res.Rejections {
		logger.Warn("Skipping input.", "reason", rej.Error())
	}
	for i, f := range sess.Files() {
		logger.Debug("Queued input.", "position", i+1, "file", f.DisplayName, "sizeKB", f.SizeKB())
	}

	out, err := sess.Merge(ctx, *name)
	if err != nil {
		return err
	}
	if cfg.Sink != config.SinkStdout {
		fmt.Fprintln(stdout, out.Filename)
	}
	return nil
}

func hasRemote(refs []string) bool {
	for _, r := range refs {
		if strings.HasPrefix(r, "gs://") {
			return true
		}
	}
	return false
}

func newSink(cfg *config.Config, client *storage.Client, stdout io.Writer) delivery.Sink {
	switch cfg.Sink {
	case config.SinkStdout:
		return &delivery.WriterSink{W: stdout}
	case config.SinkGCS:
		return &gcp.ObjectSink{Client: client, Bucket: cfg.OutputBucket, Prefix: cfg.OutputPrefix}
	default:
		return &delivery.FileSink{Dir: cfg.OutputDir, Overwrite: cfg.Overwrite}
	}
}

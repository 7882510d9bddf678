// Command tda-features turns a time series into a labeled feature table of
// persistence landscape norms, one row per sliding window.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/tdaseries/internal/config"
	"github.com/banshee-data/tdaseries/internal/db"
	"github.com/banshee-data/tdaseries/internal/fsutil"
	"github.com/banshee-data/tdaseries/internal/monitoring"
	"github.com/banshee-data/tdaseries/internal/tda/features"
	"github.com/banshee-data/tdaseries/internal/tda/homology"
	"github.com/banshee-data/tdaseries/internal/tda/pipeline"
	"github.com/banshee-data/tdaseries/internal/tda/pointcloud"
	"github.com/banshee-data/tdaseries/internal/version"
)

// errUsage signals that usage was printed and the process should exit 1.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, fsutil.OSFileSystem{})
	if errors.Is(err, errUsage) {
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("tda-features: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, fsys fsutil.FileSystem) error {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		return errUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	if opts.help || opts.input == "" {
		fs.Usage()
		return errUsage
	}
	monitoring.SetVerbose(opts.verbose)

	cfg, err := resolveConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return errUsage
	}

	series, err := loadSeries(fsys, opts)
	if err != nil {
		return err
	}
	monitoring.Logf("loaded %d points of dimension %d from %s", series.Len(), series.Dim(), opts.input)

	var runOpts []pipeline.Option
	if opts.outputFile != "" || opts.verbose || opts.dbPath != "" {
		runOpts = append(runOpts, pipeline.WithDiagrams())
	}
	res, err := pipeline.Run(ctx, cfg, series, runOpts...)
	if err != nil {
		return err
	}

	if err := features.Write(fsys, opts.trainingFile, res.Table); err != nil {
		return err
	}
	monitoring.Logf("wrote %d rows to %s (norm mean %.6g, stddev %.6g, %d positive labels)",
		len(res.Table), opts.trainingFile, res.Summary.Mean, res.Summary.StdDev, res.Summary.Positive)

	if err := writeDiagrams(fsys, opts.outputFile, cfg.FieldCharacteristic, res.Diagrams); err != nil {
		return err
	}

	if opts.dbPath != "" {
		if err := record(ctx, opts, cfg, res); err != nil {
			return err
		}
	}
	return nil
}

// resolveConfig layers explicitly set flags over the config file, or over
// the built-in defaults when no file is given.
func resolveConfig(opts *options) (config.Pipeline, error) {
	fileCfg := &config.FileConfig{}
	if opts.configPath != "" {
		var err error
		if fileCfg, err = config.LoadFileConfig(opts.configPath); err != nil {
			return config.Pipeline{}, err
		}
	}
	cfg := opts.apply(fileCfg.Resolve())
	if err := cfg.Validate(); err != nil {
		return config.Pipeline{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.embedDim < 0 || opts.embedDelay < 1 {
		return config.Pipeline{}, fmt.Errorf("invalid embedding: dim %d, delay %d", opts.embedDim, opts.embedDelay)
	}
	return cfg, nil
}

func loadSeries(fsys fsutil.FileSystem, opts *options) (pointcloud.Cloud, error) {
	cloud, err := pointcloud.Load(fsys, opts.input)
	if err != nil {
		return nil, err
	}
	if opts.embedDim == 0 {
		return cloud, nil
	}
	if cloud.Dim() != 1 {
		return nil, fmt.Errorf("--embed-dim needs a scalar series, %s has dimension %d", opts.input, cloud.Dim())
	}
	return pointcloud.Embed(cloud.Column(0), opts.embedDim, opts.embedDelay), nil
}

// writeDiagrams writes every window's diagram to path, each preceded by a
// "# window i" line. With an empty path the diagrams go to the debug log.
func writeDiagrams(fsys fsutil.FileSystem, path string, p int, diagrams []homology.Diagram) error {
	if path == "" {
		if monitoring.Verbose() {
			for i, d := range diagrams {
				for _, iv := range d {
					monitoring.Debugf("window %d: %d %d %v %v", i, p, iv.Dim, iv.Birth, iv.Death)
				}
			}
		}
		return nil
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create diagram file: %w", err)
	}
	bw := bufio.NewWriter(f)
	for i, d := range diagrams {
		fmt.Fprintf(bw, "# window %d\n", i)
		if err := homology.WriteDiagram(bw, p, d); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// record stores the run, its rows and its diagrams in the SQLite database.
func record(ctx context.Context, opts *options, cfg config.Pipeline, res *pipeline.Result) error {
	database, err := db.OpenMigrated(opts.dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	run := &db.Run{
		Input:   opts.input,
		Version: version.Version,
		Params:  cfg,
		Windows: len(res.Table),
	}
	if err := database.InsertRun(ctx, run); err != nil {
		return err
	}
	if err := database.InsertRows(ctx, run.ID, res.Table); err != nil {
		return err
	}
	if err := database.InsertIntervals(ctx, run.ID, res.Diagrams); err != nil {
		return err
	}
	monitoring.Logf("recorded run %s in %s", run.ID, opts.dbPath)
	return nil
}

package main

import (
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/tdaseries/internal/config"
)

// options holds the parsed command line. Pipeline parameters live in
// cfgFlags until they are merged over the config file.
type options struct {
	input        string
	outputFile   string
	trainingFile string
	configPath   string
	dbPath       string
	embedDim     int
	embedDelay   int
	verbose      bool
	version      bool
	help         bool

	maxEdgeLength  float64
	cpxDimension   int
	fieldCharac    int
	minPersistence float64
	windowSize     int
	workers        int
	onError        string
	distance       string

	// set records the pipeline flags given explicitly, by long name.
	set map[string]bool
}

// aliases maps short flag names to their long form.
var aliases = map[string]string{
	"o": "output-file",
	"r": "max-edge-length",
	"d": "cpx-dimension",
	"p": "field-charac",
	"m": "min-persistence",
	"w": "window-size",
	"h": "help",
}

func newFlagSet(o *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("tda-features", flag.ContinueOnError)
	fs.SetOutput(stderr)

	str := func(p *string, long, short, def, usage string) {
		fs.StringVar(p, long, def, usage)
		if short != "" {
			fs.StringVar(p, short, def, "shorthand for --"+long)
		}
	}
	num := func(p *int, long, short string, def int, usage string) {
		fs.IntVar(p, long, def, usage)
		if short != "" {
			fs.IntVar(p, short, def, "shorthand for --"+long)
		}
	}
	float := func(p *float64, long, short string, def float64, usage string) {
		fs.Float64Var(p, long, def, usage)
		if short != "" {
			fs.Float64Var(p, short, def, "shorthand for --"+long)
		}
	}

	str(&o.outputFile, "output-file", "o", "", "File the persistence diagrams are written to. Default: logged with --verbose")
	float(&o.maxEdgeLength, "max-edge-length", "r", math.Inf(1), "Maximal length of an edge for the Rips complex construction")
	num(&o.cpxDimension, "cpx-dimension", "d", config.DefaultMaxDimension, "Maximal dimension of the Rips complex")
	num(&o.fieldCharac, "field-charac", "p", config.DefaultFieldCharacteristic, "Characteristic p of the coefficient field Z/pZ")
	float(&o.minPersistence, "min-persistence", "m", config.DefaultMinPersistence, "Minimal lifetime of a recorded feature; negative keeps zero-length intervals")
	num(&o.windowSize, "window-size", "w", config.DefaultWindowSize, "Points per sliding window")

	str(&o.trainingFile, "training-file", "", "training.txt", "Feature table output path")
	num(&o.workers, "workers", "", 0, "Windows processed concurrently (0: GOMAXPROCS)")
	str(&o.configPath, "config", "", "", "JSON defaults file, e.g. "+config.DefaultConfigPath)
	str(&o.dbPath, "db", "", "", "SQLite database the run is recorded in")
	str(&o.onError, "on-error", "", string(config.FailAbort), "Window failure policy: abort or skip")
	str(&o.distance, "distance", "", config.DefaultDistance, "Point distance: euclidean, manhattan or chebyshev")
	num(&o.embedDim, "embed-dim", "", 0, "Delay-embed the first input column into this many dimensions (0: off)")
	num(&o.embedDelay, "embed-delay", "", 1, "Delay between embedded coordinates, in samples")
	fs.BoolVar(&o.verbose, "verbose", false, "Log per-window progress and diagrams")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	fs.BoolVar(&o.help, "help", false, "Produce this help message")
	fs.BoolVar(&o.help, "h", false, "shorthand for --help")

	fs.Usage = func() { printUsage(fs, stderr) }
	return fs
}

// parseFlags parses args (without the program name). Flags may follow the
// input file. Errors have already been reported on stderr with the usage.
func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	o := &options{set: make(map[string]bool)}
	fs := newFlagSet(o, stderr)

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fs, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		o.set[name] = true
	})
	if len(positional) > 1 {
		err := fmt.Errorf("expected one input file, got %d", len(positional))
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return nil, fs, err
	}
	if len(positional) == 1 {
		o.input = positional[0]
	}
	return o, fs, nil
}

// apply overlays explicitly set flags on cfg.
func (o *options) apply(cfg config.Pipeline) config.Pipeline {
	if o.set["max-edge-length"] {
		cfg.MaxEdgeLength = o.maxEdgeLength
	}
	if o.set["cpx-dimension"] {
		cfg.MaxDimension = o.cpxDimension
	}
	if o.set["field-charac"] {
		cfg.FieldCharacteristic = o.fieldCharac
	}
	if o.set["min-persistence"] {
		cfg.MinPersistence = o.minPersistence
	}
	if o.set["window-size"] {
		cfg.WindowSize = o.windowSize
	}
	if o.set["workers"] && o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.set["on-error"] {
		cfg.OnWindowError = config.FailurePolicy(o.onError)
	}
	if o.set["distance"] {
		cfg.Distance = o.distance
	}
	return cfg
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprint(w, `
Compute a topological feature table from a time series.

Every window of --window-size consecutive points is turned into a
Vietoris-Rips complex, its persistent homology is computed with
coefficients in Z/pZ and the L1 norm of the persistence landscape of the
dimension 1 diagram becomes the feature of the window's last point. The
label is 1 when the last coordinate of the next point is non-negative.

The diagram file contains one bar per line, written with the convention:
   p   dim b d
where dim is the dimension of the homological feature, b and d are the
birth and death of the feature and p is the characteristic of the field.

Usage: tda-features [options] input-file

`)
	fs.PrintDefaults()
}

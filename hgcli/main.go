package hgcli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cdr.dev/slog"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"oss.terrastruct.com/util-go/go2"
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/hiergram/hglayout"
	"oss.terrastruct.com/hiergram/hglib"
	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/log"
	"oss.terrastruct.com/hiergram/lib/version"
)

func Run(ctx context.Context, ms *xmain.State) (err error) {
	ctx = log.WithDefault(ctx)
	// These should be kept up-to-date with help.go
	watchFlag, err := ms.Opts.Bool("HIERGRAM_WATCH", "watch", "w", false, "watch for changes to input and re-run the layout. Use $HOST and $PORT to specify the listening address.\n(default localhost:0, which will open on a randomly available local port).")
	if err != nil {
		return err
	}
	hostFlag := ms.Opts.String("HOST", "host", "h", "localhost", "host listening address when used with watch")
	portFlag := ms.Opts.String("PORT", "port", "p", "0", "port listening address when used with watch")
	configFlag := ms.Opts.String("HIERGRAM_CONFIG", "config", "c", "", "path to a TOML file overriding the layout constants of the document")
	sectionHeightFlag, err := ms.Opts.Float64("HIERGRAM_SECTION_HEIGHT", "section-height", "", hglayout.DefaultOpts.SectionHeight, "height of one node section. Nodes are at least section-height*section-count tall")
	if err != nil {
		return err
	}
	sectionCountFlag, err := ms.Opts.Int64("HIERGRAM_SECTION_COUNT", "section-count", "", int64(hglayout.DefaultOpts.SectionCount), "number of sections in the smallest node")
	if err != nil {
		return err
	}
	anchorInsetFlag, err := ms.Opts.Float64("HIERGRAM_ANCHOR_INSET", "anchor-inset", "", hglayout.DefaultOpts.AnchorInset, "size of the anchor glyph edges attach to")
	if err != nil {
		return err
	}
	debugFlag, err := ms.Opts.Bool("DEBUG", "debug", "d", false, "print debug logs.")
	if err != nil {
		ms.Log.Warn.Printf("Invalid DEBUG flag value ignored")
		debugFlag = go2.Pointer(false)
	}
	versionFlag, err := ms.Opts.Bool("", "version", "v", false, "get the version")
	if err != nil {
		return err
	}

	err = ms.Opts.Flags.Parse(ms.Opts.Args)
	if !errors.Is(err, pflag.ErrHelp) && err != nil {
		return xmain.UsageErrorf("failed to parse flags: %v", err)
	}
	if errors.Is(err, pflag.ErrHelp) {
		help(ms)
		return nil
	}

	if *debugFlag {
		ctx = log.Leveled(ctx, slog.LevelDebug)
		ms.Env.Setenv("DEBUG", "1")
	}

	if len(ms.Opts.Flags.Args()) > 0 {
		switch ms.Opts.Flags.Arg(0) {
		case "validate":
			return validateCmd(ctx, ms)
		case "version":
			if len(ms.Opts.Flags.Args()) > 1 {
				return xmain.UsageErrorf("version subcommand accepts no arguments")
			}
			fmt.Fprintln(ms.Stdout, version.Version)
			return nil
		}
	}

	if len(ms.Opts.Flags.Args()) == 0 {
		if *versionFlag {
			fmt.Fprintln(ms.Stdout, version.Version)
			return nil
		}
		help(ms)
		return nil
	} else if len(ms.Opts.Flags.Args()) >= 3 {
		return xmain.UsageErrorf("too many arguments passed")
	}

	inputPath := ms.Opts.Flags.Arg(0)
	var outputPath string
	if len(ms.Opts.Flags.Args()) >= 2 {
		outputPath = ms.Opts.Flags.Arg(1)
	} else if inputPath == "-" {
		outputPath = "-"
	} else {
		outputPath = renameExt(inputPath, ".layout"+filepath.Ext(inputPath))
	}
	if inputPath != "-" {
		inputPath = ms.AbsPath(inputPath)
	}
	if outputPath != "-" {
		outputPath = ms.AbsPath(outputPath)
		if outputPath == inputPath {
			return xmain.UsageErrorf("output path must differ from the input path")
		}
	}

	// Flags left at their default do not override the document config.
	flagSet := make(map[string]struct{})
	ms.Opts.Flags.Visit(func(f *pflag.Flag) {
		flagSet[f.Name] = struct{}{}
	})
	explicit := func(env, name string) bool {
		_, ok := flagSet[name]
		return ok || ms.Env.Getenv(env) != ""
	}
	flagConfig := &hgtarget.Config{}
	if explicit("HIERGRAM_SECTION_HEIGHT", "section-height") {
		flagConfig.SectionHeight = sectionHeightFlag
	}
	if explicit("HIERGRAM_SECTION_COUNT", "section-count") {
		flagConfig.SectionCount = sectionCountFlag
	}
	if explicit("HIERGRAM_ANCHOR_INSET", "anchor-inset") {
		flagConfig.AnchorInset = anchorInsetFlag
	}

	var fileConfig *hgtarget.Config
	if *configFlag != "" {
		fileConfig, err = loadConfig(ms, *configFlag)
		if err != nil {
			return xmain.UsageErrorf("%v", err)
		}
	}
	opts := &hglib.CompileOptions{
		Config: fileConfig.Merge(flagConfig),
	}
	if _, err := hglayout.NewOpts(opts.Config); err != nil {
		return xmain.UsageErrorf("%v", err)
	}

	if *watchFlag {
		if inputPath == "-" {
			return xmain.UsageErrorf("-w[atch] cannot be combined with reading input from stdin")
		}
		w, err := newWatcher(ms, watcherOpts{
			compileOpts: opts,
			host:        *hostFlag,
			port:        *portFlag,
			inputPath:   inputPath,
			outputPath:  outputPath,
		})
		if err != nil {
			return err
		}
		return w.run(ctx)
	}

	ctx, cancel := log.WithTimeout(ctx, time.Minute*2)
	defer cancel()

	_, err = compile(ctx, ms, opts, inputPath, outputPath)
	if err != nil {
		return fmt.Errorf("failed to lay out %s: %w", ms.HumanPath(inputPath), err)
	}
	return nil
}

func loadConfig(ms *xmain.State, fp string) (*hgtarget.Config, error) {
	b, err := ms.ReadPath(ms.AbsPath(fp))
	if err != nil {
		return nil, err
	}
	cfg, err := hgtarget.ParseConfig(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fp, err)
	}
	return cfg, nil
}

func compile(ctx context.Context, ms *xmain.State, opts *hglib.CompileOptions, inputPath, outputPath string) (*hgtarget.Diagram, error) {
	start := time.Now()
	input, err := ms.ReadPath(inputPath)
	if err != nil {
		return nil, err
	}

	diagram, err := hgtarget.Parse(input, hgtarget.FormatFromPath(inputPath))
	if err != nil {
		return nil, err
	}
	for _, issue := range multierr.Errors(hglib.Validate(ctx, diagram)) {
		ms.Log.Warn.Printf("%s: %v", ms.HumanPath(inputPath), issue)
	}

	ms.Log.Debug.Printf("laying out %d nodes and %d edges", len(diagram.Nodes), len(diagram.Edges))
	diagram, err = hglib.Layout(ctx, diagram, opts)
	if err != nil {
		return nil, err
	}

	out, err := diagram.Marshal(hgtarget.FormatFromPath(outputPath))
	if err != nil {
		return nil, err
	}
	err = ms.WritePath(outputPath, out)
	if err != nil {
		return nil, err
	}
	if outputPath != "-" {
		ms.Log.Success.Printf("successfully laid out %s to %s in %s", ms.HumanPath(inputPath), ms.HumanPath(outputPath), time.Since(start))
	}
	return diagram, nil
}

// newExt must include leading .
func renameExt(fp string, newExt string) string {
	ext := filepath.Ext(fp)
	if ext == "" {
		return fp + newExt
	} else {
		return strings.TrimSuffix(fp, ext) + newExt
	}
}

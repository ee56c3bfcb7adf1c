package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pipscope/pkg/archive"
	"github.com/matzehuels/pipscope/pkg/audit"
	"github.com/matzehuels/pipscope/pkg/cache"
	"github.com/matzehuels/pipscope/pkg/integrations/pypi"
	"github.com/matzehuels/pipscope/pkg/manifest"
	"github.com/matzehuels/pipscope/pkg/render"
)

// auditConcurrency caps parallel audits when several targets are given.
const auditConcurrency = 4

// auditOpts holds the command-line flags for the audit command.
type auditOpts struct {
	pinVersion    string // audit a specific release instead of the latest
	maxDepth      int    // depth cutoff, 0 = unlimited
	allDeps       bool   // include conditional (environment-marked, extras) dependencies
	includeDev    bool   // include development and test dependencies
	license       bool   // show licenses in the tree and append the license report
	missing       bool   // append the missing packages report
	investigation bool   // append the investigation report
	report        bool   // append the comprehensive report
	jsonOut       bool   // emit the JSON export instead of text
	markdownOut   bool   // emit a markdown document instead of text
	output        string // output file (stdout if empty)
	refresh       bool   // bypass the registry cache
	retry         bool   // retry transient registry failures
	save          bool   // archive the report for pipscope history
	noCache       bool   // disable the registry cache entirely
}

// newAuditCmd creates the audit command.
//
// Each argument is either a PyPI package name or a local manifest file
// (requirements*.txt, pyproject.toml); the distinction is detected
// automatically. Several targets audit concurrently and report in
// argument order.
func newAuditCmd() *cobra.Command {
	var opts auditOpts

	cmd := &cobra.Command{
		Use:   "audit <package|manifest>...",
		Short: "Audit the transitive dependencies of Python packages",
		Long: `Audit the transitive dependencies of Python packages.

The audit resolves the full dependency tree from PyPI, normalizes
licenses, and flags packages whose metadata suggests native code
(compiled extensions, FFI build tools, platform-specific wheels).

Each argument is either a package name or a local manifest file;
pipscope detects which automatically.

Examples:
  pipscope audit requests                      # Single package from PyPI
  pipscope audit flask django --license        # Several packages with licenses
  pipscope audit ./requirements.txt            # Local manifest
  pipscope audit numpy --json -o report.json   # Machine-readable export
  pipscope audit torch --investigation --save  # Flag native code and archive`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyAuditConfig(&opts, cfg, cmd.Flags())
			return runAudit(cmd.Context(), cfg, args, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.pinVersion, "pin-version", "", "audit this release instead of the latest (package targets only)")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximum resolution depth (0 = unlimited)")
	cmd.Flags().BoolVarP(&opts.allDeps, "all-deps", "a", false, "include conditional dependencies (extras, environment markers)")
	cmd.Flags().BoolVarP(&opts.includeDev, "include-dev", "d", false, "include development and test dependencies")
	cmd.Flags().BoolVarP(&opts.license, "license", "l", false, "show licenses and append the license report")
	cmd.Flags().BoolVarP(&opts.missing, "missing", "m", false, "append the missing packages report")
	cmd.Flags().BoolVarP(&opts.investigation, "investigation", "i", false, "append the native-code investigation report")
	cmd.Flags().BoolVarP(&opts.report, "report", "r", false, "append the comprehensive report")
	cmd.Flags().BoolVarP(&opts.jsonOut, "json", "j", false, "emit the JSON export")
	cmd.Flags().BoolVar(&opts.markdownOut, "markdown", false, "emit a markdown report")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the registry cache")
	cmd.Flags().BoolVar(&opts.retry, "retry", false, "retry transient registry failures")
	cmd.Flags().BoolVar(&opts.save, "save", false, "archive the report (reopen with pipscope history)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the registry cache")

	return cmd
}

// applyAuditConfig fills flag defaults from the config file. Explicitly
// set flags always win.
func applyAuditConfig(opts *auditOpts, cfg *fileConfig, flags *pflag.FlagSet) {
	if cfg.Audit.MaxDepth > 0 && !flags.Changed("max-depth") {
		opts.maxDepth = cfg.Audit.MaxDepth
	}
	if cfg.Audit.License && !flags.Changed("license") {
		opts.license = true
	}
	if cfg.Audit.AllDeps && !flags.Changed("all-deps") {
		opts.allDeps = true
	}
	if cfg.Audit.Retry && !flags.Changed("retry") {
		opts.retry = true
	}
}

func runAudit(ctx context.Context, cfg *fileConfig, targets []string, opts *auditOpts) error {
	logger := loggerFromContext(ctx)

	if opts.output != "" && len(targets) > 1 {
		return errors.New("--output supports a single audit target")
	}

	source := newSource(ctx, cfg, opts, logger)

	runs := make([]*audit.Run, len(targets))
	if len(targets) == 1 {
		run, err := auditWithProgress(ctx, source, targets[0], opts, logger)
		if err != nil {
			return err
		}
		runs[0] = run
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(auditConcurrency)
		for i, target := range targets {
			g.Go(func() error {
				prog := newProgress(logger)
				run, err := auditTarget(gctx, source, target, opts, nil)
				if err != nil {
					return fmt.Errorf("%s: %w", target, err)
				}
				prog.done(fmt.Sprintf("Resolved %s (%d packages)", target, run.Processed()))
				runs[i] = run
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for _, run := range runs {
		if err := reportRun(ctx, run, opts, logger); err != nil {
			return err
		}
	}
	return nil
}

// auditWithProgress resolves a single target, animating a spinner with
// a live package count when stderr is a terminal and verbose logging is
// off.
func auditWithProgress(ctx context.Context, source audit.Source, target string, opts *auditOpts, logger *charmlog.Logger) (*audit.Run, error) {
	if !stderrIsTerminal() || logger.GetLevel() <= charmlog.DebugLevel {
		prog := newProgress(logger)
		run, err := auditTarget(ctx, source, target, opts, nil)
		if err != nil {
			return nil, err
		}
		prog.done(fmt.Sprintf("Resolved %s (%d packages)", target, run.Processed()))
		return run, nil
	}

	spin := newSpinnerWithContext(ctx, "Processing dependencies...")
	spin.Start()
	run, err := auditTarget(ctx, source, target, opts, spin)
	if err != nil {
		spin.StopWithError(fmt.Sprintf("Audit of %s failed", target))
		return nil, err
	}
	spin.StopWithSuccess(fmt.Sprintf("Processed %d unique packages.", run.Processed()))
	return run, nil
}

// auditTarget resolves one target, which is either a manifest file or a
// package name.
func auditTarget(ctx context.Context, source audit.Source, target string, opts *auditOpts, spin *Spinner) (*audit.Run, error) {
	aopts := audit.Options{
		Version:            opts.pinVersion,
		MaxDepth:           opts.maxDepth,
		IncludeConditional: opts.allDeps,
		IncludeDev:         opts.includeDev,
		Licenses:           true,
		Refresh:            opts.refresh,
	}
	if spin != nil {
		aopts.OnPackage = func(n int, _ string) {
			spin.SetMessage(fmt.Sprintf("Processing dependencies... (%d packages)", n))
		}
	}

	if manifest.Detect(target) {
		m, err := manifest.Read(target)
		if err != nil {
			return nil, err
		}
		if len(m.Requirements) == 0 {
			return nil, fmt.Errorf("no dependencies found in %s", target)
		}
		return audit.ResolveSeeds(ctx, source, m.Name, m.Requirements, aopts)
	}

	// A missing root is not an error: the run completes with an empty
	// graph and the missing report names the root.
	return audit.Resolve(ctx, source, target, aopts)
}

// reportRun writes one run in the requested format. Terminal chrome
// (banners, stats) is skipped when the report goes to a file.
func reportRun(ctx context.Context, run *audit.Run, opts *auditOpts, logger *charmlog.Logger) error {
	out, path, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	toTerminal := path == ""

	var rep *audit.Report
	if opts.jsonOut || opts.markdownOut || opts.save {
		rep = run.Export()
	}

	switch {
	case opts.jsonOut:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	case opts.markdownOut:
		if err := render.WriteMarkdown(out, rep); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	default:
		if toTerminal {
			printSection(fmt.Sprintf("Dependency audit: %s", run.Root))
		}
		run.WriteTree(out, opts.license, true)
		_, rootMissing := run.MissingFor(run.RootName)
		switch {
		case opts.report:
			run.WriteReport(out, opts.license)
		case opts.missing, rootMissing:
			run.WriteMissingReport(out)
		case opts.license:
			run.WriteLicenseReport(out)
		case opts.investigation:
			run.WriteInvestigationReport(out)
		}
		if toTerminal {
			printRunStats(run.Processed(), len(run.Missing()), len(run.Flagged()))
		}
	}

	if path != "" {
		logger.Infof("Wrote report to %s", path)
	}

	if opts.save {
		store, err := archive.NewFileStore(reportsDir())
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		if err := store.Save(ctx, rep); err != nil {
			return fmt.Errorf("archive report: %w", err)
		}
		printSuccess("Archived report %s", rep.RunID)
		printNextStep("Reopen with", "pipscope history show "+rep.RunID)
	}
	return nil
}

// newSource builds the PyPI metadata source with the configured cache
// backend.
func newSource(ctx context.Context, cfg *fileConfig, opts *auditOpts, logger *charmlog.Logger) audit.Source {
	client := pypi.NewClient(newCacheBackend(ctx, cfg, opts.noCache, logger), cfg.cacheTTL())
	if opts.retry {
		client.EnableRetry()
	}
	return client
}

// newCacheBackend picks the cache backend: none, Redis when
// configured, otherwise files under the XDG cache directory. Cache
// failures degrade to no caching rather than failing the audit.
func newCacheBackend(ctx context.Context, cfg *fileConfig, noCache bool, logger *charmlog.Logger) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	if addr := cfg.Cache.RedisAddr; addr != "" {
		c, err := cache.NewRedisCache(ctx, addr, "", 0)
		if err == nil {
			return c
		}
		logger.Warnf("Redis cache unavailable (%v), falling back to file cache", err)
	}
	c, err := cache.NewFileCache(cacheDir())
	if err != nil {
		logger.Warnf("File cache unavailable (%v), caching disabled", err)
		return cache.NewNullCache()
	}
	return c
}

func stderrIsTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// nopCloser wraps an io.Writer with a no-op Close method so stdout can
// stand in for an output file.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a writer for the given path, or stdout when the
// path is empty. The returned path is empty for stdout.
func openOutput(path string) (io.WriteCloser, string, error) {
	if path == "" {
		return nopCloser{os.Stdout}, "", nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create %s: %w", path, err)
	}
	return f, path, nil
}

// comkit — Comment Kit: source comment extraction and translation round-trip tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/srctrans/comkit/bulkfile"
	"github.com/srctrans/comkit/comment"
	"github.com/srctrans/comkit/config"
	"github.com/srctrans/comkit/extract"
	"github.com/srctrans/comkit/i18n"
	"github.com/srctrans/comkit/manifest"
	"github.com/srctrans/comkit/reinsert"
	"github.com/srctrans/comkit/report"
	"github.com/srctrans/comkit/scan"
	"github.com/srctrans/comkit/segfile"
	"github.com/srctrans/comkit/tsvfile"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "comkit",
		Short: "Comment Kit: extract, translate, reinsert source comments",
		Long: `comkit — Comment Kit: source comment extraction and translation round-trip.

Extraction scans source files, pulls every comment out into translation
export files, and writes an intermediary copy of each source where comments
are replaced by inert placeholder tokens. After the exports have been
translated, re-insertion substitutes the translations back into the
intermediary files and verifies the result.

Commands:
  status      Show run status (manifest, exports, source drift)
  extract     Extract comments from source files
  reinsert    Reinsert translated comments
  version     Show version information

Translation formats:
  segmented   one "index text" line per comment segment
  tsv         one line per comment block, prefixed with its line number
  bulk        comment bodies separated by unique delimiter lines`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Run root directory")

	root.AddCommand(
		newStatusCmd(),
		newExtractCmd(),
		newReinsertCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, stopping...")
		cancel()
	}()

	return ctx, cancel
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("comkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// status (read-only: run info from the manifest)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show run status"),
		Long: `Show the state of the current extraction run.

Displays the manifest summary, which export files exist, and whether any
source changed since extraction. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%sRun%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	absRoot, _ := filepath.Abs(rootDir)
	fmt.Fprintf(os.Stderr, "  Root:         %s\n", absRoot)
	fmt.Fprintf(os.Stderr, "  Extensions:   %s\n", strings.Join(cfg.Extensions, " "))

	m, err := manifest.Load(rootDir)
	if errors.Is(err, manifest.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "  Extraction:   none (run 'comkit extract')\n\n")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "  Extraction:   %d file(s), %d block(s), %d segment(s)\n",
		len(m.Files), m.BlockCount(), m.SegmentCount())
	fmt.Fprintf(os.Stderr, "  Tab escaping: %v\n", m.EscapeTabs)

	for _, name := range []string{cfg.Exports.Segmented, cfg.Exports.Tabular, cfg.Exports.Bulk, cfg.Report} {
		state := "missing"
		if _, err := os.Stat(filepath.Join(rootDir, name)); err == nil {
			state = "present"
		}
		fmt.Fprintf(os.Stderr, "  Export:       %-40s %s\n", name, state)
	}

	if drifted := m.Drifted(rootDir, extract.Checksum); len(drifted) > 0 {
		for _, p := range drifted {
			logWarning("%s: source changed since extraction", p)
		}
	} else {
		fmt.Fprintf(os.Stderr, "  Sources:      unchanged since extraction\n")
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// ---------------------------------------------------------------------------
// extract (sources -> exports + intermediary tree + manifest)
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	var (
		extensions      []string
		escapeTabs      bool
		decoration      string
		literalAware    bool
		reportFile      string
		intermediaryDir string
		parallel        bool
		maxConcurrent   int
	)

	cmd := &cobra.Command{
		Use:   "extract [paths...]",
		Short: i18n.T("Extract comments from source files"),
		Long: `Extract comments from source files.

Scans the given files and directories (default: the run root) for sources
matching the extension list, extracts every comment, and writes:

  - the three translation export files (segmented, tsv, bulk)
  - an xlsx report of every extracted segment
  - the intermediary tree (sources with comments replaced by placeholders)
  - comkit.lock, the run manifest re-insertion reads

Examples:
  # Extract from the current directory with defaults
  comkit extract

  # C++ headers only, no tab escaping
  comkit extract -e .hpp -e .h --escape-tabs=false src/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("extensions") {
				cfg.Extensions = extensions
			}
			if cmd.Flags().Changed("escape-tabs") {
				cfg.EscapeTabs = &escapeTabs
			}
			if cmd.Flags().Changed("decoration") {
				cfg.Decoration = decoration
			}
			if cmd.Flags().Changed("literal-aware") {
				cfg.LiteralAware = literalAware
			}
			if cmd.Flags().Changed("report") {
				cfg.Report = reportFile
			}
			if cmd.Flags().Changed("intermediary-dir") {
				cfg.IntermediaryDir = intermediaryDir
			}
			if !parallel {
				maxConcurrent = 1
			}
			return runExtract(args, cfg, maxConcurrent)
		},
	}

	cmd.Flags().StringSliceVarP(&extensions, "extensions", "e", nil, "Source extensions to scan (default from .comkit.yaml)")
	cmd.Flags().BoolVar(&escapeTabs, "escape-tabs", true, "Escape tab characters in export files")
	cmd.Flags().StringVar(&decoration, "decoration", "*", "Decoration characters stripped from block comment lines")
	cmd.Flags().BoolVar(&literalAware, "literal-aware", false, "Skip comment markers inside string literals")
	cmd.Flags().StringVarP(&reportFile, "report", "o", "", "Report xlsx file name")
	cmd.Flags().StringVar(&intermediaryDir, "intermediary-dir", "", "Directory for the intermediary tree")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Enable parallel extraction")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 3, "Maximum concurrent files (with --parallel)")

	return cmd
}

func runExtract(paths []string, cfg *config.File, maxConcurrent int) error {
	if len(paths) == 0 {
		paths = []string{rootDir}
	}

	files, err := extract.FindSources(paths, cfg.Extensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logWarning(i18n.T("No source files found"))
		return nil
	}
	logInfo("Scanning %d source file(s)", len(files))

	ctx, cancel := signalContext()
	defer cancel()

	res, err := extract.Run(ctx, files, extract.RunOptions{
		Root: rootDir,
		Scan: scan.Options{
			LiteralAware: cfg.LiteralAware,
			Decoration:   cfg.Decoration,
		},
		MaxConcurrent: maxConcurrent,
		OnLog:         logInfo,
		OnError:       logWarning,
	})
	if err != nil {
		return err
	}

	units := res.Units()
	escape := cfg.ShouldEscape()

	if err := segfile.WriteFile(filepath.Join(rootDir, cfg.Exports.Segmented), units, escape); err != nil {
		return err
	}
	if err := tsvfile.WriteFile(filepath.Join(rootDir, cfg.Exports.Tabular), units, escape); err != nil {
		return err
	}
	if err := bulkfile.WriteFile(filepath.Join(rootDir, cfg.Exports.Bulk), units, escape); err != nil {
		return err
	}
	if err := report.Write(filepath.Join(rootDir, cfg.Report), report.Rows(units)); err != nil {
		return err
	}
	if err := extract.WriteTree(res, filepath.Join(rootDir, cfg.IntermediaryDir)); err != nil {
		return err
	}

	checksums := make(map[string]string, len(res.Files))
	for _, fr := range res.Files {
		checksums[fr.Rel] = fr.Checksum
	}
	m := manifest.Build(units, checksums, escape, cfg.Decoration)
	if err := m.Save(rootDir); err != nil {
		return err
	}

	if n := len(res.Skipped); n > 0 {
		logWarning("%d file(s) skipped", n)
	}
	logSuccess("%s: %d segment(s) from %d file(s)", i18n.T("Done"), res.SegmentCount(), len(res.Files))
	return nil
}

// ---------------------------------------------------------------------------
// reinsert (translated file + intermediary tree -> output tree)
// ---------------------------------------------------------------------------

func newReinsertCmd() *cobra.Command {
	var (
		format       string
		translations string
		outputDir    string
	)

	cmd := &cobra.Command{
		Use:   "reinsert",
		Short: i18n.T("Reinsert translated comments"),
		Long: `Reinsert translated comments into the intermediary tree.

Reads the translated file in the format named by --format, substitutes the
translations for the placeholder tokens in every intermediary file, and
writes the result to the output directory. The translated file's format is
never guessed: the grammars are ambiguous between each other, so the
format must be stated explicitly.

Examples:
  comkit reinsert --format segmented
  comkit reinsert --format bulk --translations done.txt --output-dir out/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("translations") {
				cfg.Translations = translations
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			return runReinsert(format, cfg)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Translated file format (required): segmented, tsv, bulk")
	cmd.Flags().StringVar(&translations, "translations", "", "Translated file to read (default translated_comments.txt)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the reinserted tree")
	cmd.MarkFlagRequired("format")

	return cmd
}

func runReinsert(format string, cfg *config.File) error {
	m, err := manifest.Load(rootDir)
	if err != nil {
		return err
	}

	path := filepath.Join(rootDir, cfg.Translations)
	var translations map[comment.Index]string
	switch format {
	case "segmented":
		translations, err = segfile.ParseFile(path)
	case "tsv":
		translations, err = tsvfile.ParseFile(path, m.BlockRefs())
	case "bulk":
		translations, err = bulkfile.ParseFile(path, m.BlockRefs())
	default:
		return fmt.Errorf("unknown format %q (valid: segmented, tsv, bulk)", format)
	}
	if err != nil {
		return err
	}
	logInfo("Parsed %d translation(s) from %s", len(translations), path)

	ctx, cancel := signalContext()
	defer cancel()

	res, err := reinsert.Run(ctx, m, translations, reinsert.Options{
		Root:            rootDir,
		IntermediaryDir: filepath.Join(rootDir, cfg.IntermediaryDir),
		OutputDir:       filepath.Join(rootDir, cfg.OutputDir),
		Unescape:        m.EscapeTabs,
		OnLog:           logInfo,
		OnError:         logWarning,
	})
	if err != nil {
		return err
	}

	if n := len(res.Warnings()); n > 0 {
		logWarning("Completed with %d warning(s); review the output tree", n)
	} else {
		logSuccess("%s: %d placeholder(s) substituted across %d file(s)",
			i18n.T("Done"), res.Stats.Substituted, len(res.Files))
	}
	return nil
}

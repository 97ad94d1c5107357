// docwalker extracts docstring summaries of marked Python functions.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/docwalker/internal/config"
	"github.com/phobologic/docwalker/internal/discover"
	"github.com/phobologic/docwalker/internal/loader"
	"github.com/phobologic/docwalker/internal/output"
)

var version = "dev"

const rootLongDesc = `
docwalker walks a directory of Python sources and emits one document per file
that contains a function decorated with a call to the marker factory
(default: @register_tool()). Each document lists the module docstring and the
name and docstring of every marked function, including methods of classes.

Files that fail to read or parse are logged and skipped unless --strict is set,
in which case the first failure aborts the run.

Defaults come from DOCWALKER_* environment variables; flags override them.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type cliApp struct {
	stdout  io.Writer
	stderr  io.Writer
	cfg     config.Config
	verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	app := &cliApp{stdout: stdout, stderr: stderr, cfg: config.Load()}
	cmd := &cobra.Command{
		Use:           "docwalker [flags] [directory]",
		Short:         "Extract docstrings of marked Python functions",
		Long:          strings.TrimSpace(rootLongDesc),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Version = version
	cmd.SetVersionTemplate("docwalker {{.Version}}\n")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringVarP(&app.cfg.Marker, "marker", "m", app.cfg.Marker, "decorator factory name that marks a function")
	flags.BoolVar(&app.cfg.SkipInitPy, "skip-initpy", app.cfg.SkipInitPy, "skip __init__.py files")
	flags.BoolVar(&app.cfg.SkipTests, "skip-tests", app.cfg.SkipTests, "skip test modules (tests/ directories, test_*.py, *_test.py)")
	flags.BoolVar(&app.cfg.RespectIgnore, "respect-ignore", app.cfg.RespectIgnore, "skip hidden, virtualenv and git-ignored paths")
	flags.BoolVar(&app.cfg.FailOnMalformed, "strict", app.cfg.FailOnMalformed, "abort on the first unreadable or malformed file")
	flags.Int64Var(&app.cfg.MaxFileSize, "max-file-size", app.cfg.MaxFileSize, "skip files larger than this many bytes (0 disables)")
	flags.IntVarP(&app.cfg.Workers, "workers", "j", app.cfg.Workers, "number of files parsed concurrently")
	flags.StringVarP(&app.cfg.Format, "format", "f", app.cfg.Format, "output format: "+strings.Join(config.Formats, ", "))
	flags.StringVar(&app.cfg.CachePath, "cache", app.cfg.CachePath, "cache file path")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "log per-file progress")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		return app.execute(cmd.Context(), root)
	}

	cmd.AddCommand(newInitCmd(stdout, stderr))
	cmd.AddCommand(newCompletionCmd(cmd))
	return cmd
}

func (app *cliApp) execute(ctx context.Context, root string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.cfg.Validate(); err != nil {
		return err
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	level := slog.LevelInfo
	if app.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(app.stderr, &slog.HandlerOptions{Level: level}))

	l := loader.New(loader.OptionsFromConfig(app.cfg), log)

	key := app.cacheKey(root)
	if app.cfg.CachePath != "" {
		files, err := l.Files(root)
		if err != nil {
			return err
		}
		if cacheIsFresh(app.cfg.CachePath, root, files) {
			data, err := os.ReadFile(app.cfg.CachePath)
			if err == nil && bytes.HasPrefix(data, []byte(key)) {
				log.Debug("serving cached output", "cache", app.cfg.CachePath)
				_, err = app.stdout.Write(data[len(key):])
				return err
			}
		}
	}

	docs, err := l.LoadData(ctx, root)
	if err != nil {
		return err
	}

	var buf strings.Builder
	if err := output.Write(&buf, app.cfg.Format, filepath.Base(root), docs); err != nil {
		return err
	}

	if app.cfg.CachePath != "" {
		if err := os.WriteFile(app.cfg.CachePath, []byte(key+buf.String()), 0o644); err != nil {
			log.Warn("failed to write cache", "cache", app.cfg.CachePath, "error", err)
		}
	}

	_, err = io.WriteString(app.stdout, buf.String())
	return err
}

// cacheKey is the first line of a cache file. A cache is only served when it
// was written for the same root and output-affecting settings.
func (app *cliApp) cacheKey(root string) string {
	c := app.cfg
	return fmt.Sprintf("# docwalker-cache version=%s root=%q format=%s marker=%s skip-initpy=%t skip-tests=%t respect-ignore=%t strict=%t max-file-size=%d\n",
		version, root, c.Format, c.Marker, c.SkipInitPy, c.SkipTests, c.RespectIgnore, c.FailOnMalformed, c.MaxFileSize)
}

// cacheIsFresh reports whether the cache file is newer than every source file.
func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell %q", args[0])
			}
		},
	}
}

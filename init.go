package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	sentinelStart = "<!-- docwalker:start -->"
	sentinelEnd   = "<!-- docwalker:end -->"
)

// newInitCmd builds the `docwalker init` subcommand, which writes (or updates)
// a docwalker usage section in a CLAUDE.md file.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path-to-CLAUDE.md]",
		Short: "Write a docwalker usage section to a CLAUDE.md file",
		Long: `Write a docwalker usage section to a CLAUDE.md file. The section is wrapped in
sentinel comments so it can be updated in place on subsequent runs without
touching surrounding content. Creates the file if it does not exist.

path-to-CLAUDE.md defaults to ./CLAUDE.md.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			section := generateSection()

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			path := "CLAUDE.md"
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(stderr, "wrote docwalker section to %s\n", path)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the full sentinel-wrapped docwalker documentation block.
func generateSection() string {
	body := `## docwalker: Tool Docstrings

Run ` + "`docwalker`" + ` via the Bash tool to list every Python function exposed with
` + "`@register_tool()`" + ` together with its docstring, grouped by module.

**Availability:** Check with ` + "`docwalker --version`" + ` first; skip gracefully if
not found.

**Run it:**
` + "```" + `bash
docwalker                                    # current directory
docwalker /path/to/repo                      # explicit path
docwalker -m expose                          # different decorator factory
docwalker -f json                            # machine-readable output
docwalker --strict                           # fail on the first malformed file
docwalker --cache .docwalker-cache           # cache output (fast on repeat runs)
` + "```" + `

**Caching:** Use ` + "`--cache <file>`" + ` to avoid re-parsing on every call. Add the
cache file to ` + "`.gitignore`" + `. A conventional path is ` + "`.docwalker-cache`" + `.

**All flags:** ` + "`docwalker --help`" + `

**How to use the output:**

1. **Start from the module line.** Each document begins with
   ` + "`Module: <name>`" + ` and, when present, the module docstring.

2. **Function blocks are the tool surface.** Every ` + "`Function: <name>`" + ` block is a
   registered tool; the lines that follow are its docstring verbatim.

3. **Missing files are intentional.** Modules without a registered tool are
   omitted entirely.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}

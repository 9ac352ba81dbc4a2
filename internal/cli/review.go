package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/acra/internal/cache"
	"github.com/dshills/acra/internal/output"
	"github.com/dshills/acra/internal/review"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Snippet review flags
var (
	flagFile      string
	flagLanguage  string
	flagRulesOnly bool
	flagFormat    string
	flagOut       string
	flagFailOn    string
	flagNoRedact  bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code locally",
	Long:  "Review code without the API. Use subcommands to specify what to review.",
}

var reviewSnippetCmd = &cobra.Command{
	Use:   "snippet",
	Short: "Review code from a file or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !validFailOn(flagFailOn) {
			return fmt.Errorf("invalid --fail-on %q (none, info, warn, danger)", flagFailOn)
		}
		writer, err := output.GetWriter(flagFormat)
		if err != nil {
			return err
		}

		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if flagNoRedact {
			cfg.Privacy.RedactSecrets = false
			fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
		}

		code, err := readSnippet(cmd.InOrStdin())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		language := flagLanguage
		if language == "" {
			language = inferLanguage(flagFile)
		}

		start := time.Now()
		var res review.Result
		if flagRulesOnly {
			res = review.Result{Text: review.Render(code, language), Provider: review.RulesProviderName}
		} else {
			opts := []review.Option{review.WithLogger(log)}
			c, err := cache.New(cfg.Cache)
			if err != nil {
				log.Warn("cache unavailable", "error", err)
			} else if c.Enabled() {
				opts = append(opts, review.WithCache(c))
			}
			res = review.NewChain(cfg, opts...).GenerateReview(context.Background(), code, language)
		}

		report := review.NewReport(code, language, res, time.Since(start))
		report.Version = version
		report.RunID = uuid.NewString()

		if err := writeReport(cmd, writer, report); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		for _, f := range report.Findings {
			if review.MeetsThreshold(f.Severity, flagFailOn) {
				exitCode = ExitFindings
				return nil
			}
		}
		return nil
	},
}

func readSnippet(stdin io.Reader) (string, error) {
	if flagFile != "" {
		data, err := os.ReadFile(flagFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", flagFile, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func writeReport(cmd *cobra.Command, writer output.Writer, report *review.Report) error {
	if flagOut == "" {
		return writer.Write(cmd.OutOrStdout(), report)
	}
	f, err := os.Create(flagOut)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writer.Write(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func validFailOn(s string) bool {
	switch s {
	case "", "none", "info", "warn", "danger":
		return true
	}
	return false
}

// inferLanguage maps a file extension to a language name the rule engine
// understands. Unknown extensions yield "".
func inferLanguage(path string) string {
	langMap := map[string]string{
		".go":   "go",
		".py":   "python",
		".js":   "javascript",
		".mjs":  "javascript",
		".cjs":  "javascript",
		".jsx":  "javascript",
		".ts":   "typescript",
		".tsx":  "typescript",
		".java": "java",
		".rs":   "rust",
		".rb":   "ruby",
		".c":    "c",
		".cpp":  "cpp",
		".cs":   "csharp",
		".php":  "php",
		".sh":   "bash",
		".sql":  "sql",
	}
	return langMap[strings.ToLower(filepath.Ext(path))]
}

func init() {
	reviewCmd.AddCommand(reviewSnippetCmd)

	f := reviewSnippetCmd.Flags()
	f.StringVar(&flagFile, "file", "", "Read code from this file instead of stdin")
	f.StringVar(&flagLanguage, "language", "", "Language hint (default: inferred from --file)")
	f.BoolVar(&flagRulesOnly, "rules-only", false, "Skip remote providers and use the rule engine")
	f.StringVar(&flagFormat, "format", "text", "Output format (text, json, markdown)")
	f.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	f.StringVar(&flagFailOn, "fail-on", "none", "Exit 1 when a finding meets this severity (none, info, warn, danger)")
	f.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

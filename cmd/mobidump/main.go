// Command mobidump prints metadata and, optionally, the decoded text of a
// MOBI/PalmDOC file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/htol/mobidec/book"
)

// CLIOptions holds the parsed command-line flags for a single run.
type CLIOptions struct {
	Path      string
	PrintText bool
	Strict    bool
	LogLevel  string
}

func normalizeLogLevel(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

func parseSlogLevel(level string) (slog.Level, error) {
	switch normalizeLogLevel(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

func buildLogger(level string) (*slog.Logger, error) {
	lvl, err := parseSlogLevel(level)
	if err != nil {
		return nil, err
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(h), nil
}

func readCLIOptions(cmd *cobra.Command, args []string) (CLIOptions, error) {
	opts := CLIOptions{Path: args[0]}

	printText, err := cmd.Flags().GetBool("text")
	if err != nil {
		return opts, err
	}
	opts.PrintText = printText

	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return opts, err
	}
	opts.Strict = strict

	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return opts, err
	}
	opts.LogLevel = normalizeLogLevel(level)

	return opts, nil
}

func runDump(cmd *cobra.Command, args []string) error {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}

	logger, err := buildLogger(opts.LogLevel)
	if err != nil {
		return err
	}

	logger.Debug("opening book", "path", opts.Path)
	b, err := book.Open(opts.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", opts.Path, err)
	}

	fmt.Printf("Title:       %s\n", b.Title())
	if author, ok := b.Author(); ok {
		fmt.Printf("Author:      %s\n", author)
	}
	if publisher, ok := b.Publisher(); ok {
		fmt.Printf("Publisher:   %s\n", publisher)
	}
	if isbn, ok := b.ISBN(); ok {
		fmt.Printf("ISBN:        %s\n", isbn)
	}
	fmt.Printf("Language:    %s\n", b.Language())
	fmt.Printf("Type:        %s\n", b.MobiType())
	fmt.Printf("Compression: %s\n", b.Compression())
	fmt.Printf("Encryption:  %s\n", b.Encryption())

	if !opts.PrintText {
		return nil
	}

	logger.Debug("decoding text", "strict", opts.Strict)
	var text string
	if opts.Strict {
		text, err = b.TextStrict()
	} else {
		text, err = b.Text()
	}
	if err != nil {
		return fmt.Errorf("decode text: %w", err)
	}
	fmt.Println()
	fmt.Println(text)

	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mobidump <file.mobi>",
		Version: "0.1.0",
		Short:   "Dump metadata and text from a MOBI/PalmDOC file",
		Long:    "mobidump parses a MOBI/PalmDOC e-book file and prints its metadata, optionally decoding and printing the full text.",
		Args:    cobra.ExactArgs(1),
		RunE:    runDump,
	}
	cmd.Flags().Bool("text", false, "also decode and print the book's full text")
	cmd.Flags().Bool("strict", false, "fail on invalid text-encoding sequences instead of substituting replacement characters")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.SetVersionTemplate("mobidump {{.Version}}\n")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

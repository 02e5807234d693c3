package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc-distill/internal/compress"
)

// compressFlagKeys maps config keys to the compress flags that override them.
var compressFlagKeys = map[string]string{
	"compression.lower_case":      "lower",
	"compression.stop_words_file": "stop-words",
}

func newCompressCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress FILE",
		Short: "Compress an existing text or Markdown file for LLMs",
		Long: `Compress removes punctuation and English stop words from FILE and writes
the result to FILE's directory as <name>_compressed.md. Use --output - to
print to stdout instead.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd, compressFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd, v, args[0])
		},
	}

	cmd.Flags().Bool("lower", false, "lowercase the output")
	cmd.Flags().String("stop-words", "", "file of extra stop words, one per line")
	cmd.Flags().StringP("output", "o", "", "output file, or - for stdout")

	return cmd
}

func runCompress(cmd *cobra.Command, v *viper.Viper, src string) error {
	lower := v.GetBool("compression.lower_case")
	stopFile := v.GetString("compression.stop_words_file")
	outPath, _ := cmd.Flags().GetString("output")

	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path '%s' does not exist", src)
		}
		return fmt.Errorf("reading %s: %w", src, err)
	}

	comp, err := newCompressor(stopFile)
	if err != nil {
		return err
	}
	text := string(data)
	compressed := comp.Compress(text, lower)

	if outPath == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), compressed+"\n")
		return err
	}
	if outPath == "" {
		base := filepath.Base(src)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		outPath = filepath.Join(filepath.Dir(src), stem+"_compressed.md")
	}

	if err := os.WriteFile(outPath, []byte(compressed), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	stats := compress.Measure(text, compressed)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d -> %d words, -%.0f%%)\n", color.GreenString("Compressed:"), outPath,
		stats.WordsBefore, stats.WordsAfter, stats.Reduction()*100)
	return nil
}

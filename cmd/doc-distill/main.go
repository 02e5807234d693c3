// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doc-distill CLI, which converts
// PDFs to Markdown and optionally writes a token-reduced copy for LLM input.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc-distill/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	appName   = "doc-distill"
	envPrefix = "DOC_DISTILL"
)

// newRootCmd builds the command tree. Each call gets its own viper instance
// so that flags, environment and config file never leak between invocations.
func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   appName,
		Short: "Convert PDFs to Markdown and optionally compress them for LLMs",
		Long: `doc-distill converts PDF files to Markdown with one "## Page N" section per
page. Pages without embedded text can be recovered with OCR (Tesseract).
The Markdown can additionally be compressed for language models by dropping
punctuation and English stop words.

Settings come from flags, DOC_DISTILL_* environment variables, or a YAML
config file (./doc-distill.yaml or ~/.config/doc-distill/doc-distill.yaml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			cfgFile, _ := cmd.Flags().GetString("config")
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().String("config", "", "config file (default: ./doc-distill.yaml or ~/.config/doc-distill/doc-distill.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newConvertCmd(v),
		newCompressCmd(v),
		newHistoryCmd(v),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// initConfig wires defaults, environment variables and the config file into v.
func initConfig(v *viper.Viper, cfgFile string) error {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("using config file")
		return nil
	}

	v.SetConfigName(appName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", appName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	log.Debug().Str("file", v.ConfigFileUsed()).Msg("using config file")
	return nil
}

func setDefaults(v *viper.Viper) {
	d := types.DefaultConversionConfig()
	v.SetDefault("backend", string(d.Backend))
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("ocr.enabled", d.OCR.Enabled)
	v.SetDefault("ocr.threshold", d.OCR.Threshold)
	v.SetDefault("ocr.zoom", d.OCR.Zoom)
	v.SetDefault("ocr.strict", d.OCR.Strict)
	v.SetDefault("ocr.engine", string(d.OCR.Engine))
	v.SetDefault("ocr.binary", d.OCR.Binary)
	v.SetDefault("ocr.image", d.OCR.Image)
	v.SetDefault("compression.enabled", d.Compression.Enabled)
	v.SetDefault("compression.lower_case", d.Compression.LowerCase)
	v.SetDefault("compression.stop_words_file", d.Compression.StopWordsFile)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.skip_unchanged", d.History.SkipUnchanged)
}

// bindFlags binds each config key in keys to the named flag of cmd. Commands
// call it from PreRunE so that only the running command's flags are bound
// when several commands share a key.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("binding %s: no flag --%s on %s", key, name, cmd.Name())
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// conversionConfig reads the effective conversion settings from v.
func conversionConfig(v *viper.Viper) types.ConversionConfig {
	cfg := types.ConversionConfig{
		Backend:   types.PDFBackend(v.GetString("backend")),
		OutputDir: v.GetString("output_dir"),
		Jobs:      v.GetInt("jobs"),
		OCR: types.OCRConfig{
			Enabled:   v.GetBool("ocr.enabled"),
			Threshold: v.GetInt("ocr.threshold"),
			Zoom:      v.GetFloat64("ocr.zoom"),
			Strict:    v.GetBool("ocr.strict"),
			Engine:    types.OCREngineKind(v.GetString("ocr.engine")),
			Binary:    v.GetString("ocr.binary"),
			Image:     v.GetString("ocr.image"),
		},
		Compression: types.CompressionConfig{
			Enabled:       v.GetBool("compression.enabled"),
			LowerCase:     v.GetBool("compression.lower_case"),
			StopWordsFile: v.GetString("compression.stop_words_file"),
		},
		History: types.HistoryConfig{
			Path:          v.GetString("history.path"),
			SkipUnchanged: v.GetBool("history.skip_unchanged"),
		},
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	if cfg.History.SkipUnchanged && cfg.History.Path == "" {
		cfg.History.Path = types.DefaultHistoryPath
	}
	return cfg
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

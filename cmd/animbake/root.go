package main

import (
	"fmt"
	"io"
	"os"

	"github.com/binzume/animbake/baker"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var baseDirFlag string
	var verbose bool
	var summary bool

	cmd := &cobra.Command{
		Use:           "animbake",
		Short:         "Bake skeletal animations onto a character model and export GLB files",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), verbose)
			defer logger.Sync() //nolint:errcheck

			cfg, err := loadConfig(configFlag, baseDirFlag)
			if err != nil {
				return err
			}
			results, err := baker.New(cfg, baker.WithOutput(cmd.OutOrStdout()), baker.WithLogger(logger)).Run()
			if err != nil {
				return err
			}
			if summary {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, baker.RenderSummary(results, shouldColorize(out)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (YAML)")
	cmd.Flags().StringVar(&baseDirFlag, "base-dir", "", "Directory relative paths are resolved against")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a summary table after the run")
	return cmd
}

func loadConfig(path, baseDir string) (*baker.Config, error) {
	if path != "" {
		return baker.LoadConfig(path, baseDir)
	}
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		baseDir = wd
	}
	return baker.DefaultConfig(baseDir), nil
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	if shouldColorize(w) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

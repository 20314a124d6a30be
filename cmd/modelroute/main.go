package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/everstacklabs/modelroute/internal/config"
	"github.com/everstacklabs/modelroute/internal/engine"
	"github.com/everstacklabs/modelroute/internal/source"
	"github.com/everstacklabs/modelroute/internal/validate"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "modelroute",
		Short: "Model capability resolution and reasoning translation",
		Long: "Resolves model identifiers against a catalog, translates generic reasoning effort into\n" +
			"provider parameters, orders inference hosts and ranks models by derived metrics.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(
		resolveCmd(),
		translateCmd(),
		hostsCmd(),
		costCmd(),
		metricsCmd(),
		rankCmd(),
		providersCmd(),
		extractCmd(),
		validateCmd(),
		checkCmd(),
		bundleCmd(),
		unpackCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// loadCatalog reads and validates the configured catalog.
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, *validate.Result, error) {
	src, err := source.FromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return source.Load(ctx, src)
}

func loadEngine(ctx context.Context) (*engine.Engine, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cat, _, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.New(cat, engine.WithMaxHops(cfg.MaxMigrationHops))
	if err != nil {
		return nil, nil, err
	}
	return e, cfg, nil
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func severityLabel(s validate.Severity) string {
	if s == validate.SeverityError {
		return color.RedString("%-5s", s)
	}
	return color.YellowString("%-5s", s)
}

func printIssues(r *validate.Result) {
	if len(r.Issues) == 0 {
		fmt.Println(color.GreenString("Validation passed: no issues found."))
		return
	}
	for _, i := range r.Issues {
		fmt.Printf("%s %-40s %-28s %s\n", severityLabel(i.Severity), i.Model, i.Field, i.Message)
	}
	fmt.Printf("\n%d errors, %d warnings\n", len(r.Errors()), len(r.Warnings()))
}

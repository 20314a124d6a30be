package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/everstacklabs/modelroute/internal/diff"
	"github.com/everstacklabs/modelroute/internal/pipeline"
	"github.com/everstacklabs/modelroute/internal/source"
	"github.com/everstacklabs/modelroute/internal/validate"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a catalog (CI check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var src source.Source
			if catalogPath, _ := cmd.Flags().GetString("catalog-path"); catalogPath != "" {
				src = source.Dir{Path: catalogPath}
			} else if src, err = source.FromConfig(cmd.Context(), cfg); err != nil {
				return err
			}

			cat, err := src.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}

			result := validate.ValidateCatalog(cat)
			printIssues(result)

			if result.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().String("catalog-path", "", "Path to a catalog directory (default: configured source)")

	return cmd
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the catalog against a base git revision and apply publishing gates",
		Long: "Exit codes: 0 no changes, 2 changes, 3 blocked by policy, 4 a catalog could not be loaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			against, _ := cmd.Flags().GetString("against")
			repoPath, _ := cmd.Flags().GetString("repo")
			subdir, _ := cmd.Flags().GetString("subdir")
			if repoPath == "" {
				repoPath = cfg.Catalog.GitPath
			}
			if subdir == "" {
				subdir = cfg.Catalog.GitSubdir
			}

			base, err := source.OpenGit(repoPath, against, subdir)
			if err != nil {
				slog.Error("opening base revision failed", "repo", repoPath, "error", err)
				os.Exit(pipeline.ExitSourceHealth)
			}

			var head source.Source
			if headRef, _ := cmd.Flags().GetString("head"); headRef != "" {
				head = base.At(headRef)
			} else if head, err = source.FromConfig(cmd.Context(), cfg); err != nil {
				return err
			}

			report, err := pipeline.New(base, head).Check(cmd.Context())
			if errors.Is(err, pipeline.ErrSourceHealth) {
				slog.Error("check failed", "error", err)
				os.Exit(pipeline.ExitSourceHealth)
			} else if err != nil {
				return err
			}

			fmt.Println(diff.RenderSummary(report.ChangeSet))
			if len(report.Validation.Issues) > 0 {
				printIssues(report.Validation)
				fmt.Println()
			}
			for _, r := range report.Reasons {
				label := color.YellowString("REVIEW")
				if report.Blocked {
					label = color.RedString("BLOCK ")
				}
				fmt.Printf("%s %s\n", label, r)
			}

			slog.Info("check complete",
				"base", report.Base,
				"head", report.Head,
				"changed", report.ChangeSet.TotalChanged(),
				"review", report.Review,
				"blocked", report.Blocked)

			if code := report.ExitCode(); code != pipeline.ExitSuccess {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().String("against", "HEAD", "Base git revision")
	cmd.Flags().String("head", "", "Head git revision (default: configured catalog source)")
	cmd.Flags().String("repo", "", "Path inside the git repository (default: catalog.git_path)")
	cmd.Flags().String("subdir", "", "Catalog directory within the repository (default: catalog.git_subdir)")

	return cmd
}

func bundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Write the configured catalog as a single-file bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, _, err := loadCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out, _ := cmd.Flags().GetString("output"); out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating bundle: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := catalog.WriteBundle(w, cat); err != nil {
				return fmt.Errorf("writing bundle: %w", err)
			}
			slog.Info("bundle written", "version", cat.Version(), "models", cat.Len())
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	return cmd
}

func unpackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpack <bundle-file> <catalog-dir>",
		Short: "Write a bundle out as a catalog directory, merging into existing files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading bundle: %w", err)
			}
			cat, err := catalog.ParseBundle(data)
			if err != nil {
				return err
			}
			if res := validate.ValidateCatalog(cat); res.HasErrors() {
				printIssues(res)
				return fmt.Errorf("%w: %s", source.ErrInvalidCatalog, args[0])
			}

			results, err := catalog.NewWriter(args[1]).WriteCatalog(cat)
			if err != nil {
				return err
			}

			created, updated := 0, 0
			for _, r := range results {
				switch {
				case r.IsNew:
					created++
					fmt.Printf("%s %s\n", color.GreenString("+"), r.Path)
				case len(r.Changes) > 0:
					updated++
					fmt.Printf("%s %s (%d fields)\n", color.YellowString("~"), r.Path, len(r.Changes))
				}
			}
			fmt.Printf("\n%d created, %d updated, %d unchanged\n", created, updated, len(results)-created-updated)
			return nil
		},
	}
}

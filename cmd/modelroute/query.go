package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/everstacklabs/modelroute/internal/catalog"
	"github.com/everstacklabs/modelroute/internal/cost"
	"github.com/everstacklabs/modelroute/internal/metrics"
	"github.com/everstacklabs/modelroute/internal/reasoning"
)

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <model-id>",
		Short: "Resolve an identifier to its catalog descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			res, err := e.Trace(args[0])
			if err != nil {
				return err
			}
			return printYAML(struct {
				Raw         string             `yaml:"raw"`
				Hops        []string           `yaml:"hops,omitempty"`
				Synthesized bool               `yaml:"synthesized"`
				Descriptor  catalog.Descriptor `yaml:"descriptor"`
			}{res.Raw, res.Hops, res.Synthesized, *res.Descriptor})
		},
	}
}

func translateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <model-id>",
		Short: "Translate a generic effort level into provider parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cfg, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetString("effort")
			if raw == "" {
				raw = cfg.DefaultEffort
			}
			effort, err := reasoning.ParseEffort(raw)
			if err != nil {
				return err
			}
			p, err := e.Translate(args[0], effort)
			if err != nil {
				return err
			}
			return printYAML(struct {
				Params reasoning.Params `yaml:"params"`
				Fields map[string]any   `yaml:"request_fields"`
			}{p, p.Fields()})
		},
	}
	cmd.Flags().String("effort", "", "Effort level: low, medium or high (default: from config)")
	return cmd
}

func hostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hosts <model-id>",
		Short: "Show the inference host order for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			order, ok, err := e.Order(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("no preference: any available host")
				return nil
			}
			for i, h := range order {
				fmt.Printf("%d. %s\n", i+1, h)
			}
			return nil
		},
	}
}

func costCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cost <model-id>",
		Short: "Price token usage against a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			var u cost.Usage
			u.Input, _ = cmd.Flags().GetInt64("input")
			u.Output, _ = cmd.Flags().GetInt64("output")
			if cmd.Flags().Changed("cached") {
				n, _ := cmd.Flags().GetInt64("cached")
				u.Cached = &n
			}
			if cmd.Flags().Changed("reasoning") {
				n, _ := cmd.Flags().GetInt64("reasoning")
				u.Reasoning = &n
			}
			m, err := e.Cost(args[0], u)
			if err != nil {
				return err
			}
			fmt.Println(m)
			return nil
		},
	}
	cmd.Flags().Int64("input", 0, "Input tokens")
	cmd.Flags().Int64("output", 0, "Output tokens")
	cmd.Flags().Int64("cached", 0, "Cached input tokens")
	cmd.Flags().Int64("reasoning", 0, "Reasoning output tokens")
	return cmd
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <model-id>",
		Short: "Show computed scores, tiers and percentiles for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			m, err := e.Metrics(args[0])
			if err != nil {
				return err
			}
			return printYAML(m)
		},
	}
}

func rankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the catalog along one dimension",
		RunE: func(cmd *cobra.Command, args []string) error {
			by, _ := cmd.Flags().GetString("by")
			dim, ok := metrics.ParseDimension(by)
			if !ok {
				return fmt.Errorf("unknown dimension %q (want one of %v)", by, metrics.Dimensions)
			}
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			ranked := e.Rank(dim)
			if limit > 0 && limit < len(ranked) {
				ranked = ranked[:limit]
			}
			for i, r := range ranked {
				s := r.Metrics.Scores
				published := ""
				if s.Published {
					published = color.CyanString("published")
				}
				fmt.Printf("%3d  %-40s %5.1f %5.1f %5.1f  %-10s %-9s %s\n",
					i+1, r.Descriptor.ID, s.Intelligence, s.Coding, s.Reasoning,
					r.Metrics.SpeedTier, r.Metrics.CostTier, published)
			}
			return nil
		},
	}
	cmd.Flags().String("by", string(metrics.DimIntelligence), "Dimension: intelligence, coding, reasoning, speed or cost")
	cmd.Flags().Int("limit", 0, "Show at most this many models")
	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List catalog models grouped by vendor",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			groups := e.ModelsByProvider()
			for _, v := range e.Catalog().Vendors() {
				fmt.Println(color.New(color.Bold).Sprint(v))
				for _, d := range groups[v] {
					fmt.Printf("  %-40s %-28s %s\n", d.ID, d.Label(), strings.Join(capabilityNames(d), ","))
				}
			}
			fmt.Printf("\nTotal: %d models, catalog %s\n", e.Catalog().Len(), e.Catalog().Version())
			return nil
		},
	}
}

func capabilityNames(d *catalog.Descriptor) []string {
	out := make([]string, len(d.Capabilities))
	for i, c := range d.Capabilities {
		out[i] = string(c)
	}
	return out
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <model-id>",
		Short: "Split tag-delimited reasoning out of a response read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			d, err := e.Resolve(args[0])
			if err != nil {
				return err
			}
			tag, ok := d.ReasoningShape.(catalog.TagExtraction)
			if !ok {
				return fmt.Errorf("%s does not emit tag-delimited reasoning", d.ID)
			}
			text, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			content, thoughts := reasoning.ExtractReasoning(string(text), tag.Tag)
			return printYAML(struct {
				Reasoning string `yaml:"reasoning"`
				Content   string `yaml:"content"`
			}{thoughts, content})
		},
	}
}

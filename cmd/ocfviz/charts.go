package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/dataset"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/datasource"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/layout"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/render/echarts"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/report"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/series"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/logger"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/utils"
)

// --- Build Command ---

var buildCmd = &cobra.Command{
	Use:   "build [dataset.json]",
	Short: "Build the EC10eq chart for a dataset file (- reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		mode, err := series.ParseColorMode(color)
		if err != nil {
			return err
		}
		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		ds, err := dataset.Decode(data)
		if err != nil {
			return err
		}

		stats := series.StatsOf(ds)
		logger.Info("dataset",
			"cas", ds.CAS,
			"groups", stats.TrophicGroups,
			"species", stats.Species,
			"observations", utils.FormatCount(stats.Observations),
		)

		cd, err := series.Build(ds, mode)
		if err != nil {
			return err
		}
		return emit(cmd, cd)
	},
}

// --- Reconcile Command ---

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [chart.json]",
	Short: "Merge a chart description with the configured presentation defaults",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		var src models.ChartDescription
		if err := json.Unmarshal(data, &src); err != nil {
			return fmt.Errorf("decode chart description: %w", err)
		}
		cd, err := layout.Reconcile(&src, cfg.Presentation.Defaults())
		if err != nil {
			return err
		}
		return emit(cmd, cd)
	},
}

// --- Compare Command ---

var compareCmd = &cobra.Command{
	Use:   "compare [cas...]",
	Short: "Fetch several substances and chart them side by side",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := datasource.NewClient(datasource.OptionsFromConfig(cfg.Source))
		if err != nil {
			return err
		}
		datasets, err := client.FetchDatasets(cmd.Context(), args)
		if err != nil {
			return err
		}
		for _, ds := range datasets {
			lo, hi := valueRange(ds)
			logger.Info("substance", "label", ds.Label(),
				"observations", utils.FormatCount(ds.ObservationCount()),
				"min", utils.FormatConcentration(lo),
				"max", utils.FormatConcentration(hi),
			)
		}
		cd, err := series.BuildComparison(datasets)
		if err != nil {
			return err
		}
		return emit(cmd, cd)
	},
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report [cas]",
	Short: "Render a substance report (HTML or text) from the data source or a dataset file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")

		var ds *models.Dataset
		switch {
		case file != "":
			data, err := readInput(file)
			if err != nil {
				return err
			}
			if ds, err = dataset.Decode(data); err != nil {
				return err
			}
		case len(args) == 1:
			client, err := datasource.NewClient(datasource.OptionsFromConfig(cfg.Source))
			if err != nil {
				return err
			}
			if ds, err = client.FetchDataset(cmd.Context(), args[0]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("report needs a CAS number or --file")
		}

		rc := report.DefaultReportConfig()
		rc.Format = format
		rc.Title, _ = cmd.Flags().GetString("title")
		out, err := report.Generate(ds, rc)
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("output"); path != "" {
			if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
				return err
			}
			logger.Info("report written", "path", path, "format", string(format))
			return nil
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	reportCmd.Flags().String("format", "html", "report format: html or text")
	reportCmd.Flags().String("file", "", "read the dataset from this file instead of the data source (- reads stdin)")
	reportCmd.Flags().String("title", "", "custom report title")
	reportCmd.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")

	buildCmd.Flags().String("color", "by_trophic_group", "color key: by_trophic_group, by_year or by_author")
	for _, c := range []*cobra.Command{buildCmd, reconcileCmd, compareCmd} {
		c.Flags().StringP("output", "o", "", "write chart JSON to this file instead of stdout")
		c.Flags().String("html", "", "also export the chart as a standalone HTML page")
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// emit writes cd as indented JSON and, when --html is set, as an HTML page.
func emit(cmd *cobra.Command, cd *models.ChartDescription) error {
	if path, _ := cmd.Flags().GetString("html"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := echarts.Write(f, cd, echarts.Options{}); err != nil {
			f.Close()
			return fmt.Errorf("export HTML: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("exported HTML", "path", path)
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(cd)
}

// valueRange returns the smallest and largest observation value.
func valueRange(ds *models.Dataset) (float64, float64) {
	first := true
	var lo, hi float64
	for _, bucket := range ds.TrophicGroups {
		for _, obs := range bucket {
			for _, o := range obs {
				if first || o.Value < lo {
					lo = o.Value
				}
				if first || o.Value > hi {
					hi = o.Value
				}
				first = false
			}
		}
	}
	return lo, hi
}

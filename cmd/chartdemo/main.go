// Command chartdemo drives the chartgpu engine without a window: it
// builds a chart from a YAML scene, streams synthetic or spreadsheet
// data into it, and writes rendered frames out as PNG.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	backendName string
	scenePath   string
	xlsxPath    string
	xlsxSheet   string
	outputPath  string
	frames      int
	batchSize   int
	benchFrames int
	benchBatch  int
	seriesCount int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chartdemo",
		Short: "Headless chartgpu demo driver",
		Long: `chartdemo builds charts from YAML scenes, streams data into them, and
renders frames without a window. run draws a scene, bench measures
streaming throughput, info prints the adapter.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "auto", "GPU backend: auto or noop")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Render a scene, streaming data into it",
		RunE:  runScene,
	}
	runCmd.Flags().StringVar(&scenePath, "scene", "", "YAML scene file (default: built-in demo scene)")
	runCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "workbook whose sheet columns become series data")
	runCmd.Flags().StringVar(&xlsxSheet, "sheet", "", "sheet name (default: first sheet)")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "chart.png", "output PNG path")
	runCmd.Flags().IntVar(&frames, "frames", 120, "frames to stream")
	runCmd.Flags().IntVar(&batchSize, "batch", 16, "points appended per frame per streaming series")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Stream synthetic data and report frame and process stats",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&benchFrames, "frames", 600, "frames to stream")
	benchCmd.Flags().IntVar(&benchBatch, "batch", 256, "points appended per frame per series")
	benchCmd.Flags().IntVar(&seriesCount, "series", 4, "streamed line series")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print adapter capabilities",
		RunE:  runInfo,
	}

	rootCmd.AddCommand(runCmd, benchCmd, infoCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

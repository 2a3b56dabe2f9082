package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ArthurJWH/rocketmc/internal/config"
	"github.com/ArthurJWH/rocketmc/internal/export"
	"github.com/ArthurJWH/rocketmc/internal/kml"
	"github.com/ArthurJWH/rocketmc/internal/montecarlo"
	"github.com/ArthurJWH/rocketmc/internal/report"
	"github.com/ArthurJWH/rocketmc/internal/results"
	"github.com/ArthurJWH/rocketmc/internal/tui"
)

var (
	configFile string
	runName    string
	seed       int64
	trials     int
	workers    int
	appendRuns bool
	parallel   bool
	live       bool
	// KML export options
	originLat  float64
	originLon  float64
	kmlType    string
	resolution int
	color      string
	outPath    string
	// Info options
	showAll bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rocketmc",
		Short: "monte carlo rocket flight dispersion analysis",
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "run a batch of randomized flight simulations",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	simulateCmd.Flags().StringVar(&runName, "name", "", "run name, prefixes the output files")
	simulateCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 keeps config value)")
	simulateCmd.Flags().IntVarP(&trials, "number", "n", 0, "number of new simulations (0 keeps config value)")
	simulateCmd.Flags().IntVar(&workers, "workers", 0, "worker count for parallel mode (0 = all cpus)")
	simulateCmd.Flags().BoolVar(&appendRuns, "append", false, "append to existing result files")
	simulateCmd.Flags().BoolVar(&parallel, "parallel", false, "run trials on a worker pool")
	simulateCmd.Flags().BoolVar(&live, "live", false, "show live progress display")

	importCmd := &cobra.Command{
		Use:   "import [source]",
		Short: "load result files and report what they contain",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().StringVar(&runName, "name", "", "run name for the loaded set (defaults to source)")

	infoCmd := &cobra.Command{
		Use:   "info [name]",
		Short: "summarize a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
	infoCmd.Flags().BoolVar(&showAll, "all", false, "include distribution histograms")

	exportKMLCmd := &cobra.Command{
		Use:   "export-kml [name]",
		Short: "export dispersion ellipses to a kml file",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportKML,
	}
	exportKMLCmd.Flags().Float64Var(&originLat, "lat", 0, "launch site latitude")
	exportKMLCmd.Flags().Float64Var(&originLon, "lon", 0, "launch site longitude")
	exportKMLCmd.Flags().StringVar(&kmlType, "type", "all", "ellipse family: all, impact or apogee")
	exportKMLCmd.Flags().IntVar(&resolution, "resolution", config.DefaultResolution, "points per ellipse ring")
	exportKMLCmd.Flags().StringVar(&color, "color", config.DefaultColor, "ring color (aabbggrr hex)")
	exportKMLCmd.Flags().StringVarP(&outPath, "output", "o", "", "output path (defaults to <name>.kml)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [name]",
		Short: "export aggregated results to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return export.CSV(os.Stdout, s)
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [name]",
		Short: "export aggregated results to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return export.JSON(os.Stdout, s)
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "list exportable flight attributes",
		RunE:  runSchema,
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.Default()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(simulateCmd, importCmd, infoCmd, exportKMLCmd, exportCSVCmd, exportJSONCmd, schemaCmd, initConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("name") {
		cfg.Name = runName
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("number") {
		cfg.Trials = trials
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	mc, err := montecarlo.New(cfg.Name, cfg.Samplers(), cfg.ExportList)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if live {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		mc.SetOutput(io.Discard)
		err = tui.RunLive(cfg.Name, cfg.Trials, cancel, func(progress func(done, total int)) error {
			mc.SetProgress(progress)
			return mc.Simulate(ctx, cfg.Trials, appendRuns, parallel, cfg.Workers)
		})
	} else {
		err = mc.Simulate(ctx, cfg.Trials, appendRuns, parallel, cfg.Workers)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	if parallel {
		// Parallel trials land in the group file, not the aggregated
		// outputs log, so the summary table has nothing to show yet.
		fmt.Printf("results written to %s\n", mc.Store().GroupPath())
		fmt.Printf("errors: %d records in %s\n", len(mc.Store().ErrorsLog()), mc.Store().ErrorPath())
		return nil
	}
	report.Info(os.Stdout, mc.Store())
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	source := args[0]
	name := runName
	if name == "" {
		name = source
	}

	s, err := results.New(name, nil)
	if err != nil {
		return err
	}
	if err := s.Import(source); err != nil {
		return err
	}

	fmt.Printf("loaded %d simulations from %s\n", s.NumLoadedSims(), source)
	fmt.Printf("inputs:  %s\n", s.InputPath())
	fmt.Printf("outputs: %s\n", s.OutputPath())
	fmt.Printf("errors:  %s (%d records)\n", s.ErrorPath(), len(s.ErrorsLog()))
	return nil
}

// loadRun opens the stored result files named by prefix and requires at
// least one recorded simulation.
func loadRun(name string) (*results.Store, error) {
	s, err := results.New(name, nil)
	if err != nil {
		return nil, err
	}
	if s.NumLoadedSims() == 0 {
		return nil, fmt.Errorf("no simulations found for %q", name)
	}
	return s, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if showAll {
		report.AllInfo(os.Stdout, s)
	} else {
		report.Info(os.Stdout, s)
	}
	return nil
}

func runExportKML(cmd *cobra.Command, args []string) error {
	name := args[0]
	s, err := loadRun(name)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = name + ".kml"
	}

	opts := kml.Options{
		OriginLat:  originLat,
		OriginLon:  originLon,
		Type:       kmlType,
		Resolution: resolution,
		Color:      color,
	}
	if err := kml.Export(path, s.Results(), opts); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	def := map[string]bool{}
	for _, name := range results.DefaultExportList {
		def[name] = true
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ATTRIBUTE\tDEFAULT")
	for _, name := range results.Exportables() {
		mark := ""
		if def[name] {
			mark = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\n", name, mark)
	}
	return w.Flush()
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sethrj/celeritas/internal/config"
	"github.com/sethrj/celeritas/internal/observability"
	"github.com/sethrj/celeritas/internal/storage"
	"github.com/sethrj/celeritas/internal/track"
	"github.com/sethrj/celeritas/internal/viz"
)

var (
	dataDir     string
	configFile  string
	metricsAddr string
	verbose     bool

	numTracks   int
	segmentStep float64
	plotAxis    int
	frameRate   int
	benchCount  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "celeritas",
		Short: "charged-particle field propagation",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".celeritas", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "propagate a bundle of tracks and save the run",
		RunE:  runTracks,
	}
	runCmd.Flags().IntVar(&numTracks, "tracks", 0, "override configured track count")
	runCmd.Flags().Float64Var(&segmentStep, "segment", 0, "step request per propagation call (0 = to boundary)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address during the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run's trajectory coordinate",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotAxis, "axis", 0, "coordinate to plot (0=x 1=y 2=z)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time the configured propagation",
		RunE:  benchRun,
	}
	benchCmd.Flags().IntVar(&benchCount, "n", 1000, "number of tracks to time")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch one track propagate",
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frames per second")
	liveCmd.Flags().Float64Var(&segmentStep, "segment", 0.25, "step request per frame")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, benchCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

func buildRunner(cfg *config.Config, log *zap.Logger, collector *observability.Collector) (*track.Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fld, err := cfg.BuildField()
	if err != nil {
		return nil, err
	}
	factory, err := cfg.GeometryFactory()
	if err != nil {
		return nil, err
	}
	return &track.Runner{
		Workers:     cfg.Workers,
		SegmentStep: cfg.SegmentStep,
		MaxSegments: cfg.MaxSegments,
		Logger:      log,
		Collector:   collector,
		NewGeometry: factory,
		Field:       fld,
		Options:     cfg.Propagation,
	}, nil
}

func runTracks(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if numTracks > 0 {
		cfg.Tracks = numTracks
	}
	if segmentStep > 0 {
		cfg.SegmentStep = segmentStep
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(metricsAddr, collector.Handler()); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	runner, err := buildRunner(cfg, log, collector)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := runner.Run(ctx, cfg.PrimaryTracks())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := store.Save(storage.RunMetadata{
		Field:    cfg.Field.Type,
		Geometry: cfg.Geometry.Type,
		Momentum: cfg.Particle.Momentum,
		Charge:   cfg.Particle.Charge,
	}, results)
	if err != nil {
		return err
	}

	byStatus := map[string]int{}
	for _, res := range results {
		byStatus[res.Status]++
	}
	log.Info("run finished",
		zap.String("run", runID),
		zap.Int("tracks", len(results)),
		zap.Any("status", byStatus),
		zap.Duration("elapsed", elapsed))
	fmt.Printf("saved %s (%d tracks in %s)\n", runID, len(results), elapsed.Round(time.Millisecond))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tFIELD\tGEOMETRY\tTRACKS\tDISTANCE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4g\n",
			r.ID, r.Timestamp.Format(time.RFC3339), r.Field, r.Geometry,
			r.Tracks, r.Metrics["distance_total"])
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	if plotAxis < 0 || plotAxis > 2 {
		return fmt.Errorf("axis must be 0, 1, or 2")
	}
	paths, err := storage.New(dataDir).LoadTracks(args[0])
	if err != nil {
		return err
	}

	ids := make([]int, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		series := make([]float64, 0, len(paths[id]))
		for _, pt := range paths[id] {
			series = append(series, pt.Pos[plotAxis])
		}
		if len(series) < 2 {
			continue
		}
		fmt.Printf("track %d, axis %d\n", id, plotAxis)
		fmt.Println(asciigraph.Plot(series, asciigraph.Height(12), asciigraph.Width(70)))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func benchRun(cmd *cobra.Command, args []string) error {
	log := zap.NewNop()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Tracks = benchCount

	runner, err := buildRunner(cfg, log, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := runner.Run(context.Background(), cfg.PrimaryTracks())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	var segments int
	for _, res := range results {
		segments += res.Segments
	}
	fmt.Printf("%d tracks, %d segments in %s (%.1f tracks/s)\n",
		len(results), segments, elapsed.Round(time.Microsecond),
		float64(len(results))/elapsed.Seconds())
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fld, err := cfg.BuildField()
	if err != nil {
		return err
	}
	factory, err := cfg.GeometryFactory()
	if err != nil {
		return err
	}
	gtv, err := factory()
	if err != nil {
		return err
	}

	extent := cfg.Geometry.Sizes[len(cfg.Geometry.Sizes)-1]
	primary := cfg.PrimaryTracks()[0]
	model := viz.NewLive(gtv, fld, cfg.Propagation, primary, segmentStep, extent, frameRate)

	_, err = tea.NewProgram(model).Run()
	return err
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/impel/internal/analysis"
	"github.com/san-kum/impel/internal/config"
	"github.com/san-kum/impel/internal/export"
	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/logging"
	"github.com/san-kum/impel/internal/metrics"
	"github.com/san-kum/impel/internal/optim"
	"github.com/san-kum/impel/internal/processors"
	"github.com/san-kum/impel/internal/sim"
	"github.com/san-kum/impel/internal/storage"
	"github.com/san-kum/impel/internal/viz"
)

var (
	dataDir  string
	logLevel string
	log      zerolog.Logger

	configFile string
	preset     string
	noSave     bool

	// scenario overrides, applied to every track of the matching model
	frameTime  int
	duration   int
	model      string
	value      float64
	target     float64
	accel      float64
	wrongMult  float64
	maxDt      int
	smoothTime float64
	angFreq    float64
	damping    float64

	plotTrack    string
	plotVelocity bool
	plotHeight   int

	frameRate int
	theme     string

	tuneTrack     string
	tuneObjective string
	accelGrid     string
	multGrid      string
	tuneTop       int

	benchInstances int
	benchFrames    int

	svgOut    string
	svgPhase  bool
	svgWidth  int
	svgHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "impel",
		Short:         "value animation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log = logging.New(os.Stderr, logLevel, true)
			return processors.RegisterDefaults()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".impel", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an animation scenario and store it",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotTrack, "track", "", "plot only this track")
	plotCmd.Flags().BoolVar(&plotVelocity, "velocity", false, "plot velocity instead of value")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "graph height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run samples to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tTRACKS\tDURATION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				names := make([]string, len(cfg.Tracks))
				for i, tr := range cfg.Tracks {
					names[i] = tr.Name + ":" + tr.Model
				}
				fmt.Fprintf(w, "%s\t%s\t%dms\n", name, strings.Join(names, " "), cfg.Duration)
			}
			return w.Flush()
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list registered dynamics models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, tag := range impel.Default().Tags() {
				fmt.Println(tag)
			}
			return nil
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "animate a scenario in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 60, "frame rate")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search overshoot tuning for one track",
		Args:  cobra.NoArgs,
		RunE:  tuneScenario,
	}
	scenarioFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneTrack, "track", "", "track to tune (default: first overshoot track)")
	tuneCmd.Flags().StringVar(&tuneObjective, "objective", "settle_time", "metric to minimise")
	tuneCmd.Flags().StringVar(&accelGrid, "accel-grid", "0.0002,0.0005,0.001,0.002", "accel_per_difference values")
	tuneCmd.Flags().StringVar(&multGrid, "mult-grid", "1,2,3,4,6", "wrong_direction_multiplier values")
	tuneCmd.Flags().IntVar(&tuneTop, "top", 5, "candidates to show")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark AdvanceFrame for every registered model",
		Args:  cobra.NoArgs,
		RunE:  benchModels,
	}
	benchCmd.Flags().IntVar(&benchInstances, "instances", 1000, "instances per model")
	benchCmd.Flags().IntVar(&benchFrames, "frames", 1000, "frames to advance")
	benchCmd.Flags().IntVar(&frameTime, "frame", 16, "frame time (ms)")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait (difference vs velocity)",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&plotTrack, "track", "", "plot only this track")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&plotTrack, "track", "", "analyze only this track")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a track chart to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&plotTrack, "track", "", "track to export (default: first)")
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default: stdout)")
	exportSVGCmd.Flags().BoolVar(&svgPhase, "phase", false, "export the phase portrait")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "height")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, modelsCmd, liveCmd, tuneCmd, benchCmd, phaseCmd, analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	cmd.Flags().IntVar(&frameTime, "frame", config.DefaultFrameTime, "frame time (ms)")
	cmd.Flags().IntVar(&duration, "time", config.DefaultDuration, "duration (ms)")
	cmd.Flags().StringVar(&model, "model", "overshoot", "model of the default track")
	cmd.Flags().Float64Var(&value, "value", 0, "start value of the default track")
	cmd.Flags().Float64Var(&target, "target", 1, "target of the default track")
	cmd.Flags().Float64Var(&accel, "accel", config.DefaultAccelPerDifference, "overshoot accel_per_difference")
	cmd.Flags().Float64Var(&wrongMult, "wrong-mult", config.DefaultWrongDirectionMultiplier, "overshoot wrong_direction_multiplier")
	cmd.Flags().IntVar(&maxDt, "max-dt", config.DefaultMaxDeltaTime, "overshoot max_delta_time (ms)")
	cmd.Flags().Float64Var(&smoothTime, "smooth-time", config.DefaultSmoothTime, "smooth smooth_time (ms)")
	cmd.Flags().Float64Var(&angFreq, "freq", config.DefaultAngularFrequency, "spring angular_frequency (rad/ms)")
	cmd.Flags().Float64Var(&damping, "damping", config.DefaultDampingRatio, "spring damping_ratio")
}

// loadScenario resolves the scenario from --preset, then --config, then the
// single-track default. Flags the user set override the loaded values.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	case configFile != "":
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	default:
		cfg = config.DefaultConfig()
		cfg.Tracks[0].Model = model
		if !strings.EqualFold(model, "overshoot") {
			cfg.Tracks[0].Overshoot = nil
		}
	}

	flags := cmd.Flags()
	if flags.Changed("frame") {
		cfg.FrameTime = frameTime
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}

	for i := range cfg.Tracks {
		tr := &cfg.Tracks[i]
		if len(cfg.Tracks) == 1 {
			if flags.Changed("value") {
				tr.Value = value
			}
			if flags.Changed("target") {
				tr.Target = target
			}
		}

		switch strings.ToLower(tr.Model) {
		case "overshoot":
			if tr.Overshoot == nil {
				tr.Overshoot = config.DefaultOvershoot()
			}
			if flags.Changed("accel") {
				tr.Overshoot.AccelPerDifference = accel
			}
			if flags.Changed("wrong-mult") {
				tr.Overshoot.WrongDirectionMultiplier = wrongMult
			}
			if flags.Changed("max-dt") {
				tr.Overshoot.MaxDeltaTime = maxDt
			}
		case "smooth":
			if flags.Changed("smooth-time") {
				tr.Smooth = &config.SmoothConfig{SmoothTime: smoothTime}
			}
		case "spring":
			if tr.Spring == nil {
				tr.Spring = &config.SpringConfig{
					AngularFrequency: config.DefaultAngularFrequency,
					DampingRatio:     config.DefaultDampingRatio,
				}
			}
			if flags.Changed("freq") {
				tr.Spring.AngularFrequency = angFreq
			}
			if flags.Changed("damping") {
				tr.Spring.DampingRatio = damping
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// simBuilder returns a constructor for fresh simulators over cfg's tracks.
func simBuilder(cfg *config.Config) func() (*sim.Simulator, error) {
	return func() (*sim.Simulator, error) {
		tracks, err := cfg.SimTracks()
		if err != nil {
			return nil, err
		}
		s := sim.New(impel.Default(), log)
		s.SetMetrics(func() []sim.Metric {
			return metrics.Defaults(cfg.Metrics.SettleTolerance, cfg.Metrics.StabilityBound)
		})
		for _, tr := range tracks {
			if err := s.AddTrack(tr); err != nil {
				return nil, err
			}
		}
		return s, nil
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	s, err := simBuilder(cfg)()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.Info().Str("scenario", cfg.Name).Int("tracks", len(cfg.Tracks)).Msg("running")
	start := time.Now()

	result, err := s.Run(ctx, cfg.SimConfig())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for _, e := range result.Errors {
		log.Warn().Err(e).Msg("run stopped early")
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("frames: %d\n", result.Frames)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta := storage.RunMetadata{
			Name:      cfg.Name,
			FrameTime: cfg.FrameTime,
			Duration:  cfg.Duration,
		}
		for _, tr := range cfg.Tracks {
			meta.Tracks = append(meta.Tracks, storage.TrackMeta{Name: tr.Name, Model: tr.Model})
		}
		runID, err := st.Save(meta, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printMetrics(result)
	return nil
}

func printMetrics(result *sim.Result) {
	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range result.Order {
		values := result.Metrics[name]
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "  %s", name)
		for _, k := range keys {
			fmt.Fprintf(w, "\t%s=%s", k, viz.FormatMetric(values[k]))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tFRAME\tTRACKS")

	for _, run := range runs {
		names := make([]string, len(run.Tracks))
		for i, tr := range run.Tracks {
			names[i] = tr.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%dms\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.FrameTime,
			strings.Join(names, ","),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(result.Order) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("frames: %d\n\n", meta.Frames)

	opts := viz.DefaultPlotOptions()
	opts.Height = plotHeight
	opts.Velocity = plotVelocity

	for _, name := range result.Order {
		if plotTrack != "" && name != plotTrack {
			continue
		}
		graph, err := viz.PlotTrack(name, result.Tracks[name], opts)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	return storage.ExportMetadata(os.Stdout, meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	result, err := storage.New(dataDir).LoadSamples(args[0])
	if err != nil {
		return err
	}
	return storage.WriteSamples(os.Stdout, result)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	result.Metrics = meta.Metrics
	return storage.ExportJSON(os.Stdout, *meta, result)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	// flip between each track's configured target and where it starts, or
	// its first retarget when one is scripted
	tracks := make([]viz.LiveTrack, len(cfg.Tracks))
	for i, tr := range cfg.Tracks {
		alt := tr.Value
		for _, rt := range cfg.Retargets {
			if rt.Track == tr.Name {
				alt = rt.Target
				break
			}
		}
		tracks[i] = viz.LiveTrack{Name: tr.Name, Targets: [2]float64{tr.Target, alt}}
	}

	// the live view owns the terminal
	log = log.Level(zerolog.Disabled)
	return viz.RunLive(simBuilder(cfg), tracks, viz.LiveOptions{FPS: frameRate, Theme: theme})
}

func parseGrid(s string) ([]float64, error) {
	var out []float64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("grid value %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func tuneScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	idx := -1
	for i, tr := range cfg.Tracks {
		if (tuneTrack == "" || tr.Name == tuneTrack) && strings.EqualFold(tr.Model, "overshoot") {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no overshoot track to tune")
	}
	name := cfg.Tracks[idx].Name

	accels, err := parseGrid(accelGrid)
	if err != nil {
		return err
	}
	mults, err := parseGrid(multGrid)
	if err != nil {
		return err
	}

	g := optim.NewGridSearch(
		[]string{"accel_per_difference", "wrong_direction_multiplier"},
		[][]float64{accels, mults},
	)

	build := func(params map[string]float64) (*sim.Simulator, error) {
		variant := cfg.Clone()
		o := variant.Tracks[idx].Overshoot
		o.AccelPerDifference = params["accel_per_difference"]
		o.WrongDirectionMultiplier = params["wrong_direction_multiplier"]
		return simBuilder(variant)()
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.Info().Str("track", name).Int("points", len(accels)*len(mults)).Msg("tuning")
	ranked, err := g.Search(ctx, cfg.SimConfig(), build, optim.MetricScore(name, tuneObjective))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ACCEL\tWRONG_MULT\t%s\n", strings.ToUpper(tuneObjective))
	for i, c := range ranked {
		if i >= tuneTop {
			break
		}
		fmt.Fprintf(w, "%g\t%g\t%s\n",
			c.Params["accel_per_difference"],
			c.Params["wrong_direction_multiplier"],
			viz.FormatMetric(c.Score),
		)
	}
	return w.Flush()
}

func benchModels(cmd *cobra.Command, args []string) error {
	if benchInstances <= 0 || benchFrames <= 0 || frameTime <= 0 {
		return fmt.Errorf("instances, frames and frame must be positive")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tINSTANCES\tFRAMES\tTIME\tNS/INSTANCE-FRAME")

	for _, tag := range impel.Default().Tags() {
		proc, err := impel.CreateProcessor(tag)
		if err != nil {
			return err
		}

		tr := config.TrackConfig{Name: "bench", Model: tag.String(), Target: 100}
		init, err := tr.Init()
		if err != nil {
			log.Warn().Stringer("model", tag).Err(err).Msg("skipping model without default tuning")
			continue
		}
		for i := 0; i < benchInstances; i++ {
			if _, err := proc.Create(init); err != nil {
				return err
			}
		}

		dt := impel.Time(frameTime)
		start := time.Now()
		for f := 0; f < benchFrames; f++ {
			proc.AdvanceFrame(dt)
		}
		elapsed := time.Since(start)

		per := float64(elapsed.Nanoseconds()) / float64(benchInstances*benchFrames)
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.1f\n", tag, benchInstances, benchFrames, elapsed, per)
	}

	return w.Flush()
}

// selectTracks returns the tracks named by --track, or all of them.
func selectTracks(result *sim.Result) ([]string, error) {
	if plotTrack == "" {
		return result.Order, nil
	}
	if _, ok := result.Tracks[plotTrack]; !ok {
		return nil, fmt.Errorf("%w: %s", sim.ErrUnknownTrack, plotTrack)
	}
	return []string{plotTrack}, nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	result, err := storage.New(dataDir).LoadSamples(args[0])
	if err != nil {
		return err
	}
	names, err := selectTracks(result)
	if err != nil {
		return err
	}

	for _, name := range names {
		pts := analysis.PhasePortrait(result.Tracks[name])
		fmt.Printf("%s: value-target (x) vs velocity (y)\n", name)
		fmt.Println(analysis.PortraitToASCII(pts, 70, 20))
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	names, err := selectTracks(result)
	if err != nil {
		return err
	}

	for _, name := range names {
		samples := result.Tracks[name]
		period, err := analysis.DominantPeriod(samples, float64(meta.FrameTime))
		if err != nil {
			fmt.Printf("%s: %v\n", name, err)
			continue
		}

		diffs := make([]float64, len(samples))
		for i, s := range samples {
			diffs[i] = s.Difference()
		}
		peaks := metrics.OscillationPeaks(samples)

		fmt.Printf("%s: dominant period %.1fms, %d half-cycles, decaying=%v\n",
			name, period, len(peaks), metrics.Decaying(peaks, 1e-9))
		fmt.Println(asciigraph.Plot(diffs,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" target-value"),
		))
		fmt.Println()
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	result, err := storage.New(dataDir).LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(result.Order) == 0 {
		return fmt.Errorf("no data to export")
	}
	name := plotTrack
	if name == "" {
		name = result.Order[0]
	}
	samples, ok := result.Tracks[name]
	if !ok {
		return fmt.Errorf("%w: %s", sim.ErrUnknownTrack, name)
	}

	out := os.Stdout
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if svgPhase {
		return export.PhaseSVG(out, samples, svgWidth, svgHeight)
	}
	return export.TrackSVG(out, samples, svgWidth, svgHeight)
}

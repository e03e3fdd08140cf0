// Command sholl-report generates a synthetic population, optionally
// rotates it, runs the check suite and a Sholl frequency analysis, and
// records the results in an SQLite database.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/arbor/checks"
	"github.com/banshee-data/arbor/internal/config"
	"github.com/banshee-data/arbor/internal/monitoring"
	"github.com/banshee-data/arbor/internal/synth"
	"github.com/banshee-data/arbor/internal/version"
	"github.com/banshee-data/arbor/morph"
	"github.com/banshee-data/arbor/sholl"
	"github.com/banshee-data/arbor/store"
	"github.com/banshee-data/arbor/transform"
)

type options struct {
	configPath string
	dbPath     string
	label      string
	count      int
	seed       int64
	depth      int
	shared     bool
	axis       string
	angleDeg   float64
	bins       string
	neurites   string
	step       float64
	workers    int
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", config.DefaultConfigPath, "Analysis config JSON file")
	flag.StringVar(&o.dbPath, "db", "", "SQLite database for results (empty to skip storing)")
	flag.StringVar(&o.label, "label", "sholl-report", "Run label stored with the results")
	flag.IntVar(&o.count, "n", 8, "Number of synthetic morphologies")
	flag.Int64Var(&o.seed, "seed", 1, "Random seed for the synthetic population")
	flag.IntVar(&o.depth, "depth", 3, "Branch levels below each neurite root")
	flag.BoolVar(&o.shared, "shared-junctions", true, "Start child sections on their parent's last point")
	flag.StringVar(&o.axis, "rotate-axis", "", "Rotation axis as x,y,z (empty for no rotation)")
	flag.Float64Var(&o.angleDeg, "rotate-deg", 0, "Rotation angle in degrees about the soma centre")
	flag.StringVar(&o.bins, "bins", "", "Comma-separated Sholl radii (empty to derive from -step)")
	flag.StringVar(&o.neurites, "neurites", "", "Comma-separated neurite types (overrides config)")
	flag.Float64Var(&o.step, "step", 0, "Sholl step size (overrides config when positive)")
	flag.IntVar(&o.workers, "workers", 0, "Sholl workers (overrides config when positive)")
	debug := flag.Bool("debug", false, "Log per-morphology progress")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("sholl-report", version.String())
		return
	}

	monitoring.SetDebug(*debug)
	if err := run(o, os.Stdout); err != nil {
		log.Fatalf("sholl-report: %v", err)
	}
}

func run(o options, w io.Writer) error {
	cfg, err := config.LoadAnalysisConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.neurites != "" {
		cfg.NeuriteTypes = parseCSVStrings(o.neurites)
	}
	if o.step > 0 {
		cfg.ShollStep = &o.step
	}
	if o.workers > 0 {
		cfg.ShollWorkers = &o.workers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	nf, err := cfg.GetNeuriteFilter()
	if err != nil {
		return err
	}
	bins, err := parseCSVFloatSlice(o.bins)
	if err != nil {
		return fmt.Errorf("parse -bins: %w", err)
	}

	g := synth.NewGenerator(o.seed)
	g.MaxDepth = o.depth
	g.SharedJunctions = o.shared
	pop, err := g.Population("synthetic", o.count)
	if err != nil {
		return fmt.Errorf("generate population: %w", err)
	}
	log.Printf("Generated %d morphologies with %d sections each", len(pop), g.SectionCount())
	if cfg.SkipJunctions == nil && g.SharedJunctions {
		// Generated children repeat their parent's last point.
		skip := true
		cfg.SkipJunctions = &skip
	}

	if o.axis != "" {
		if err := rotatePopulation(pop, o.axis, o.angleDeg); err != nil {
			return err
		}
		log.Printf("Rotated population by %.1f° about %s", o.angleDeg, o.axis)
	}

	params, err := cfg.CheckParams()
	if err != nil {
		return err
	}
	runner, err := checks.DefaultRunner(params)
	if err != nil {
		return err
	}
	reports := make([]checks.Report, 0, len(pop))
	for _, m := range pop {
		rep, err := runner.Run(m)
		if err != nil {
			return err
		}
		if !rep.Passed {
			log.Printf("%s failed checks: %s", m.Name, strings.Join(rep.Failed(), ", "))
		}
		reports = append(reports, rep)
	}

	profile, err := sholl.FrequencyProfile(pop, nf, cfg.GetShollStep(), bins, sholl.WithWorkers(cfg.GetShollWorkers()))
	if err != nil {
		return fmt.Errorf("sholl frequency: %w", err)
	}
	writeProfile(w, profile)

	if o.dbPath == "" {
		return nil
	}
	return save(o, cfg, pop, reports, profile)
}

func rotatePopulation(pop morph.Population, axisCSV string, angleDeg float64) error {
	v, err := parseCSVFloatSlice(axisCSV)
	if err != nil {
		return fmt.Errorf("parse -rotate-axis: %w", err)
	}
	if len(v) != 3 {
		return fmt.Errorf("-rotate-axis needs 3 components, got %d", len(v))
	}
	axis := r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	angle := angleDeg * math.Pi / 180
	for _, m := range pop {
		center, err := m.SomaCenter()
		if err != nil {
			return err
		}
		if _, err := transform.Rotate(m, axis, angle, center); err != nil {
			return fmt.Errorf("rotate %s: %w", m.Name, err)
		}
	}
	return nil
}

func save(o options, cfg *config.AnalysisConfig, pop morph.Population, reports []checks.Report, profile sholl.Profile) error {
	st, err := store.Open(o.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := store.NewRun(o.label, pop, cfg)
	if err != nil {
		return err
	}
	if err := st.CreateRun(r); err != nil {
		return err
	}
	for i, rep := range reports {
		if err := st.SaveReport(r.RunID, i, rep); err != nil {
			return fmt.Errorf("save report for %s: %w", rep.Morphology, err)
		}
	}
	if err := st.SaveProfile(r.RunID, neuriteLabel(cfg), profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	log.Printf("Stored run %s (sholl-report %s) in %s", r.RunID, r.ToolVersion, o.dbPath)
	return nil
}

func neuriteLabel(cfg *config.AnalysisConfig) string {
	if len(cfg.NeuriteTypes) == 0 {
		return "all"
	}
	return strings.Join(cfg.NeuriteTypes, ",")
}

func writeProfile(w io.Writer, p sholl.Profile) {
	fmt.Fprintln(w, "radius,crossings")
	for i := range p.Radii {
		fmt.Fprintf(w, "%g,%d\n", p.Radii[i], p.Counts[i])
	}
	if r, c, ok := p.Peak(); ok {
		log.Printf("Peak: %d crossings at r=%g (total %d)", c, r, p.Total())
	}
}

// parseCSVFloatSlice parses a comma-separated list of floats
func parseCSVFloatSlice(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseCSVStrings(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Command speedcalc evaluates a launch speed once from the command line,
// with the same validation and formatting as the server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/shuttle.report/internal/config"
	"github.com/banshee-data/shuttle.report/internal/speed"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("speedcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Optional JSON config supplying defaults")
	modelName := fs.String("model", "", "Speed model: linear or exponential (default from config)")
	distance := fs.Float64("distance", -1, "Distance travelled in metres (default from config)")
	elapsed := fs.Float64("time", -1, "Elapsed time in seconds (default from config)")
	angleDeg := fs.Float64("angle", -1, "Launch angle in degrees (default from config)")
	drag := fs.Float64("k", 0, "Drag constant in 1/m for the exponential model (default from config)")
	asJSON := fs.Bool("json", false, "Print the result as JSON")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.EmptyConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(stderr, "speedcalc: %v\n", err)
			return 1
		}
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	model := cfg.GetDefaultModel()
	if set["model"] {
		m, err := speed.ParseModel(*modelName)
		if err != nil {
			fmt.Fprintf(stderr, "speedcalc: %v\n", err)
			return 2
		}
		model = m
	}

	in := speed.Inputs{
		DistanceMeters: cfg.GetDefaultDistanceM(),
		TimeSeconds:    cfg.GetDefaultTimeS(),
		AngleDegrees:   cfg.GetDefaultAngleDeg(),
		DragConstant:   cfg.GetDefaultDragConstant(),
	}
	if set["distance"] {
		in.DistanceMeters = *distance
	}
	if set["time"] {
		in.TimeSeconds = *elapsed
	}
	if set["angle"] {
		in.AngleDegrees = *angleDeg
	}
	if set["k"] {
		in.DragConstant = *drag
	}

	res, err := speed.Evaluate(model, in)
	if err != nil {
		fmt.Fprintf(stderr, "speedcalc: %v\n", err)
		return 1
	}

	mps, kmh, mph := res.Formatted()
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			speed.Result
			MPSText string   `json:"mps_text"`
			KMHText string   `json:"kmh_text"`
			MPHText string   `json:"mph_text"`
			Notes   []string `json:"notes"`
		}{res, mps, kmh, mph, res.Notes()}); err != nil {
			fmt.Fprintf(stderr, "speedcalc: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stdout, "%s\n%s\n%s\n", mps, kmh, mph)
	for _, n := range res.Notes() {
		fmt.Fprintf(stdout, "  %s\n", n)
	}
	return 0
}

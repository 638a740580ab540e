// Command validate checks a feature collection produced by the etl command:
// schema and counts, coordinate validity, spread radius bounds, confidence
// buckets and the minimum spacing between surviving hotspots.
//
// Usage:
//
//	go run ./cmd/validate data/wildfires.geojson --max-km 15 --threshold 0.01
package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/adapter/geojsonfile"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
)

// options holds the bounds a collection is checked against.
type options struct {
	minKM     float64
	maxKM     float64
	threshold float64
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newRootCmd() *cobra.Command {
	def := domain.DefaultSpreadModel()
	opts := options{minKM: def.MinKM, maxKM: def.MaxKM, threshold: domain.DefaultDedupeThresholdDeg}

	cmd := &cobra.Command{
		Use:          "validate PATH",
		Short:        "Validate a wildfire hotspot GeoJSON collection",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := run(cmd.OutOrStdout(), args[0], opts); code != 0 {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&opts.minKM, "min-km", opts.minKM, "minimum allowed spread radius")
	cmd.Flags().Float64Var(&opts.maxKM, "max-km", opts.maxKM, "maximum allowed spread radius")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", opts.threshold, "minimum spacing between hotspots in degrees")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func run(w io.Writer, path string, opts options) int {
	fmt.Fprintln(w, "=== Wildfire Hotspot Collection Validation ===")
	fmt.Fprintln(w)

	fc, err := geojsonfile.Read(path)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	phases := validate(fc, opts)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Features: %d (region %q, generated %s)\n",
		len(fc.Features), fc.Metadata.Region, fc.Metadata.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func validate(fc domain.FeatureCollection, opts options) []*phase {
	return []*phase{
		validateSchema(fc),
		validateCoordinates(fc),
		validateSpread(fc, opts),
		validateConfidence(fc),
		validateSpacing(fc, opts),
	}
}

// ── Phases ──

func validateSchema(fc domain.FeatureCollection) *phase {
	p := &phase{name: "Schema and counts"}
	if fc.Type != "FeatureCollection" {
		p.errorf("type is %q, want FeatureCollection", fc.Type)
	}
	if fc.Features == nil {
		p.errorf("features is null, want an array")
	}
	if fc.Metadata.TotalFeatures != len(fc.Features) {
		p.errorf("total_features=%d but %d features present", fc.Metadata.TotalFeatures, len(fc.Features))
	}
	if fc.Metadata.GeneratedAt.IsZero() {
		p.errorf("generated_at missing")
	}
	if fc.Metadata.PredictionModel == "" {
		p.errorf("prediction_model missing")
	}
	if fc.Metadata.DataSources == nil {
		p.errorf("data_sources missing")
	}
	for i, f := range fc.Features {
		if f.Type != "Feature" {
			p.errorf("feature %d: type is %q", i, f.Type)
		}
		if f.Properties.AcqDatetime.IsZero() {
			p.errorf("feature %d: acq_datetime missing", i)
		}
	}
	return p
}

func validateCoordinates(fc domain.FeatureCollection) *phase {
	p := &phase{name: "Coordinates"}
	for i, f := range fc.Features {
		props := f.Properties
		if math.Abs(props.Lat) > 90 || math.Abs(props.Lon) > 180 {
			p.errorf("feature %d: lat/lon out of range (%v, %v)", i, props.Lat, props.Lon)
		}
		if f.Geometry == nil {
			p.errorf("feature %d: geometry missing", i)
			continue
		}
		g, err := f.Geometry.Decode()
		if err != nil {
			p.errorf("feature %d: decode geometry: %v", i, err)
			continue
		}
		pt, ok := g.(*geom.Point)
		if !ok {
			p.errorf("feature %d: geometry is %T, want Point", i, g)
			continue
		}
		if pt.X() != props.Lon || pt.Y() != props.Lat {
			p.errorf("feature %d: geometry [%v, %v] does not match properties (lon %v, lat %v)",
				i, pt.X(), pt.Y(), props.Lon, props.Lat)
		}
	}
	return p
}

func validateSpread(fc domain.FeatureCollection, opts options) *phase {
	p := &phase{name: "Spread radius bounds"}
	for i, f := range fc.Features {
		r := f.Properties.SpreadRadiusKM
		if math.IsNaN(r) || r < opts.minKM || r > opts.maxKM {
			p.errorf("feature %d: spread_radius_km=%v outside [%v, %v]", i, r, opts.minKM, opts.maxKM)
		}
		if ws := f.Properties.WindSpeedKPH; ws != nil && *ws < 0 {
			p.errorf("feature %d: negative wind_speed_kph %v", i, *ws)
		}
	}
	return p
}

func validateConfidence(fc domain.FeatureCollection) *phase {
	p := &phase{name: "Confidence buckets"}
	for i, f := range fc.Features {
		switch f.Properties.Confidence {
		case domain.ConfidenceLow, domain.ConfidenceNominal, domain.ConfidenceHigh:
		default:
			p.errorf("feature %d: confidence %q is not low/nominal/high", i, f.Properties.Confidence)
		}
	}
	return p
}

// validateSpacing re-runs deduplication over the output; any hotspot it
// would drop sits within threshold of an earlier one.
func validateSpacing(fc domain.FeatureCollection, opts options) *phase {
	p := &phase{name: "Hotspot spacing"}
	hotspots := make([]domain.Hotspot, len(fc.Features))
	for i, f := range fc.Features {
		hotspots[i] = domain.Hotspot{Lat: f.Properties.Lat, Lon: f.Properties.Lon}
	}
	kept := domain.Deduplicate(hotspots, opts.threshold)
	if dropped := len(hotspots) - len(kept); dropped > 0 {
		p.errorf("%d hotspots lie within %v degrees of an earlier hotspot", dropped, opts.threshold)
	}
	return p
}

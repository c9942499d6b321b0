package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"parkscan/internal/annotate"
	"parkscan/internal/config"
	"parkscan/internal/detect"
	"parkscan/internal/estimate"
	"parkscan/internal/geojson"
	"parkscan/internal/imagery"
	"parkscan/internal/osm"
	"parkscan/internal/raster"
)

const overpassTimeout = 90 * time.Second

type scanOptions struct {
	place       string
	radiusM     float64
	topK        int
	out         string
	annotateDir string
}

var scanOpts scanOptions

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Estimate parking capacity around a place",
	Long:  `Geocode a place, analyze the K largest parking areas within the search radius and write per-lot estimates as GeoJSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return runScan(cmd.Context(), os.Stdout, cfg, scanOpts)
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanOpts.place, "place", "p", "", "Place name or address to analyze")
	scanCmd.Flags().Float64VarP(&scanOpts.radiusM, "radius", "r", 2500, "Search radius in meters")
	scanCmd.Flags().IntVarP(&scanOpts.topK, "top", "k", 2, "Number of largest parking areas to analyze")
	scanCmd.Flags().StringVarP(&scanOpts.out, "out", "o", "", "Output GeoJSON path")
	scanCmd.Flags().StringVar(&scanOpts.annotateDir, "annotate", "", "Directory for annotated mosaics (optional)")
	_ = scanCmd.MarkFlagRequired("place")
	_ = scanCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(scanCmd)
}

func runScan(ctx context.Context, out io.Writer, cfg config.Config, opts scanOptions) error {
	if err := ensureOutputDir(opts.out); err != nil {
		return err
	}

	geocoder := osm.NewGeocoder(cfg.NominatimURL)
	lat, lon, err := geocoder.Geocode(ctx, opts.place)
	if err != nil {
		return fmt.Errorf("geocode place: %w", err)
	}
	fmt.Fprintf(out, "Coordinates for %q: %.5f, %.5f\n", opts.place, lat, lon)

	source := osm.NewParkingSource(cfg.OverpassURL, overpassTimeout)
	regions, skipped, err := source.Regions(ctx, lat, lon, opts.radiusM)
	if err != nil {
		return fmt.Errorf("fetch parking areas: %w", err)
	}
	if skipped > 0 {
		log.Printf("skipped %d parking ways with invalid geometry", skipped)
	}
	if len(regions) == 0 {
		return fmt.Errorf("no parking areas found within %.0f m of %q", opts.radiusM, opts.place)
	}

	top := osm.TopByArea(regions, opts.topK)

	detector := detect.NewHTTPDetector(cfg.DetectorURL)
	if err := detector.CheckHealth(ctx); err != nil {
		return fmt.Errorf("inference service at %s: %w", cfg.DetectorURL, err)
	}

	fetcher := imagery.NewFetcher(cfg.TileProviderURL)
	pipeline := detect.NewPipeline(detector, cfg)

	estimates := make([]estimate.CapacityEstimate, 0, len(top))
	analyzed := make([]osm.Region, 0, len(top))
	features := make([]geojson.Feature, 0)

	for i, region := range top {
		est, fc, err := analyzeRegion(ctx, cfg, fetcher, pipeline, region, opts.annotateDir)
		if err != nil {
			// Per-region failures never abort the run.
			log.Printf("area %d (osm way %d): %v, skipping", i+1, region.ID, err)
			continue
		}

		estimates = append(estimates, est)
		analyzed = append(analyzed, region)
		features = append(features, fc.Features...)
	}

	if len(estimates) == 0 {
		return fmt.Errorf("all %d parking areas failed to process", len(top))
	}

	if err := writeSummaryTable(out, analyzed, estimates); err != nil {
		return err
	}
	writeTotals(out, estimate.Sum(estimates))

	fc := geojson.FeatureCollection{Type: "FeatureCollection", Features: features}
	if err := geojson.WriteFeatureCollection(opts.out, fc); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

func analyzeRegion(
	ctx context.Context,
	cfg config.Config,
	fetcher *imagery.Fetcher,
	pipeline *detect.Pipeline,
	region osm.Region,
	annotateDir string,
) (estimate.CapacityEstimate, geojson.FeatureCollection, error) {
	rast, err := fetcher.FetchValidated(ctx, region.BBox(), cfg.BaseZoom, cfg.MaxZoom, cfg.MaxGSD)
	if err != nil {
		return estimate.CapacityEstimate{}, geojson.FeatureCollection{}, fmt.Errorf("fetch imagery: %w", err)
	}
	if rast.LowResolution {
		log.Printf("osm way %d: imagery is %.2f m/px at zoom %d, above the %.2f m/px limit", region.ID, rast.GSD, rast.Zoom, cfg.MaxGSD)
	}

	res, err := pipeline.Run(ctx, rast)
	if err != nil {
		return estimate.CapacityEstimate{}, geojson.FeatureCollection{}, fmt.Errorf("detect vehicles: %w", err)
	}
	if res.Diagnostics.TilesFailed > 0 {
		log.Printf("osm way %d: %d of %d tiles failed, result degraded", region.ID, res.Diagnostics.TilesFailed, res.Diagnostics.TilesTotal)
	}

	est := estimate.Estimate(estimate.Inputs{
		AreaM2:           region.AreaM2,
		VehiclesDetected: len(res.Detections),
		Truncated:        res.Diagnostics.Truncated,
		LowResolution:    res.Diagnostics.LowResolution,
		Degraded:         res.Diagnostics.Degraded(),
	}, estimate.Params{
		AreaPerSpot:           cfg.AreaPerSpot(region.ParkingType),
		AssumedOccupancy:      cfg.AssumedOccupancy,
		CoverageThreshold:     cfg.CoverageThreshold,
		DetectionWeight:       cfg.DetectionWeight,
		TruncatedWeight:       cfg.TruncatedWeight,
		UncertaintyFloor:      cfg.UncertaintyFloor,
		UncertaintyFactor:     cfg.UncertaintyFactor,
		DisagreementTolerance: cfg.DisagreementTolerance,
	})

	if annotateDir != "" {
		if err := saveAnnotated(rast, res.Detections, annotateDir, region.ID); err != nil {
			log.Printf("osm way %d: %v", region.ID, err)
		}
	}

	fc := geojson.BuildRegionFC(region, est, res.Detections, rast.GeoTransform)
	return est, fc, nil
}

func saveAnnotated(rast *raster.Raster, dets []detect.Detection, dir string, id int64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create annotate dir: %w", err)
	}
	img := annotate.Draw(rast.Image, dets)
	path := filepath.Join(dir, fmt.Sprintf("area_%d.png", id))
	return annotate.Save(img, path)
}

func writeSummaryTable(w io.Writer, regions []osm.Region, estimates []estimate.CapacityEstimate) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "osm_id\ttype\tarea_m2\tcapacity\tvehicles\tfree\toccupancy\tconfidence"); err != nil {
		return err
	}

	for i, region := range regions {
		est := estimates[i]
		parkingType := region.ParkingType
		if parkingType == "" {
			parkingType = "surface"
		}
		occupancy := "n/a"
		if est.OccupancyDefined {
			occupancy = fmt.Sprintf("%.1f%%", est.OccupancyPct)
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%.0f\t%d (±%d)\t%d\t%d\t%s\t%s\n",
			region.ID, parkingType, region.AreaM2,
			est.Capacity, (est.CapacityHigh-est.CapacityLow)/2,
			est.VehiclesDetected, est.Free, occupancy, est.Confidence); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func writeTotals(w io.Writer, totals estimate.Totals) {
	fmt.Fprintf(w, "\nTotals: capacity %d, vehicles %d, free %d, occupancy %.1f%%\n",
		totals.Capacity, totals.Vehicles, totals.Free, totals.OccupancyPct)
}

func ensureOutputDir(outPath string) error {
	dir := filepath.Dir(outPath)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

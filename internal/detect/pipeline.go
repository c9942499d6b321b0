package detect

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"parkscan/internal/config"
	"parkscan/internal/raster"
)

// Diagnostics records how a region's detection pass went. Callers use it to
// tell "successful but low-confidence" apart from a hard failure.
type Diagnostics struct {
	TilesTotal    int
	TilesFailed   int // detector errors; each failed tile contributed zero detections
	TilesSkipped  int // tiles skipped after the detection cap was already exceeded
	RawDetections int // before suppression and filtering
	Truncated     bool
	LowResolution bool

	MeanConfidence float64
	StdConfidence  float64
}

// Degraded reports whether any tile failed or was skipped.
func (d Diagnostics) Degraded() bool {
	return d.TilesFailed > 0 || d.TilesSkipped > 0
}

// Result is the outcome of one region's detection pass.
type Result struct {
	Detections  []Detection
	Diagnostics Diagnostics
}

// Pipeline runs tiled detection over a raster: partition, detect per tile on
// a bounded worker pool, remap, suppress duplicates across tiles, filter.
type Pipeline struct {
	detector Detector
	cfg      config.Config
}

// NewPipeline returns a pipeline using the given detector backend.
func NewPipeline(detector Detector, cfg config.Config) *Pipeline {
	return &Pipeline{detector: detector, cfg: cfg}
}

// Run executes the full detection pass for one raster. A single tile failure
// degrades the result instead of aborting it; the error return is reserved
// for invalid tiling geometry.
func (p *Pipeline) Run(ctx context.Context, r *raster.Raster) (Result, error) {
	factor := 1
	if minSide(r) < p.cfg.UpscaleMinSide {
		factor = 2
	}
	work := r.Upscale(factor)

	tiles, err := raster.Tiles(work.Width(), work.Height(), p.cfg.TileSize, p.cfg.TileSize, p.cfg.TileOverlap)
	if err != nil {
		return Result{}, fmt.Errorf("partition raster: %w", err)
	}

	perTile := make([][]Detection, len(tiles))
	errs := make([]error, len(tiles))
	var skipped atomic.Int64
	var rawCount atomic.Int64

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Best-effort early exit: once committed results already
				// exceed the cap, further tiles cannot change the capped set.
				if int(rawCount.Load()) > p.cfg.MaxDetections {
					skipped.Add(1)
					continue
				}

				tile := tiles[i]
				dets, err := p.detector.Detect(ctx, work.Crop(tile), p.cfg.Confidence)
				if err != nil {
					errs[i] = err
					continue
				}
				perTile[i] = Remap(dets, tile.X0, tile.Y0)
				rawCount.Add(int64(len(dets)))
			}
		}()
	}

	for i := range tiles {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Single-threaded combine: workers only ever wrote their own slot.
	diag := Diagnostics{
		TilesTotal:    len(tiles),
		TilesSkipped:  int(skipped.Load()),
		LowResolution: r.LowResolution,
	}
	all := make([]Detection, 0, rawCount.Load())
	for i := range tiles {
		if errs[i] != nil {
			diag.TilesFailed++
			continue
		}
		all = append(all, perTile[i]...)
	}
	diag.RawDetections = len(all)

	merged := Suppress(all, p.cfg.NMSIoU)
	merged = Downscale(merged, factor)

	kept, truncated := Filter(merged, FilterParams{
		GSD:           r.GSD,
		MinAreaM2:     p.cfg.MinVehicleAreaM2,
		MaxAreaM2:     p.cfg.MaxVehicleAreaM2,
		MinAspect:     p.cfg.MinAspect,
		MaxAspect:     p.cfg.MaxAspect,
		MaxDetections: p.cfg.MaxDetections,
	})
	diag.Truncated = truncated

	confidences := make([]float64, len(kept))
	for i, d := range kept {
		confidences[i] = d.Confidence
	}
	diag.MeanConfidence, diag.StdConfidence = MeanStd(confidences)

	return Result{Detections: kept, Diagnostics: diag}, nil
}

func minSide(r *raster.Raster) int {
	if r.Width() < r.Height() {
		return r.Width()
	}
	return r.Height()
}

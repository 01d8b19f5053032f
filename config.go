package sidesplitter

import (
	"fmt"

	"github.com/aylett-lab/sidesplitter/internal/parallel"
)

// Config describes one pipeline run: the two half-maps to denoise, an
// optional mask and output root, and the optional-variant switches.
type Config struct {
	// V1, V2 are paths to the two half-map MRC volumes. Both required.
	V1, V2 string

	// Out is the output path root; outputs are written to
	// "<Out>_halfmap1.mrc" and "<Out>_halfmap2.mrc". If empty,
	// "halfmap1.mrc" and "halfmap2.mrc" are written to the current
	// directory.
	Out string

	// Mask is an optional path to a soft mask MRC volume. If empty, a
	// radial soft mask of radius N/4 is synthesised about the cube
	// centre.
	Mask string

	// Spectrum, if true, skips the final spectrum re-application step.
	Spectrum bool

	// Rotfl requests the tapering variant of Pass 2. Pipeline.Run logs a
	// warning when it is set and still runs hard voxel admission; no
	// tapering is applied.
	Rotfl bool

	// Workers overrides the worker count used by every kernel. Zero
	// means resolve from OMP_NUM_THREADS, then the online processor
	// count, then 1.
	Workers int
}

// Validate checks the required fields of c and resolves defaults,
// returning the effective worker count and output filenames.
func (c *Config) Validate() (workers int, out1, out2 string, err error) {
	if c.V1 == "" || c.V2 == "" {
		return 0, "", "", ErrMissingHalfMap
	}
	workers = c.Workers
	if workers <= 0 {
		workers = parallel.NumWorkers()
	}
	if c.Out == "" {
		return workers, "halfmap1.mrc", "halfmap2.mrc", nil
	}
	return workers, fmt.Sprintf("%s_halfmap1.mrc", c.Out), fmt.Sprintf("%s_halfmap2.mrc", c.Out), nil
}

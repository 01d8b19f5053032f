package sidesplitter

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/aylett-lab/sidesplitter/internal/fft"
	"github.com/aylett-lab/sidesplitter/internal/kernels"
	"github.com/aylett-lab/sidesplitter/internal/pass1"
	"github.com/aylett-lab/sidesplitter/internal/pass2"
	"github.com/aylett-lab/sidesplitter/internal/pass3"
	"github.com/aylett-lab/sidesplitter/mrc"
	"github.com/aylett-lab/sidesplitter/volume"
)

// Pipeline drives one complete run of the denoising state machine.
// Its zero value is not usable; construct with NewPipeline.
type Pipeline struct {
	cfg     Config
	engine  *fft.Engine
	log     *log.Logger
	workers int
}

// NewPipeline constructs a Pipeline for cfg, logging progress to
// logger. If logger is nil, a default logger writing to stderr is
// used.
func NewPipeline(cfg Config, logger *log.Logger) (*Pipeline, error) {
	workers, _, _, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{cfg: cfg, engine: fft.NewEngine(), log: logger, workers: workers}, nil
}

// Result is the final outcome of a pipeline run: the two denoised
// half-maps and the header template used to write them.
type Result struct {
	Half1, Half2 *volume.Real
	Header       *mrc.Header
}

// Run executes the full state machine: load, spectrum estimation,
// Pass 1, Pass 2, Pass 3 re-normalisation, masking, and
// optional spectrum re-application. No output is written by Run
// itself; callers use Result with mrc.Write to persist it, so a
// failure at any stage leaves no partial file on disk.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	workers, _, _, err := p.cfg.Validate()
	if err != nil {
		return nil, err
	}
	p.workers = workers

	// 1. Load.
	v1, err := mrc.Read(p.cfg.V1)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: load half-map 1: %w", err)
	}
	v2, err := mrc.Read(p.cfg.V2)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: load half-map 2: %w", err)
	}
	if err := mrc.CheckSameSize(v1, v2); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSizeMismatch, err)
	}
	n := v1.Data.N

	var maskVol *volume.Real
	if p.cfg.Mask != "" {
		m, err := mrc.Read(p.cfg.Mask)
		if err != nil {
			return nil, fmt.Errorf("sidesplitter: load mask: %w", err)
		}
		if m.Data.N != n {
			return nil, fmt.Errorf("%w: mask is %d, half-maps are %d", ErrSizeMismatch, m.Data.N, n)
		}
		maskVol = m.Data
	} else {
		maskVol, err = kernels.BuildMask(ctx, p.workers, n, float64(n)/4.0)
		if err != nil {
			return nil, fmt.Errorf("sidesplitter: synthesise mask: %w", err)
		}
	}

	p.log.Info("loaded half-maps", "side", n, "apix", v1.Header.Apix())

	// 2. Initial spectra: mask both inputs, forward-FFT, radial spectrum.
	masked1 := v1.Data.Clone()
	masked2 := v2.Data.Clone()
	if err := kernels.ApplyMask(ctx, p.workers, masked1, maskVol); err != nil {
		return nil, fmt.Errorf("sidesplitter: apply mask (spectrum pass): %w", err)
	}
	if err := kernels.ApplyMask(ctx, p.workers, masked2, maskVol); err != nil {
		return nil, fmt.Errorf("sidesplitter: apply mask (spectrum pass): %w", err)
	}
	fMasked1, err := p.engine.Forward(masked1)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: forward fft (spectrum pass): %w", err)
	}
	fMasked2, err := p.engine.Forward(masked2)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: forward fft (spectrum pass): %w", err)
	}
	spectrum, err := kernels.RadialSpectrum(ctx, p.workers, fMasked1, fMasked2)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: radial spectrum: %w", err)
	}
	apix := v1.Header.Apix()
	if spectrum.MaxRes > 0 {
		p.log.Info("estimated resolution", "angstrom", apix/spectrum.MaxRes)
	}

	// 3. Reseed Fourier from unmasked inputs; zero DC.
	real1 := volume.NewReal(n)
	real2 := volume.NewReal(n)
	if err := kernels.AddVolume(ctx, p.workers, real1, v1.Data); err != nil {
		return nil, fmt.Errorf("sidesplitter: reseed half 1: %w", err)
	}
	if err := kernels.AddVolume(ctx, p.workers, real2, v2.Data); err != nil {
		return nil, fmt.Errorf("sidesplitter: reseed half 2: %w", err)
	}
	f1, err := p.engine.Forward(real1)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: forward fft (reseed): %w", err)
	}
	f2, err := p.engine.Forward(real2)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: forward fft (reseed): %w", err)
	}
	kernels.ZeroDC(f1)
	kernels.ZeroDC(f2)

	// 4. Pass 1.
	if p.cfg.Rotfl {
		p.log.Warn("rotfl tapering requested but its exact voxel-taper formulation could not be recovered from available sources; falling back to the canonical truncation pass")
	}
	pass1Res, err := pass1.Run(ctx, p.workers, p.engine, f1, f2, maskVol, spectrum.MaxRes)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: pass 1: %w", err)
	}
	p.log.Info("pass 1 complete", "shells", pass1Res.Shells.Len())

	// 5. Forward-FFT pass 1's accumulators back to Fourier space.
	f1b, err := p.engine.Forward(pass1Res.Out1)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: forward fft (pass 1 output): %w", err)
	}
	f2b, err := p.engine.Forward(pass1Res.Out2)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: forward fft (pass 1 output): %w", err)
	}

	// 6. Pass 2.
	pass2Res, err := pass2.Run(ctx, p.workers, p.engine, f1b, f2b, maskVol, pass1Res.Shells)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: pass 2: %w", err)
	}
	p.log.Info("pass 2 complete", "recovery", pass2Res.Recovery)

	// 7. Pass 3 re-normalisation.
	f1c, err := p.engine.Forward(pass2Res.Out1)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: forward fft (pass 2 output): %w", err)
	}
	f2c, err := p.engine.Forward(pass2Res.Out2)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: forward fft (pass 2 output): %w", err)
	}
	pass3Res, err := pass3.Run(ctx, p.workers, p.engine, f1c, f2c, pass1Res.Shells)
	if err != nil {
		return nil, fmt.Errorf("sidesplitter: pass 3: %w", err)
	}

	// 8. Apply mask.
	if err := kernels.ApplyMask(ctx, p.workers, pass3Res.Out1, maskVol); err != nil {
		return nil, fmt.Errorf("sidesplitter: final mask half 1: %w", err)
	}
	if err := kernels.ApplyMask(ctx, p.workers, pass3Res.Out2, maskVol); err != nil {
		return nil, fmt.Errorf("sidesplitter: final mask half 2: %w", err)
	}

	final1, final2 := pass3Res.Out1, pass3Res.Out2

	// 9. Optional spectrum re-application.
	if !p.cfg.Spectrum {
		ff1, err := p.engine.Forward(final1)
		if err != nil {
			return nil, fmt.Errorf("sidesplitter: forward fft (spectrum reapply): %w", err)
		}
		ff2, err := p.engine.Forward(final2)
		if err != nil {
			return nil, fmt.Errorf("sidesplitter: forward fft (spectrum reapply): %w", err)
		}
		ff1, err = kernels.ApplySpectrum(ctx, p.workers, ff1, spectrum.Spec1, spectrum.MaxRes)
		if err != nil {
			return nil, fmt.Errorf("sidesplitter: apply spectrum half 1: %w", err)
		}
		ff2, err = kernels.ApplySpectrum(ctx, p.workers, ff2, spectrum.Spec2, spectrum.MaxRes)
		if err != nil {
			return nil, fmt.Errorf("sidesplitter: apply spectrum half 2: %w", err)
		}
		final1, err = p.engine.Inverse(ff1)
		if err != nil {
			return nil, fmt.Errorf("sidesplitter: inverse fft (spectrum reapply): %w", err)
		}
		final2, err = p.engine.Inverse(ff2)
		if err != nil {
			return nil, fmt.Errorf("sidesplitter: inverse fft (spectrum reapply): %w", err)
		}
	}

	return &Result{Half1: final1, Half2: final2, Header: v1.Header}, nil
}

// OutputPaths resolves the two output file paths for c.
func (c *Config) OutputPaths() (string, string) {
	if c.Out == "" {
		return "halfmap1.mrc", "halfmap2.mrc"
	}
	return fmt.Sprintf("%s_halfmap1.mrc", c.Out), fmt.Sprintf("%s_halfmap2.mrc", c.Out)
}

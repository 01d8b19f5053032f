// Package sidesplitter implements the LAFTER-for-halfmaps denoising
// pipeline: given two cryo-EM half-map reconstructions of identical
// cubic size, it suppresses voxels statistically indistinguishable
// from noise while keeping the two half-maps' Fourier content
// independent of one another.
//
// The pipeline is a fixed state machine (see Pipeline.Run): load and
// mask the inputs, estimate their radial power spectrum, walk the
// resolution shells forward accumulating a probability-weighted
// reconstruction (pass 1), walk them backward admitting only voxels
// above a locally estimated noise ceiling (pass 2), re-normalise
// against the pass 1 weighting (pass 3), and optionally
// re-apply the original spectrum before writing the two denoised
// half-maps back out as MRC volumes.
package sidesplitter

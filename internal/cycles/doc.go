// Package cycles holds the cycle overlay aggregation engine: the data model for
// the datasets a spectral-analysis run exports for one series, the cycle key
// codec used to join them, stability normalization, ranking, selection state,
// superposition of per-cycle waveforms and display color assignment.
//
// Everything in this package is pure, synchronous computation over data that is
// already resident in memory. Fetching and session ownership live elsewhere
// (see internal/loader and internal/session).
package cycles

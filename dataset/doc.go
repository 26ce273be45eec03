// Package dataset holds the domain model built on top of the ebml
// container layer: recorder properties, sensors, channels with their
// scalar sub-channels, recording sessions, and the sample blocks that
// carry the actual measurements.
//
// The model is populated in two phases. Header parsing creates the
// immutable structure (sensors, channels, sessions, calibration
// transforms); data reading then appends Blocks to per-channel,
// per-session EventLists. Block append is the only mutation after the
// header phase, so readers may query an EventList while an import is
// still appending to it and observe a consistent prefix.
//
// Raw sample codes are converted to physical units on read through the
// Dataset's transform registry; nothing in this package caches
// calibrated values, only raw per-block summaries.
package dataset

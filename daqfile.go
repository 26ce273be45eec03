// Package daqfile reads EBML-framed binary sensor recordings and
// exposes them as time-addressable, calibrated channels.
//
// A recording is a sequence of root elements: recorder metadata,
// sensor and channel declarations, calibration polynomials, session
// markers, and repeated data blocks carrying raw samples. The ebml
// package walks that structure lazily; the dataset package turns it
// into sensors, channels, sessions, and queryable blocks; the
// transform package converts raw sample codes into physical units; the
// importer package drives the two loading phases.
//
// Typical use:
//
//	ds, err := daqfile.Load(ctx, "recording.dq")
//	if err != nil { ... }
//	defer ds.Close()
//
//	ch, _ := ds.ChannelByName("Acceleration")
//	el, _ := ch.Session(1)
//	samples, err := el.Slice(t0, t1)
//
// For progressive loading with a UI, call Open and run ReadData on a
// worker goroutine; queries against already-appended blocks are safe
// while the import runs.
package daqfile

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/varanine/daqfile/dataset"
	"github.com/varanine/daqfile/ebml"
	"github.com/varanine/daqfile/importer"
)

// Open opens a recording file and parses its structural roots. The
// returned dataset owns the file handle; Close releases it. No sample
// blocks are loaded yet.
func Open(path string, opts ...importer.Option) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat recording: %w", err)
	}

	src := ebml.NewSource(f, info.Size())
	ds, err := importer.OpenHeader(src, append(opts, importer.WithCloser(f))...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return ds, nil
}

// OpenReader parses the structural roots of a recording served by any
// io.ReaderAt. The caller keeps ownership of r.
func OpenReader(r io.ReaderAt, size int64, opts ...importer.Option) (*dataset.Dataset, error) {
	return importer.OpenHeader(ebml.NewSource(r, size), opts...)
}

// ReadData loads a dataset's sample blocks. See importer.ReadData for
// cancellation and progress semantics.
func ReadData(ctx context.Context, ds *dataset.Dataset, opts ...importer.Option) error {
	return importer.ReadData(ctx, ds, opts...)
}

// Load opens a recording and reads all of its sample blocks. The
// context cancels the data phase; a cancelled load still returns the
// partial dataset with its LoadCancelled flag set.
func Load(ctx context.Context, path string, opts ...importer.Option) (*dataset.Dataset, error) {
	ds, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	if err := importer.ReadData(ctx, ds, opts...); err != nil {
		ds.Close()
		return nil, err
	}
	return ds, nil
}

// ReadManifestFile reads a device manifest from a file.
func ReadManifestFile(path string) (*importer.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	return importer.ReadManifest(ebml.NewSource(f, info.Size()))
}

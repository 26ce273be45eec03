// Package importer drives a recording's element tree into the dataset
// model. OpenHeader parses the structural roots (recorder properties,
// sensors, channels, calibration, sessions) synchronously; ReadData
// then walks the data-block roots incrementally, appending blocks
// while readers may already query the dataset.
package importer

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/varanine/daqfile/dataset"
	"github.com/varanine/daqfile/ebml"
	"github.com/varanine/daqfile/internal/options"
)

// Progress is one progress report from ReadData.
type Progress struct {
	// Blocks is the number of data blocks appended so far.
	Blocks int
	// Percent estimates completion from the byte offset of the last
	// processed root, in [0, 100].
	Percent float64
	// Done is true exactly once, on the final report.
	Done bool
	// Err carries the terminal error on the final report, if any.
	Err error
}

// ProgressFunc receives periodic progress reports. It is called from
// the importing goroutine at a bounded cadence, never per sample.
type ProgressFunc func(Progress)

type config struct {
	logger           *slog.Logger
	closer           io.Closer
	progress         ProgressFunc
	progressInterval time.Duration
	progressBlocks   int
}

// Option adjusts OpenHeader and ReadData behavior.
type Option = options.Option[*config]

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		logger:           slog.New(slog.DiscardHandler),
		progressInterval: 100 * time.Millisecond,
		progressBlocks:   256,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithLogger routes import diagnostics to the given logger. The
// default discards them.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *config) {
		c.logger = logger
	})
}

// WithCloser hands the dataset a closer for the underlying byte
// source, released by Dataset.Close.
func WithCloser(closer io.Closer) Option {
	return options.NoError(func(c *config) {
		c.closer = closer
	})
}

// WithProgress registers a progress callback for ReadData.
func WithProgress(fn ProgressFunc) Option {
	return options.NoError(func(c *config) {
		c.progress = fn
	})
}

// WithProgressInterval sets the minimum wall-time gap between two
// non-final progress reports.
func WithProgressInterval(d time.Duration) Option {
	return options.NoError(func(c *config) {
		c.progressInterval = d
	})
}

// WithProgressEveryBlocks also emits a report every n appended blocks,
// regardless of elapsed time.
func WithProgressEveryBlocks(n int) Option {
	return options.NoError(func(c *config) {
		c.progressBlocks = n
	})
}

// OpenHeader parses the structural roots of a recording and returns a
// dataset with its sensors, channels, sessions, and calibration
// registry populated, but no blocks yet. Damage found while walking
// marks the dataset instead of failing; only a calibration graph that
// cannot be registered (a reference cycle) is an error.
func OpenHeader(src *ebml.Source, opts ...Option) (*dataset.Dataset, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	doc := ebml.NewDocument(src, ebml.RecordingSchema())
	ds := dataset.New(doc, cfg.closer)

	h := &headerParser{ds: ds, logger: cfg.logger}
	for root := range doc.Roots() {
		if err := h.handleRoot(root); err != nil {
			return nil, err
		}
	}

	if err := h.registerTransforms(); err != nil {
		return nil, err
	}

	if doc.Damaged() {
		cfg.logger.Warn("recording structurally damaged",
			slog.Any("cause", doc.DamageCause()))
		ds.MarkFileDamaged()
	}

	return ds, nil
}

// ReadData walks the document's data-block roots and appends their
// samples to the dataset. Cancellation is checked between roots; a
// cancelled read marks the dataset load-cancelled and returns nil,
// leaving every block appended so far queryable. Structural damage
// likewise ends the walk without error.
func ReadData(ctx context.Context, ds *dataset.Dataset, opts ...Option) error {
	cfg, err := newConfig(opts...)
	if err != nil {
		return err
	}

	ds.SetLoading(true)
	defer ds.SetLoading(false)

	doc := ds.Document()
	size := doc.Source().Size()

	r := &dataReader{
		ds:     ds,
		logger: cfg.logger,
	}
	if sessions := ds.Sessions(); len(sessions) > 0 {
		r.sessionID = sessions[0].ID()
	} else {
		// Old recordings carry no session elements; everything lands
		// in one implicit session.
		ds.StartSession(0, 0, time.Time{})
		r.sessionID = 0
	}

	lastReport := time.Now()
	lastBlocks := 0
	report := func(off int64, done bool, err error) {
		if cfg.progress == nil {
			return
		}
		// A cancelled walk ends with a partial percent; only reaching
		// the end of the source reports 100.
		percent := 100.0
		if size > 0 {
			percent = min(float64(off)/float64(size)*100.0, 100.0)
		}
		cfg.progress(Progress{Blocks: r.blocks, Percent: percent, Done: done, Err: err})
		lastReport = time.Now()
		lastBlocks = r.blocks
	}

	for root := range doc.Roots() {
		if ctx.Err() != nil {
			ds.MarkLoadCancelled()
			cfg.logger.Info("import cancelled",
				slog.Int("blocks", r.blocks))
			report(root.Offset(), true, nil)
			return nil
		}

		r.handleRoot(root)

		if r.blocks-lastBlocks >= cfg.progressBlocks ||
			time.Since(lastReport) >= cfg.progressInterval {
			report(root.Offset()+root.Size(), false, nil)
		}
	}

	if doc.Damaged() {
		cfg.logger.Warn("data phase stopped at structural damage",
			slog.Any("cause", doc.DamageCause()),
			slog.Int("blocks", r.blocks))
		ds.MarkFileDamaged()
	}

	report(size, true, nil)
	return nil
}

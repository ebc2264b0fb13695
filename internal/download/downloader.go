package download

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/quantmind-br/cargomirror-go/internal/assets"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/quantmind-br/cargomirror-go/internal/fetcher"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

// DefaultConcurrency is the number of parallel workers
const DefaultConcurrency = 6

// Options configures a Downloader
type Options struct {
	Concurrency int
	Retry       fetcher.RetrierOptions
	// RootDir anchors relative manifest local paths.
	RootDir string
	// ShowProgress renders a progress bar on ProgressOutput (stderr when nil).
	ShowProgress   bool
	ProgressOutput io.Writer
}

// DefaultOptions returns default downloader options
func DefaultOptions() Options {
	return Options{
		Concurrency: DefaultConcurrency,
		Retry:       fetcher.DefaultRetrierOptions(),
		RootDir:     ".",
	}
}

// Downloader mirrors manifest entries to the local filesystem.
type Downloader struct {
	fetcher domain.Fetcher
	retrier *fetcher.Retrier
	logger  *utils.Logger
	opts    Options
	now     func() time.Time
}

// NewDownloader creates a Downloader fetching through f
func NewDownloader(f domain.Fetcher, logger *utils.Logger, opts Options) *Downloader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.RootDir == "" {
		opts.RootDir = "."
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Downloader{
		fetcher: f,
		retrier: fetcher.NewRetrier(opts.Retry),
		logger:  logger.WithComponent("download"),
		opts:    opts,
		now:     time.Now,
	}
}

// Run downloads every entry of the manifest. Per-item failures are recorded
// in the report, never returned; check Report.Err. A non-nil error means
// ctx was cancelled and the report is partial.
func (d *Downloader) Run(ctx context.Context, manifest *assets.Manifest) (*Report, error) {
	var entries []assets.Entry
	if manifest != nil {
		entries = manifest.Assets
	}

	var bar interface{ Add(int) error }
	if d.opts.ShowProgress && len(entries) > 0 {
		pb := utils.NewProgressBar(d.opts.ProgressOutput, len(entries), utils.DescDownloading)
		defer pb.Finish()
		bar = pb
	}

	items := make([]Item, len(entries))
	errs := utils.ParallelForEach(ctx, entries, d.opts.Concurrency, func(ctx context.Context, i int, entry assets.Entry) error {
		items[i] = d.download(ctx, i, len(entries), entry)
		if bar != nil {
			_ = bar.Add(1)
		}
		return nil
	})

	for i, err := range errs {
		if err != nil {
			items[i] = failedItem(entries[i], 0, err)
		}
	}

	sort.SliceStable(items, func(a, b int) bool { return items[a].URL < items[b].URL })

	report := &Report{
		GeneratedAt: d.now().UTC(),
		Total:       len(items),
		Items:       items,
	}
	for _, item := range items {
		if item.Status == StatusDownloaded {
			report.Downloaded++
		} else {
			report.Failed++
		}
	}

	d.logger.Info().
		Int("downloaded", report.Downloaded).
		Int("failed", report.Failed).
		Int("total", report.Total).
		Msg("Downloads finished")

	return report, ctx.Err()
}

// download fetches one entry with retries and writes it on success.
func (d *Downloader) download(ctx context.Context, i, total int, entry assets.Entry) Item {
	source := fetchURL(entry)
	log := d.logger.WithURL(entry.URL)

	resp, attempts, err := fetcher.RetryWithValue(ctx, d.retrier, func(attempt int) (*domain.Response, error) {
		resp, err := d.fetcher.Get(ctx, source)
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Msg("Attempt failed")
		}
		return resp, err
	})
	if err != nil {
		log.Warn().Err(err).Int("attempts", attempts).Msgf("[%d/%d] failed", i+1, total)
		return failedItem(entry, attempts, err)
	}

	if err := utils.WriteFile(d.resolve(entry.LocalPath), resp.Body); err != nil {
		log.Warn().Err(err).Msgf("[%d/%d] write failed", i+1, total)
		return failedItem(entry, attempts, err)
	}

	status := resp.StatusCode
	log.Debug().Int("attempts", attempts).Int("bytes", len(resp.Body)).Msgf("[%d/%d] downloaded", i+1, total)
	return Item{
		URL:         entry.URL,
		FetchedFrom: source,
		LocalPath:   entry.LocalPath,
		Status:      StatusDownloaded,
		Attempts:    attempts,
		HTTPStatus:  &status,
		Bytes:       len(resp.Body),
	}
}

func (d *Downloader) resolve(localPath string) string {
	p := filepath.FromSlash(localPath)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.opts.RootDir, p)
}

func fetchURL(entry assets.Entry) string {
	if entry.DownloadURL != "" {
		return entry.DownloadURL
	}
	return entry.URL
}

func failedItem(entry assets.Entry, attempts int, err error) Item {
	item := Item{
		URL:         entry.URL,
		FetchedFrom: fetchURL(entry),
		LocalPath:   entry.LocalPath,
		Status:      StatusFailed,
		Attempts:    attempts,
		Error:       err.Error(),
	}
	if code := domain.StatusCodeOf(err); code > 0 {
		item.HTTPStatus = &code
	}
	return item
}

package download

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantmind-br/cargomirror-go/internal/assets"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/quantmind-br/cargomirror-go/internal/fetcher"
	"github.com/quantmind-br/cargomirror-go/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	okURL      = "https://freight.cargo.site/t/original/i/H1/a.png"
	okDownload = "https://freight.cargo.site/w/1200/q/75/i/H1/a.png"
	missingURL = "https://static.cargo.site/assets/missing.svg"
)

func testOptions(root string) Options {
	return Options{
		Concurrency: 2,
		Retry:       fetcher.RetrierOptions{MaxAttempts: 3, Delay: time.Millisecond},
		RootDir:     root,
	}
}

func okResponse(body string) *domain.Response {
	return &domain.Response{StatusCode: 200, Body: []byte(body)}
}

func notFound(url string) error {
	return domain.NewFetchError(url, 404, errors.New("HTTP 404"))
}

func TestDownloader_Run(t *testing.T) {
	root := t.TempDir()
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)

	f.EXPECT().Get(gomock.Any(), okDownload).Return(okResponse("png"), nil).Times(1)
	f.EXPECT().Get(gomock.Any(), missingURL).Return(nil, notFound(missingURL)).Times(3)

	manifest := &assets.Manifest{Assets: []assets.Entry{
		{URL: missingURL, LocalPath: "public/assets/cargo/static.cargo.site/assets/missing.svg"},
		{URL: okURL, DownloadURL: okDownload, LocalPath: "public/assets/cargo/freight.cargo.site/t/original/i/H1/a.png"},
	}}

	d := NewDownloader(f, nil, testOptions(root))
	report, err := d.Run(context.Background(), manifest)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Downloaded)
	assert.Equal(t, 1, report.Failed)
	assert.ErrorIs(t, report.Err(), domain.ErrDownloadsFailed)

	require.Len(t, report.Items, 2)
	ok, failed := report.Items[0], report.Items[1]

	assert.Equal(t, okURL, ok.URL)
	assert.Equal(t, okDownload, ok.FetchedFrom)
	assert.Equal(t, StatusDownloaded, ok.Status)
	assert.Equal(t, 1, ok.Attempts)
	require.NotNil(t, ok.HTTPStatus)
	assert.Equal(t, 200, *ok.HTTPStatus)
	assert.Equal(t, 3, ok.Bytes)
	assert.Empty(t, ok.Error)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ok.LocalPath)))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	assert.Equal(t, missingURL, failed.URL)
	assert.Equal(t, missingURL, failed.FetchedFrom)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, 3, failed.Attempts)
	require.NotNil(t, failed.HTTPStatus)
	assert.Equal(t, 404, *failed.HTTPStatus)
	assert.Equal(t, 0, failed.Bytes)
	assert.Contains(t, failed.Error, "HTTP 404")
	assert.NoFileExists(t, filepath.Join(root, filepath.FromSlash(failed.LocalPath)))
}

func TestDownloader_RetriesTransientFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)

	gomock.InOrder(
		f.EXPECT().Get(gomock.Any(), okURL).Return(nil, errors.New("connection reset")),
		f.EXPECT().Get(gomock.Any(), okURL).Return(okResponse("x"), nil),
	)

	d := NewDownloader(f, nil, testOptions(t.TempDir()))
	report, err := d.Run(context.Background(), &assets.Manifest{Assets: []assets.Entry{
		{URL: okURL, LocalPath: "a.png"},
	}})
	require.NoError(t, err)

	require.Len(t, report.Items, 1)
	assert.Equal(t, 2, report.Items[0].Attempts)
	assert.Equal(t, StatusDownloaded, report.Items[0].Status)
	assert.NoError(t, report.Err())
}

func TestDownloader_TransportFailureHasNoStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	f.EXPECT().Get(gomock.Any(), okURL).Return(nil, errors.New("dial tcp: refused")).Times(2)

	opts := testOptions(t.TempDir())
	opts.Retry.MaxAttempts = 2
	report, err := NewDownloader(f, nil, opts).Run(context.Background(), &assets.Manifest{Assets: []assets.Entry{
		{URL: okURL, LocalPath: "a.png"},
	}})
	require.NoError(t, err)

	item := report.Items[0]
	assert.Equal(t, StatusFailed, item.Status)
	assert.Equal(t, 2, item.Attempts)
	assert.Nil(t, item.HTTPStatus)
	assert.Equal(t, "dial tcp: refused", item.Error)
}

func TestDownloader_ItemsSortedByURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	f.EXPECT().Get(gomock.Any(), gomock.Any()).Return(okResponse("x"), nil).AnyTimes()

	entries := []assets.Entry{
		{URL: "https://static.cargo.site/c.png", LocalPath: "c.png"},
		{URL: "https://freight.cargo.site/b.png", LocalPath: "b.png"},
		{URL: "https://freight.cargo.site/a.png", LocalPath: "a.png"},
	}

	opts := testOptions(t.TempDir())
	opts.ShowProgress = true
	var progress bytes.Buffer
	opts.ProgressOutput = &progress

	report, err := NewDownloader(f, nil, opts).Run(context.Background(), &assets.Manifest{Assets: entries})
	require.NoError(t, err)

	var urls []string
	for _, item := range report.Items {
		urls = append(urls, item.URL)
	}
	assert.Equal(t, []string{
		"https://freight.cargo.site/a.png",
		"https://freight.cargo.site/b.png",
		"https://static.cargo.site/c.png",
	}, urls)
	assert.Contains(t, progress.String(), "Downloading assets")
}

func TestDownloader_EmptyManifest(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)

	report, err := NewDownloader(f, nil, DefaultOptions()).Run(context.Background(), &assets.Manifest{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Total)
	assert.NotNil(t, report.Items)
	assert.NoError(t, report.Err())
}

func TestDownloader_CancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	f.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, context.Canceled).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewDownloader(f, nil, testOptions(t.TempDir())).Run(ctx, &assets.Manifest{Assets: []assets.Entry{
		{URL: okURL, LocalPath: "a.png"},
		{URL: missingURL, LocalPath: "b.svg"},
	}})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Failed)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 6, opts.Concurrency)
	assert.Equal(t, 3, opts.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, opts.Retry.Delay)
	assert.False(t, opts.ShowProgress)
}

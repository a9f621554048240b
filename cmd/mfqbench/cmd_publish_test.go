package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/mfqbench/internal/publish"
)

type fakeUploader struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeUploader) Upload(_ context.Context, container, name string, _ []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, container+"/"+name)
	return nil
}

func withUploader(t *testing.T, u publish.Uploader, err error) *string {
	t.Helper()
	prev := newUploader
	t.Cleanup(func() { newUploader = prev })

	var gotURL string
	newUploader = func(accountURL string) (publish.Uploader, error) {
		gotURL = accountURL
		return u, err
	}
	return &gotURL
}

func TestPublishCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	createResultFile(t, dir, "moral_foundations_results_20250701_100000.json", sampleResults(4, 2))

	up := &fakeUploader{}
	gotURL := withUploader(t, up, nil)

	out, err := executeCommand(t, "publish", dir, "--account-url", "https://acct.blob.core.windows.net", "--prefix", "nightly")
	require.NoError(t, err)
	assert.Equal(t, "https://acct.blob.core.windows.net", *gotURL)
	assert.Contains(t, out, "Published 2 artifact(s)")
	assert.ElementsMatch(t, []string{
		"mfq-results/nightly/index.json",
		"mfq-results/nightly/moral_foundations_results_20250701_100000.json",
	}, up.names)
}

func TestPublishCommand_UploaderError(t *testing.T) {
	t.Chdir(t.TempDir())
	withUploader(t, nil, publish.ErrNoDestination)

	_, err := executeCommand(t, "publish", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, publish.ErrNoDestination))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

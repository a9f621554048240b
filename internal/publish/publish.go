// Package publish uploads run artifacts to Azure Blob Storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"golang.org/x/sync/errgroup"

	"github.com/spboyer/mfqbench/internal/dashboard"
	"github.com/spboyer/mfqbench/internal/reporting"
)

// ConnectionStringEnv names the variable that, when set, replaces Entra ID auth with a
// storage connection string (Azurite, CI).
const ConnectionStringEnv = "AZURE_STORAGE_CONNECTION_STRING"

// ErrNoDestination is returned when neither an account URL nor a connection string is set.
var ErrNoDestination = errors.New("no storage account: set publish.account_url or " + ConnectionStringEnv)

// Uploader stores one blob.
type Uploader interface {
	Upload(ctx context.Context, container, name string, data []byte, contentType string) error
}

// BlobUploader uploads through the Azure Blob SDK.
type BlobUploader struct {
	client *azblob.Client
}

// NewBlobUploader connects to accountURL with DefaultAzureCredential, or uses the
// connection string from the environment when one is present.
func NewBlobUploader(accountURL string) (*BlobUploader, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: 3},
		},
	}

	if cs := os.Getenv(ConnectionStringEnv); cs != "" {
		client, err := azblob.NewClientFromConnectionString(cs, opts)
		if err != nil {
			return nil, fmt.Errorf("creating blob client from connection string: %w", err)
		}
		return &BlobUploader{client: client}, nil
	}

	if accountURL == "" {
		return nil, ErrNoDestination
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating Azure credential: %w", err)
	}
	client, err := azblob.NewClient(accountURL, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return &BlobUploader{client: client}, nil
}

// Upload implements Uploader.
func (u *BlobUploader) Upload(ctx context.Context, container, name string, data []byte, contentType string) error {
	_, err := u.client.UploadBuffer(ctx, container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	return nil
}

// Publisher copies the artifacts of a results directory into a container.
type Publisher struct {
	uploader  Uploader
	container string
	prefix    string
	workers   int
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithPrefix places every blob under prefix ("nightly/" gives "nightly/index.json").
func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// WithWorkers bounds the number of concurrent uploads.
func WithWorkers(n int) Option {
	return func(p *Publisher) {
		p.workers = n
	}
}

// NewPublisher creates a Publisher for the given container.
func NewPublisher(u Uploader, container string, opts ...Option) *Publisher {
	p := &Publisher{uploader: u, container: container, workers: 4}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// Artifacts lists the files of dir that get published, sorted.
func Artifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isArtifact(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func isArtifact(name string) bool {
	if name == dashboard.IndexFile {
		return true
	}
	if strings.HasPrefix(name, reporting.SummaryPrefix) && strings.HasSuffix(name, ".txt") {
		return true
	}
	if !strings.HasPrefix(name, reporting.ResultsPrefix) {
		return false
	}
	_, ok := contentTypes[filepath.Ext(name)]
	return ok
}

var contentTypes = map[string]string{
	".json": "application/json",
	".csv":  "text/csv; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".xml":  "application/xml",
	".txt":  "text/plain; charset=utf-8",
}

// PublishDir uploads every artifact in dir and returns the blob names written, sorted.
// The first failed upload cancels the rest.
func (p *Publisher) PublishDir(ctx context.Context, dir string) ([]string, error) {
	names, err := Artifacts(dir)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		uploaded []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, name := range names {
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			blobName := path.Join(p.prefix, name)
			if err := p.uploader.Upload(gctx, p.container, blobName, data, contentTypes[filepath.Ext(name)]); err != nil {
				return err
			}

			mu.Lock()
			uploaded = append(uploaded, blobName)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("publishing %s: %w", dir, err)
	}

	slices.Sort(uploaded)
	return uploaded, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/spboyer/mfqbench/internal/dashboard"
	"github.com/spboyer/mfqbench/internal/publish"
)

var (
	publishAccountURL string
	publishContainer  string
	publishPrefix     string
)

// newUploader is a test hook for replacing the Azure uploader.
var newUploader = func(accountURL string) (publish.Uploader, error) {
	return publish.NewBlobUploader(accountURL)
}

func newPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [dir]",
		Short: "Upload result artifacts to Azure Blob Storage",
		Long: `Upload the result artifacts of a directory to an Azure Blob Storage container.

The dashboard index is rebuilt first, then every results file (JSON, CSV, HTML,
JUnit XML), summary and index.json is uploaded. Authentication uses
DefaultAzureCredential (environment, managed identity, Azure CLI). Set
AZURE_STORAGE_CONNECTION_STRING to use a connection string instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: publishCommandE,
	}

	cmd.Flags().StringVar(&publishAccountURL, "account-url", "", "Blob service URL, e.g. https://<account>.blob.core.windows.net")
	cmd.Flags().StringVar(&publishContainer, "container", "", "Container name (default from .mfqbench.yaml or mfq-results)")
	cmd.Flags().StringVar(&publishPrefix, "prefix", "", "Blob name prefix")

	return cmd
}

func publishCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	pc, err := loadProjectConfig()
	if err != nil {
		return err
	}
	dir := pc.Paths.Results
	if len(args) == 1 {
		dir = args[0]
	}

	accountURL := firstNonEmpty(publishAccountURL, pc.Publish.AccountURL)
	container := firstNonEmpty(publishContainer, pc.Publish.Container)
	prefix := firstNonEmpty(publishPrefix, pc.Publish.Prefix)

	if _, err := dashboard.RebuildIndex(dir); err != nil {
		return fmt.Errorf("updating dashboard index: %w", err)
	}

	uploader, err := newUploader(accountURL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	written, err := publish.NewPublisher(uploader, container, publish.WithPrefix(prefix)).PublishDir(ctx, dir)
	if err != nil {
		return err
	}
	for _, name := range written {
		fmt.Fprintf(out, "✓ Uploaded %s/%s\n", container, name)
	}
	fmt.Fprintf(out, "Published %d artifact(s)\n", len(written))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

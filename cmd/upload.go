package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devdocsai/devdocs/internal/service"
)

// uploadArgs holds the parsed upload command line.
type uploadArgs struct {
	Path    string
	Version string
	Owner   string
	Sync    bool
}

// parseUploadArgs parses the arguments after "upload", supporting:
//   - devdocs upload api.yaml
//   - devdocs upload api.yaml -version v2 -owner team-a
//   - devdocs upload -sync api.yaml
func parseUploadArgs(args []string) (uploadArgs, error) {
	flags := flag.NewFlagSet("upload", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	version := flags.String("version", "", "Document version label")
	owner := flags.String("owner", "local", "Owner identifier")
	sync := flags.Bool("sync", false, "Process synchronously instead of enqueueing")

	if err := flags.Parse(args); err != nil {
		return uploadArgs{}, fmt.Errorf("parsing upload flags: %w", err)
	}
	rest := flags.Args()
	if len(rest) != 1 {
		return uploadArgs{}, fmt.Errorf("expected exactly one file argument, got %d", len(rest))
	}

	return uploadArgs{
		Path:    rest[0],
		Version: *version,
		Owner:   *owner,
		Sync:    *sync,
	}, nil
}

// runUpload stores a document and triggers its processing.
func runUpload() error {
	parsed, err := parseUploadArgs(os.Args[2:])
	if err != nil {
		return err
	}

	data, err := os.ReadFile(parsed.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", parsed.Path, err)
	}

	ctx := context.Background()
	a, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	doc, err := a.Service.Upload(ctx, service.UploadRequest{
		Name:    filepath.Base(parsed.Path),
		Version: parsed.Version,
		OwnerID: parsed.Owner,
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("uploading document: %w", err)
	}
	fmt.Printf("Uploaded %s (%s)\n", doc.Name, doc.ID)

	if parsed.Sync {
		if err := a.Service.IngestSync(ctx, doc.ID); err != nil {
			return fmt.Errorf("processing document: %w", err)
		}
		fmt.Println("Processed")
	}
	return nil
}

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// runList prints an owner's documents, newest first.
func runList() error {
	flags := flag.NewFlagSet("list", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	owner := flags.String("owner", "local", "Owner identifier")
	if err := flags.Parse(os.Args[2:]); err != nil {
		return fmt.Errorf("parsing list flags: %w", err)
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

	docs, err := a.Service.List(ctx, *owner)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No documents")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%s  %-10s %-8s %s", doc.ID, doc.EffectiveStatus(), doc.Type, doc.Name)
		if doc.Version != "" {
			fmt.Printf(" (%s)", doc.Version)
		}
		fmt.Println()
	}
	return nil
}

// runStatus prints a document's effective processing state.
func runStatus() error {
	id, err := parseDocumentID(os.Args[2:])
	if err != nil {
		return err
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

	status, err := a.Service.Status(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching status: %w", err)
	}
	fmt.Printf("Status: %s\n", status.Status)
	fmt.Printf("Chunks: %d\n", status.ChunkCount)
	if status.Error != "" {
		fmt.Printf("Error: %s\n", status.Error)
	}
	return nil
}

// runDelete removes a document, its chunks and its stored bytes.
func runDelete() error {
	id, err := parseDocumentID(os.Args[2:])
	if err != nil {
		return err
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

	if err := a.Service.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

// parseDocumentID expects a single document ID argument.
func parseDocumentID(args []string) (uuid.UUID, error) {
	if len(args) != 1 {
		return uuid.Nil, fmt.Errorf("expected exactly one document ID argument, got %d", len(args))
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid document ID %q: %w", args[0], err)
	}
	return id, nil
}

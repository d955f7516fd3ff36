package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/devdocsai/devdocs/internal/service"
)

// askArgs holds the parsed ask command line.
type askArgs struct {
	Question   string
	DocumentID uuid.UUID
	Owner      string
	TopK       int
}

// parseAskArgs parses the arguments after "ask". Non-flag arguments
// are joined into the question, so quoting is optional:
//   - devdocs ask "how do I authenticate?"
//   - devdocs ask -owner team-a how do I authenticate
func parseAskArgs(args []string) (askArgs, error) {
	flags := flag.NewFlagSet("ask", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	docID := flags.String("doc", "", "Restrict to one document ID")
	owner := flags.String("owner", "", "Restrict to one owner's documents")
	topK := flags.Int("top-k", 0, "Max chunks to retrieve")

	if err := flags.Parse(args); err != nil {
		return askArgs{}, fmt.Errorf("parsing ask flags: %w", err)
	}

	question := strings.TrimSpace(strings.Join(flags.Args(), " "))
	if question == "" {
		return askArgs{}, fmt.Errorf("question is required")
	}

	parsed := askArgs{Question: question, Owner: *owner, TopK: *topK}
	if *docID != "" {
		id, err := uuid.Parse(*docID)
		if err != nil {
			return askArgs{}, fmt.Errorf("invalid document ID %q: %w", *docID, err)
		}
		parsed.DocumentID = id
	}
	return parsed, nil
}

// runAsk answers one question over the indexed documentation.
func runAsk() error {
	parsed, err := parseAskArgs(os.Args[2:])
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

	ans, err := a.Service.Ask(ctx, service.AskRequest{
		Question:   parsed.Question,
		DocumentID: parsed.DocumentID,
		OwnerID:    parsed.Owner,
		TopK:       parsed.TopK,
	})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(ans.Text)
	if len(ans.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, src := range ans.Sources {
			fmt.Printf("  %s (chunk %d, score %.2f)\n", src.DocumentID, src.Index, src.Score)
		}
	}
	return nil
}

// Package cmd provides CLI commands for devdocs.
//
// Commands:
//   - worker: queue consumer that processes uploaded documents
//   - upload: store a document and trigger processing
//   - ask: question answering over indexed documentation
//   - list / status / delete: document management
//   - migrate: apply database migrations and exit
//
// Long-running commands handle SIGINT/SIGTERM via context
// cancellation.
package cmd

import (
	"fmt"
	"os"
)

// Execute is the main entry point for the devdocs CLI application.
func Execute() error {
	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "worker":
		return runWorker()
	case "upload":
		return runUpload()
	case "ask":
		return runAsk()
	case "list":
		return runList()
	case "status":
		return runStatus()
	case "delete":
		return runDelete()
	case "migrate":
		return runMigrate()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("devdocs - Documentation ingestion and question answering")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  devdocs worker                  Run the document processing worker")
	fmt.Println("  devdocs upload <file> [flags]   Upload a document (.yaml/.json/.md/.pdf)")
	fmt.Println("  devdocs ask <question> [flags]  Ask a question over indexed documents")
	fmt.Println("  devdocs list [flags]            List documents")
	fmt.Println("  devdocs status <document-id>    Show processing status of a document")
	fmt.Println("  devdocs delete <document-id>    Delete a document and its chunks")
	fmt.Println("  devdocs migrate                 Apply database migrations and exit")
	fmt.Println("  devdocs --version               Show version information")
	fmt.Println("  devdocs --help                  Show this help")
	fmt.Println()
	fmt.Println("Upload flags:")
	fmt.Println("  -version string    Document version label")
	fmt.Println("  -owner string      Owner identifier (default: local)")
	fmt.Println("  -sync              Process synchronously instead of enqueueing")
	fmt.Println()
	fmt.Println("Ask flags:")
	fmt.Println("  -doc string        Restrict to one document ID")
	fmt.Println("  -owner string      Restrict to one owner's documents")
	fmt.Println("  -top-k int         Max chunks to retrieve (default from config)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required: Gemini API key")
	fmt.Println("  DATABASE_URL       Optional: overrides DEVDOCS_POSTGRES_* settings")
	fmt.Println("  REDIS_URL          Optional: Redis queue URL")
}

// Command ragcli is an interactive prompt loop over the retrieval engine:
// load text documents, then query them repeatedly and print the ranked
// results with a preview of the best match.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/simplerag/simplerag/internal/corpus"
	"github.com/simplerag/simplerag/internal/engine"
	pkgerrors "github.com/simplerag/simplerag/pkg/errors"
	"github.com/simplerag/simplerag/pkg/logger"
)

const previewChars = 500

func main() {
	dir := flag.String("dir", "", "load every .txt file from this directory")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logger.Setup(*logLevel, "text")

	stdin := bufio.NewScanner(os.Stdin)

	var docs []corpus.Document
	switch {
	case *dir != "":
		loaded, err := corpus.LoadDir(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		docs = loaded
	case flag.NArg() > 0:
		docs = corpus.LoadFiles(flag.Args())
	default:
		docs = promptForDocuments(stdin)
	}

	eng := engine.New()
	if err := eng.LoadCorpus(docs); err != nil {
		if errors.Is(err, pkgerrors.ErrEmptyCorpus) {
			fmt.Fprintln(os.Stderr, "no usable documents loaded")
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
	docCount, vocabSize := eng.Stats()
	fmt.Printf("Loaded %d document(s), vocabulary of %d term(s).\n\n", docCount, vocabSize)

	queryLoop(stdin, eng)
}

// promptForDocuments mirrors the upload dialog: one path per line, 'done' to
// finish, with at least one readable document required.
func promptForDocuments(stdin *bufio.Scanner) []corpus.Document {
	fmt.Println("Enter document file paths (one per line). Type 'done' when finished.")
	var paths []string
	for {
		fmt.Print("Document path (or 'done'): ")
		if !stdin.Scan() {
			break
		}
		line := strings.TrimSpace(stdin.Text())
		if strings.EqualFold(line, "done") {
			if len(paths) == 0 {
				fmt.Println("No documents yet. Please add at least one.")
				continue
			}
			break
		}
		if line == "" {
			continue
		}
		if _, err := os.Stat(line); err != nil {
			fmt.Printf("File not found: %s\n", line)
			continue
		}
		paths = append(paths, line)
		fmt.Printf("Queued: %s\n", line)
	}
	return corpus.LoadFiles(paths)
}

func queryLoop(stdin *bufio.Scanner, eng *engine.Engine) {
	ctx := context.Background()
	for {
		fmt.Print("Your query: ")
		if !stdin.Scan() {
			return
		}
		query := strings.TrimSpace(stdin.Text())

		result, err := eng.Search(ctx, query)
		switch {
		case errors.Is(err, pkgerrors.ErrEmptyQuery):
			fmt.Println("Query cannot be empty.")
		case err != nil:
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		default:
			printResults(result)
			maybePreview(stdin, eng, result)
		}

		fmt.Print("\nAnother query? (y/n): ")
		if !stdin.Scan() || !strings.EqualFold(strings.TrimSpace(stdin.Text()), "y") {
			return
		}
		fmt.Println()
	}
}

func printResults(result *engine.SearchResult) {
	fmt.Printf("\nMost relevant: %s (score %.4f)\n\n", result.Best.Name, result.Best.Score)
	fmt.Println("All documents ranked by relevance:")
	for rank, doc := range result.Results {
		fmt.Printf("%3d. %-40s %.4f\n", rank+1, doc.Name, doc.Score)
	}
}

func maybePreview(stdin *bufio.Scanner, eng *engine.Engine, result *engine.SearchResult) {
	fmt.Print("\nPreview the most relevant document? (y/n): ")
	if !stdin.Scan() || !strings.EqualFold(strings.TrimSpace(stdin.Text()), "y") {
		return
	}
	preview, err := eng.Preview(result.Best.DocID, previewChars)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Printf("\n--- %s ---\n%s\n", result.Best.Name, preview)
}

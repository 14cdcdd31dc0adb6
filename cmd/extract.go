package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/post"
)

type extractOptions struct {
	input   string
	output  string
	noStore bool
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extracts every URL in a file and writes the documents as JSON",
		Long: `Reads a newline-delimited list of post URLs, runs one extraction batch,
writes the resulting documents as an indented JSON array, and upserts them into
the configured store unless --no-store is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "reddit_urls.txt", "newline-delimited URL file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "reddit_output.json", "JSON output file")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "skip the configured store")
	return cmd
}

func runExtract(cmd *cobra.Command, opts *extractOptions) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()

	urls, err := readURLFile(opts.input)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		logger.Warn("no urls found, nothing to extract", zap.String("input", opts.input))
		return nil
	}

	runID, err := appInstance.IDs().NewID()
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("extract starting", zap.Int("urls", len(urls)), zap.String("input", opts.input))

	docs, err := appInstance.Extractor().Run(cmd.Context(), urls)
	if err != nil {
		return fmt.Errorf("extract posts: %w", err)
	}

	if err := writeDocumentsFile(opts.output, docs); err != nil {
		return err
	}
	logger.Info("wrote documents", zap.String("output", opts.output), zap.Int("documents", len(docs)))

	st := appInstance.Store()
	if st == nil || opts.noStore {
		return nil
	}
	res, err := st.Upsert(cmd.Context(), docs)
	if err != nil {
		return fmt.Errorf("store documents: %w", err)
	}
	logger.Info("stored documents",
		zap.String("driver", st.Driver()),
		zap.Int("matched", res.Matched),
		zap.Int("modified", res.Modified),
		zap.Int("upserted", res.Upserted),
	)
	return nil
}

func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()
	return readURLs(f)
}

// readURLs returns the trimmed non-blank lines of r.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}

func writeDocumentsFile(path string, docs []post.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := writeDocuments(f, docs); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func writeDocuments(w io.Writer, docs []post.Document) error {
	if docs == nil {
		docs = []post.Document{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	return nil
}

package main

// Compare local files against the configured model without the API:
//   go run ./cmd/prompttest -files policy.pdf,handbook.docx [-dry-run] [-out raw.txt]

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smartdoc-backend/internal/bootstrap"
	"smartdoc-backend/internal/comparison"
	"smartdoc-backend/internal/extract"
	"smartdoc-backend/internal/shared/config"
)

func main() {
	cfg := config.MustLoad()

	files := flag.String("files", "", "Comma-separated paths of the documents to compare (pdf, docx or text)")
	outPath := flag.String("out", "", "Path to write the raw model output (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (gemini or openai)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	dryRun := flag.Bool("dry-run", false, "Print the prompt and exit")
	flag.Parse()

	ctx := context.Background()
	docs, err := loadDocuments(ctx, splitPaths(*files))
	if err != nil {
		exitErr(err.Error())
	}

	prompt, err := comparison.BuildComparisonPrompt(docs, comparison.MinDocuments)
	if err != nil {
		exitErr(err.Error())
	}
	if *dryRun {
		fmt.Println(prompt)
		return
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(*provider))
	cfg.LLMModel = *model
	client, err := bootstrap.BuildModel(cfg)
	if err != nil {
		exitErr(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ModelTimeout)
	defer cancel()
	raw, err := client.Generate(ctx, prompt)
	if err != nil {
		exitErr(fmt.Sprintf("model call: %v", err))
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(raw), 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	result, err := comparison.ParseResponse(raw)
	if err != nil {
		exitErr(fmt.Sprintf("parse model output: %v", err))
	}
	pretty, err := prettyJSON(result)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func splitPaths(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadDocuments(ctx context.Context, paths []string) ([]comparison.NamedText, error) {
	if len(paths) < comparison.MinDocuments {
		return nil, fmt.Errorf("at least %d files are required", comparison.MinDocuments)
	}
	docs := make([]comparison.NamedText, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		name := filepath.Base(path)
		text, err := extract.FromBytes(ctx, data, extract.NormalizeMimeType("", name, data), name)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		docs = append(docs, comparison.NamedText{Name: name, Text: text})
	}
	return docs, nil
}

func prettyJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

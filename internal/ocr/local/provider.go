package local

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"documind-backend/internal/ocr"
	"documind-backend/internal/shared/storage/blob"
)

// Provider extracts text on the local machine for dev and tests: PDFs via a
// pure-Go parser, everything else treated as plain text. Reported confidence
// is fixed at 100 since no recognition step is involved.
type Provider struct {
	store blob.Store
}

// NewProvider constructs a provider reading documents from the blob store.
func NewProvider(store blob.Store) *Provider {
	return &Provider{store: store}
}

// DetectText reads the stored object and extracts its text.
func (p *Provider) DetectText(ctx context.Context, storageKey string) (ocr.Result, error) {
	body, err := p.store.Open(ctx, storageKey)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("local ocr key=%s: %w", storageKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("local ocr key=%s: read: %w", storageKey, err)
	}
	return DetectTextFromBytes(ctx, raw, storageKey)
}

// DetectTextFromBytes extracts text from an in-memory payload. The key (or
// filename) only matters for its extension.
func DetectTextFromBytes(ctx context.Context, data []byte, name string) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		text, err = extractPDF(data)
	default:
		text = string(data)
	}
	if err != nil {
		return ocr.Result{}, fmt.Errorf("local ocr name=%s: %w", name, err)
	}

	text = strings.TrimSpace(text)
	lineCount := 0
	if text != "" {
		lineCount = len(strings.Split(text, "\n"))
	}
	return ocr.Result{
		Text:       text,
		LineCount:  lineCount,
		WordCount:  ocr.CountWords(text),
		Confidence: 100,
	}, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var _ ocr.Provider = (*Provider)(nil)

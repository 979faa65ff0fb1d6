package textract

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"documind-backend/internal/ocr"
)

// Provider implements text detection and document analysis against Amazon
// Textract, reading documents directly from the S3 bucket.
type Provider struct {
	client *textract.Client
	bucket string
}

// NewProvider constructs a Textract-backed provider for the given bucket.
func NewProvider(ctx context.Context, bucket, region string) (*Provider, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("textract provider: bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if strings.TrimSpace(region) != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("textract provider: load aws config: %w", err)
	}
	return &Provider{client: textract.NewFromConfig(cfg), bucket: bucket}, nil
}

// NewProviderWithClient wires an existing client, used by tests and bootstrap.
func NewProviderWithClient(client *textract.Client, bucket string) *Provider {
	return &Provider{client: client, bucket: bucket}
}

func (p *Provider) s3Object(key string) *types.S3Object {
	return &types.S3Object{
		Bucket: aws.String(p.bucket),
		Name:   aws.String(key),
	}
}

// DetectText runs synchronous text detection on the stored object.
func (p *Provider) DetectText(ctx context.Context, storageKey string) (ocr.Result, error) {
	out, err := p.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{S3Object: p.s3Object(storageKey)},
	})
	if err != nil {
		return ocr.Result{}, fmt.Errorf("detect document text key=%s: %w", storageKey, err)
	}
	return resultFromBlocks(out.Blocks), nil
}

// AnalyzeDocument runs forms analysis and returns text plus key/value pairs.
func (p *Provider) AnalyzeDocument(ctx context.Context, storageKey string) (ocr.Analysis, error) {
	out, err := p.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     &types.Document{S3Object: p.s3Object(storageKey)},
		FeatureTypes: []types.FeatureType{types.FeatureTypeForms},
	})
	if err != nil {
		return ocr.Analysis{}, fmt.Errorf("analyze document key=%s: %w", storageKey, err)
	}
	return ocr.Analysis{
		Result: resultFromBlocks(out.Blocks),
		Forms:  formsFromBlocks(out.Blocks),
	}, nil
}

// StartTextDetection begins an asynchronous detection job.
func (p *Provider) StartTextDetection(ctx context.Context, storageKey string) (string, error) {
	out, err := p.client.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{S3Object: p.s3Object(storageKey)},
	})
	if err != nil {
		return "", fmt.Errorf("start text detection key=%s: %w", storageKey, err)
	}
	return aws.ToString(out.JobId), nil
}

// GetTextDetection polls an asynchronous job, following NextToken pagination
// once the job has succeeded.
func (p *Provider) GetTextDetection(ctx context.Context, jobID string) (ocr.JobResult, error) {
	first, err := p.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
		JobId: aws.String(jobID),
	})
	if err != nil {
		return ocr.JobResult{}, fmt.Errorf("get text detection job=%s: %w", jobID, err)
	}

	switch first.JobStatus {
	case types.JobStatusInProgress:
		return ocr.JobResult{Status: ocr.JobInProgress}, ocr.ErrJobNotReady
	case types.JobStatusFailed, types.JobStatusPartialSuccess:
		return ocr.JobResult{Status: ocr.JobFailed}, fmt.Errorf("text detection job=%s failed: %s", jobID, aws.ToString(first.StatusMessage))
	}

	blocks := first.Blocks
	token := first.NextToken
	for token != nil {
		page, err := p.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId:     aws.String(jobID),
			NextToken: token,
		})
		if err != nil {
			return ocr.JobResult{}, fmt.Errorf("get text detection job=%s page: %w", jobID, err)
		}
		blocks = append(blocks, page.Blocks...)
		token = page.NextToken
	}

	return ocr.JobResult{Status: ocr.JobSucceeded, Result: resultFromBlocks(blocks)}, nil
}

func resultFromBlocks(blocks []types.Block) ocr.Result {
	var (
		lines      []string
		confidence float64
		wordCount  int
	)
	for _, b := range blocks {
		switch b.BlockType {
		case types.BlockTypeLine:
			lines = append(lines, aws.ToString(b.Text))
			if b.Confidence != nil {
				confidence += float64(*b.Confidence)
			}
		case types.BlockTypeWord:
			wordCount++
		}
	}
	avg := 0.0
	if len(lines) > 0 {
		avg = confidence / float64(len(lines))
	}
	return ocr.Result{
		Text:       strings.Join(lines, "\n"),
		LineCount:  len(lines),
		WordCount:  wordCount,
		Confidence: avg,
	}
}

// formsFromBlocks walks the KEY_VALUE_SET block graph: each KEY block links
// to its VALUE block, and both resolve their text through CHILD words.
func formsFromBlocks(blocks []types.Block) []ocr.KeyValue {
	byID := make(map[string]types.Block, len(blocks))
	for _, b := range blocks {
		byID[aws.ToString(b.Id)] = b
	}

	var forms []ocr.KeyValue
	for _, b := range blocks {
		if b.BlockType != types.BlockTypeKeyValueSet || !hasEntityType(b, types.EntityTypeKey) {
			continue
		}
		kv := ocr.KeyValue{Key: childText(b, byID)}
		if b.Confidence != nil {
			kv.Confidence = float64(*b.Confidence)
		}
		if valueBlock, ok := linkedValue(b, byID); ok {
			kv.Value = childText(valueBlock, byID)
		}
		if kv.Key != "" {
			forms = append(forms, kv)
		}
	}
	return forms
}

func hasEntityType(b types.Block, want types.EntityType) bool {
	for _, et := range b.EntityTypes {
		if et == want {
			return true
		}
	}
	return false
}

func linkedValue(b types.Block, byID map[string]types.Block) (types.Block, bool) {
	for _, rel := range b.Relationships {
		if rel.Type != types.RelationshipTypeValue {
			continue
		}
		for _, id := range rel.Ids {
			if vb, ok := byID[id]; ok {
				return vb, true
			}
		}
	}
	return types.Block{}, false
}

func childText(b types.Block, byID map[string]types.Block) string {
	var words []string
	for _, rel := range b.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			child, ok := byID[id]
			if !ok || child.BlockType != types.BlockTypeWord {
				continue
			}
			words = append(words, aws.ToString(child.Text))
		}
	}
	return strings.Join(words, " ")
}

var (
	_ ocr.Provider      = (*Provider)(nil)
	_ ocr.FormsAnalyzer = (*Provider)(nil)
	_ ocr.AsyncDetector = (*Provider)(nil)
)

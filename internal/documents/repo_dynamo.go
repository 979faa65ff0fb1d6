package documents

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// userIndexName is the GSI supporting per-user listing, newest first.
const userIndexName = "userId-createdAt-index"

// DynamoRepo implements Repo on a single DynamoDB table keyed by documentId.
//
// OCR confidence is persisted as a string attribute and parsed back on read,
// matching the existing item format.
type DynamoRepo struct {
	Client *dynamodb.Client
	Table  string
}

// NewDynamoRepo constructs a DynamoDB-backed repo.
func NewDynamoRepo(ctx context.Context, region, table string) (*DynamoRepo, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb table is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &DynamoRepo{
		Client: dynamodb.NewFromConfig(cfg),
		Table:  table,
	}, nil
}

type dynamoQueryEntry struct {
	Question  string `dynamodbav:"question"`
	Answer    string `dynamodbav:"answer"`
	Timestamp string `dynamodbav:"timestamp"`
}

type dynamoItem struct {
	DocumentID    string             `dynamodbav:"documentId"`
	UserID        string             `dynamodbav:"userId"`
	Filename      string             `dynamodbav:"filename"`
	S3Key         string             `dynamodbav:"s3Key"`
	ContentType   string             `dynamodbav:"contentType"`
	FileSize      int64              `dynamodbav:"fileSize"`
	Status        string             `dynamodbav:"status"`
	ErrorMessage  string             `dynamodbav:"errorMessage,omitempty"`
	ExtractedText string             `dynamodbav:"extractedText,omitempty"`
	WordCount     int                `dynamodbav:"wordCount,omitempty"`
	TextLength    int                `dynamodbav:"textLength,omitempty"`
	OCRConfidence string             `dynamodbav:"ocrConfidence,omitempty"`
	Summary       string             `dynamodbav:"summary,omitempty"`
	QueryHistory  []dynamoQueryEntry `dynamodbav:"queryHistory,omitempty"`
	CreatedAt     string             `dynamodbav:"createdAt"`
	UpdatedAt     string             `dynamodbav:"updatedAt"`
}

// Create writes the record, overwriting any existing item with the same ID.
func (r *DynamoRepo) Create(ctx context.Context, doc Document) error {
	item, err := attributevalue.MarshalMap(toDynamoItem(doc))
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	_, err = r.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.Table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put document %s: %w", doc.ID, err)
	}
	return nil
}

// GetByID returns a record by document ID.
func (r *DynamoRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	out, err := r.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.Table),
		Key:       dynamoKey(documentID),
	})
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", documentID, err)
	}
	if len(out.Item) == 0 {
		return Document{}, ErrNotFound
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Document{}, fmt.Errorf("unmarshal document %s: %w", documentID, err)
	}
	return fromDynamoItem(item), nil
}

// ListByUser queries the user GSI, newest first.
func (r *DynamoRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Document, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.Table),
		IndexName:              aws.String(userIndexName),
		KeyConditionExpression: aws.String("userId = :userId"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":userId": &ddbtypes.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	out, err := r.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query documents for user %s: %w", userID, err)
	}

	docs := make([]Document, 0, len(out.Items))
	for _, raw := range out.Items {
		var item dynamoItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal document list item: %w", err)
		}
		docs = append(docs, fromDynamoItem(item))
	}
	return docs, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (r *DynamoRepo) Delete(ctx context.Context, documentID string) error {
	_, err := r.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.Table),
		Key:       dynamoKey(documentID),
	})
	if err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

// SetStatus updates the lifecycle status.
func (r *DynamoRepo) SetStatus(ctx context.Context, documentID string, status Status) error {
	return r.updateItem(ctx, documentID,
		"SET #status = :status, updatedAt = :updatedAt",
		map[string]ddbtypes.AttributeValue{
			":status": &ddbtypes.AttributeValueMemberS{Value: string(status)},
		},
	)
}

// MarkFailed moves the record to FAILED retaining the error message.
func (r *DynamoRepo) MarkFailed(ctx context.Context, documentID string, errorMessage string) error {
	return r.updateItem(ctx, documentID,
		"SET #status = :status, errorMessage = :errorMessage, updatedAt = :updatedAt",
		map[string]ddbtypes.AttributeValue{
			":status":       &ddbtypes.AttributeValueMemberS{Value: string(StatusFailed)},
			":errorMessage": &ddbtypes.AttributeValueMemberS{Value: errorMessage},
		},
	)
}

// StoreExtraction persists OCR results and moves the record to EXTRACTED.
func (r *DynamoRepo) StoreExtraction(ctx context.Context, documentID string, ext Extraction) error {
	return r.updateItem(ctx, documentID,
		"SET #status = :status, extractedText = :text, wordCount = :wordCount, ocrConfidence = :confidence, textLength = :textLength, updatedAt = :updatedAt REMOVE errorMessage",
		map[string]ddbtypes.AttributeValue{
			":status":     &ddbtypes.AttributeValueMemberS{Value: string(StatusExtracted)},
			":text":       &ddbtypes.AttributeValueMemberS{Value: ext.Text},
			":wordCount":  &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(ext.WordCount)},
			":confidence": &ddbtypes.AttributeValueMemberS{Value: formatConfidence(ext.Confidence)},
			":textLength": &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(ext.TextLength)},
		},
	)
}

// StoreSummary persists the summary and moves the record to COMPLETED.
func (r *DynamoRepo) StoreSummary(ctx context.Context, documentID string, summary string) error {
	return r.updateItem(ctx, documentID,
		"SET #status = :status, summary = :summary, updatedAt = :updatedAt",
		map[string]ddbtypes.AttributeValue{
			":status":  &ddbtypes.AttributeValueMemberS{Value: string(StatusCompleted)},
			":summary": &ddbtypes.AttributeValueMemberS{Value: summary},
		},
	)
}

// AppendQuery appends a question/answer pair to the history atomically.
// There is deliberately no overwrite fallback: an append failure surfaces as
// an error rather than replacing existing history.
func (r *DynamoRepo) AppendQuery(ctx context.Context, documentID string, entry QueryEntry) error {
	entryAV, err := attributevalue.Marshal([]dynamoQueryEntry{{
		Question:  entry.Question,
		Answer:    entry.Answer,
		Timestamp: entry.Timestamp.UTC().Format(time.RFC3339Nano),
	}})
	if err != nil {
		return fmt.Errorf("marshal query entry: %w", err)
	}

	_, err = r.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.Table),
		Key:                 dynamoKey(documentID),
		UpdateExpression:    aws.String("SET queryHistory = list_append(if_not_exists(queryHistory, :empty), :entry), updatedAt = :updatedAt"),
		ConditionExpression: aws.String("attribute_exists(documentId)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":entry":     entryAV,
			":empty":     &ddbtypes.AttributeValueMemberL{Value: []ddbtypes.AttributeValue{}},
			":updatedAt": &ddbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("append query to document %s: %w", documentID, err)
	}
	return nil
}

func (r *DynamoRepo) updateItem(ctx context.Context, documentID, expression string, values map[string]ddbtypes.AttributeValue) error {
	values[":updatedAt"] = &ddbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)}

	_, err := r.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.Table),
		Key:                       dynamoKey(documentID),
		UpdateExpression:          aws.String(expression),
		ConditionExpression:       aws.String("attribute_exists(documentId)"),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update document %s: %w", documentID, err)
	}
	return nil
}

func dynamoKey(documentID string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"documentId": &ddbtypes.AttributeValueMemberS{Value: documentID},
	}
}

func isConditionFailed(err error) bool {
	var condErr *ddbtypes.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

func formatConfidence(confidence float64) string {
	return strconv.FormatFloat(confidence, 'f', -1, 64)
}

func toDynamoItem(doc Document) dynamoItem {
	item := dynamoItem{
		DocumentID:    doc.ID,
		UserID:        doc.UserID,
		Filename:      doc.Filename,
		S3Key:         doc.StorageKey,
		ContentType:   doc.ContentType,
		FileSize:      doc.SizeBytes,
		Status:        string(doc.Status),
		ErrorMessage:  doc.ErrorMessage,
		ExtractedText: doc.ExtractedText,
		WordCount:     doc.WordCount,
		TextLength:    doc.TextLength,
		Summary:       doc.Summary,
		CreatedAt:     doc.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     doc.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if doc.OCRConfidence != 0 {
		item.OCRConfidence = formatConfidence(doc.OCRConfidence)
	}
	for _, entry := range doc.QueryHistory {
		item.QueryHistory = append(item.QueryHistory, dynamoQueryEntry{
			Question:  entry.Question,
			Answer:    entry.Answer,
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	return item
}

func fromDynamoItem(item dynamoItem) Document {
	doc := Document{
		ID:            item.DocumentID,
		UserID:        item.UserID,
		Filename:      item.Filename,
		StorageKey:    item.S3Key,
		ContentType:   item.ContentType,
		SizeBytes:     item.FileSize,
		Status:        Status(item.Status),
		ErrorMessage:  item.ErrorMessage,
		ExtractedText: item.ExtractedText,
		WordCount:     item.WordCount,
		TextLength:    item.TextLength,
		Summary:       item.Summary,
	}
	if item.OCRConfidence != "" {
		if parsed, err := strconv.ParseFloat(item.OCRConfidence, 64); err == nil {
			doc.OCRConfidence = parsed
		}
	}
	doc.CreatedAt = parseTimestamp(item.CreatedAt)
	doc.UpdatedAt = parseTimestamp(item.UpdatedAt)
	for _, entry := range item.QueryHistory {
		doc.QueryHistory = append(doc.QueryHistory, QueryEntry{
			Question:  entry.Question,
			Answer:    entry.Answer,
			Timestamp: parseTimestamp(entry.Timestamp),
		})
	}
	return doc
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed
	}
	return time.Time{}
}

var _ Repo = (*DynamoRepo)(nil)

package documents

import "time"

// QueryEntryResponse is the outward-facing shape of a history entry.
type QueryEntryResponse struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentResponse is the outward-facing representation of a record.
// Large fields (extracted text, query history) are opt-in so list views stay
// small regardless of what the underlying record holds.
type DocumentResponse struct {
	DocumentID    string               `json:"documentId"`
	UserID        string               `json:"userId"`
	Filename      string               `json:"filename"`
	S3Key         string               `json:"s3Key,omitempty"`
	ContentType   string               `json:"contentType"`
	FileSize      int64                `json:"fileSize"`
	Status        Status               `json:"status"`
	ErrorMessage  string               `json:"errorMessage,omitempty"`
	WordCount     int                  `json:"wordCount,omitempty"`
	TextLength    int                  `json:"textLength,omitempty"`
	OCRConfidence float64              `json:"ocrConfidence,omitempty"`
	Summary       string               `json:"summary,omitempty"`
	ExtractedText string               `json:"extractedText,omitempty"`
	QueryHistory  []QueryEntryResponse `json:"queryHistory,omitempty"`
	DownloadURL   string               `json:"downloadUrl,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func toResponse(doc Document, includeText, includeHistory bool) DocumentResponse {
	resp := DocumentResponse{
		DocumentID:    doc.ID,
		UserID:        doc.UserID,
		Filename:      doc.Filename,
		S3Key:         doc.StorageKey,
		ContentType:   doc.ContentType,
		FileSize:      doc.SizeBytes,
		Status:        doc.Status,
		ErrorMessage:  doc.ErrorMessage,
		WordCount:     doc.WordCount,
		TextLength:    doc.TextLength,
		OCRConfidence: doc.OCRConfidence,
		Summary:       doc.Summary,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if includeText {
		resp.ExtractedText = doc.ExtractedText
	}
	if includeHistory {
		for _, entry := range doc.QueryHistory {
			resp.QueryHistory = append(resp.QueryHistory, QueryEntryResponse(entry))
		}
	}
	return resp
}

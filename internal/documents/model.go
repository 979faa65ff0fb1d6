package documents

import "time"

// Status is the lifecycle state of a document record.
type Status string

const (
	StatusUploaded   Status = "UPLOADED"
	StatusProcessing Status = "PROCESSING"
	StatusExtracted  Status = "EXTRACTED"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// AnonymousUser is the wildcard identity: an anonymous caller may access any
// record and anonymously-owned records are readable by any caller.
const AnonymousUser = "anonymous"

// MaxStoredTextChars caps the extracted text persisted on a record. Longer
// documents keep only the leading content; TextLength retains the full size.
const MaxStoredTextChars = 50000

// QueryEntry is one question/answer pair in a document's append-only history.
type QueryEntry struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Document represents an uploaded document record and its derived artifacts.
type Document struct {
	ID            string
	UserID        string
	Filename      string
	StorageKey    string
	ContentType   string
	SizeBytes     int64
	Status        Status
	ErrorMessage  string
	ExtractedText string
	WordCount     int
	TextLength    int
	OCRConfidence float64
	Summary       string
	QueryHistory  []QueryEntry
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanAccess reports whether userID may act on the document.
func CanAccess(doc Document, userID string) bool {
	if doc.UserID == userID {
		return true
	}
	return userID == AnonymousUser || doc.UserID == AnonymousUser
}

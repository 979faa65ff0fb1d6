package documents

import (
	"fmt"
	"strings"
	"time"
)

// StorageKeyPrefix roots every uploaded object key.
const StorageKeyPrefix = "documents"

// storageKeySegments is the exact segment count of the key layout:
// documents/{userId}/{yyyy}/{mm}/{dd}/{documentId}/{filename}.
const storageKeySegments = 7

// BuildStorageKey returns the blob key for an upload. The layout is a wire
// contract: extraction derives document IDs from these positions.
func BuildStorageKey(userID string, when time.Time, documentID, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		StorageKeyPrefix, userID, when.UTC().Format("2006/01/02"), documentID, filename)
}

// ParseStorageKey derives the document ID and filename from a storage key.
// Keys that do not match the fixed layout are rejected.
func ParseStorageKey(key string) (documentID, filename string, err error) {
	parts := strings.Split(key, "/")
	if len(parts) != storageKeySegments || parts[0] != StorageKeyPrefix {
		return "", "", fmt.Errorf("storage key does not match expected layout: %s", key)
	}
	documentID = parts[5]
	filename = parts[6]
	if documentID == "" || filename == "" {
		return "", "", fmt.Errorf("storage key has empty segments: %s", key)
	}
	return documentID, filename, nil
}

package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// PhotoKind distinguishes evidence attachments.
type PhotoKind string

const (
	PhotoBefore     PhotoKind = "before"
	PhotoAfter      PhotoKind = "after"
	PhotoEvaluation PhotoKind = "evaluation"
)

// AllowedPhotoExtensions lists the accepted upload extensions.
var AllowedPhotoExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// PhotoExtension returns the lower-case extension of an allowed filename.
func PhotoExtension(filename string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !AllowedPhotoExtensions[ext] {
		return "", false
	}
	return ext, true
}

// Photo is an evidence attachment owned by an occurrence.
type Photo struct {
	ID               int64     `json:"id"`
	OccurrenceID     int64     `json:"occurrence_id"`
	Kind             PhotoKind `json:"kind"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	UploadedAt       time.Time `json:"uploaded_at"`
	URL              string    `json:"url"`
}

// PhotoUpload is a file received from a client, before it is stored.
type PhotoUpload struct {
	Filename string
	Content  []byte
}

// UploadsPathPrefix is the public URL prefix photos are served under.
const UploadsPathPrefix = "/api/uploads/"

// PhotoURL returns the public URL of a stored photo.
func PhotoURL(filename string) string {
	return UploadsPathPrefix + filename
}

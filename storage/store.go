package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen matches the amount of data mimetype inspects by default.
const sniffLen = 3072

const maxNameLen = 100

var (
	ImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

	DocumentTypes = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		// legacy Office files that are not recognised more precisely
		"application/x-ole-storage",
	}
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// UploadError is a rejected or failed upload. It is always a client error.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// File is one uploaded multipart part. Err carries a transport failure
// (missing part, body too large) so validation reports it in order.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
	Err    error
}

type Store struct {
	disk     Disk
	baseURL  string
	maxBytes int64
}

func NewStore(disk Disk, baseURL string, maxBytes int64) *Store {
	return &Store{
		disk:     disk,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}
}

func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates the upload against the allowed MIME types and writes it as
// "<ownerID>/<name>-<token>.<ext>". The returned key is relative to the store root.
func (s *Store) Save(ctx context.Context, file File, ownerID uint, allowed []string) (string, error) {
	if file.Err != nil {
		return "", &UploadError{Reason: "Upload failed", Err: file.Err}
	}
	if file.Size <= 0 || file.Reader == nil {
		return "", &UploadError{Reason: "Empty upload"}
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return "", &UploadError{Reason: "File too large"}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file.Reader, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", &UploadError{Reason: "Upload failed", Err: err}
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !allowedType(mtype, allowed) {
		return "", &UploadError{Reason: "Invalid mime type"}
	}

	key := strconv.FormatUint(uint64(ownerID), 10) + "/" + fileName(file.Name, extension(mtype))
	body := io.MultiReader(bytes.NewReader(head), file.Reader)

	if err := s.disk.Put(ctx, key, body, file.Size, mtype.String()); err != nil {
		if errors.Is(err, errCreateDir) {
			return "", &UploadError{Reason: "Cannot create upload directory", Err: err}
		}
		return "", &UploadError{Reason: "Failed to move upload", Err: err}
	}
	return key, nil
}

// URL returns the public URL of a stored key. Empty keys map to "".
func (s *Store) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// URLPtr is URL for nullable columns.
func (s *Store) URLPtr(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	u := s.URL(*key)
	return &u
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.disk.Delete(ctx, key)
}

// DeleteOwner removes every upload of one project or product.
func (s *Store) DeleteOwner(ctx context.Context, ownerID uint) error {
	if ownerID == 0 {
		return fmt.Errorf("storage: refusing to delete owner 0")
	}
	return s.disk.DeleteAll(ctx, strconv.FormatUint(uint64(ownerID), 10))
}

func allowedType(mtype *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mtype.Is(a) {
			return true
		}
	}
	return false
}

func extension(mtype *mimetype.MIME) string {
	switch {
	case mtype.Is("image/jpeg"):
		return "jpg"
	case mtype.Is("image/png"):
		return "png"
	case mtype.Is("image/webp"):
		return "webp"
	}
	return "bin"
}

func fileName(original, ext string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "_"), "_")
	if base == "" || base == "." {
		base = "file"
	}
	if len(base) > maxNameLen {
		base = base[:maxNameLen]
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return base + "-" + token + "." + ext
}

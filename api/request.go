package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/models"
	"github.com/prevozkop/backend/storage"
	"gorm.io/datatypes"
)

const (
	defaultLimit = 20
	maxLimit     = 100

	// multipart parts beyond this are spooled to disk
	multipartMemory = 8 << 20
)

// decodeJSON reads a JSON object into dst. An empty body decodes as {}; any
// other body must be sent as application/json.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errs.ErrInvalidJSON
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	} else if !isJSONContentType(r.Header.Get("Content-Type")) {
		return errs.ErrNotJSON
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errs.ErrInvalidJSON
	}
	return nil
}

func isJSONContentType(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	return err == nil && mediaType == "application/json"
}

type pagination struct {
	limit  int
	offset int
}

// parsePagination clamps limit to [1,100] and offset to >= 0. Unparsable
// values count as 0 before clamping.
func parsePagination(r *http.Request, defLimit int) pagination {
	q := r.URL.Query()
	limit := defLimit
	if raw := q.Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(strings.TrimSpace(raw))
	}
	offset, _ := strconv.Atoi(strings.TrimSpace(q.Get("offset")))
	return pagination{
		limit:  min(max(limit, 1), maxLimit),
		offset: max(offset, 0),
	}
}

// publishFilter resolves the status query for projects and products. Anonymous
// callers only ever see published rows; admins may ask for drafts or "all".
func publishFilter(r *http.Request) (*models.PublishStatus, error) {
	published := models.StatusPublished
	if !ctxIsAdmin(r.Context()) {
		return &published, nil
	}

	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	switch strings.ToLower(raw) {
	case "":
		return &published, nil
	case "all":
		return nil, nil
	}
	status, err := models.ParsePublishStatus(raw)
	if err != nil {
		return nil, errs.ErrBadStatus
	}
	return &status, nil
}

// idParam reads a numeric route parameter. Routes only match [0-9]+, so this
// fails only on overflow.
func idParam(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NotFound
	}
	return uint(id), nil
}

// readUpload extracts the "file" part of a multipart request. Transport
// problems are carried inside the File so the store reports them in order.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (storage.File, func()) {
	noop := func() {}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return storage.File{Err: err}, noop
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return storage.File{Err: err}, cleanup
	}
	return storage.File{Name: header.Filename, Size: header.Size, Reader: f}, func() {
		f.Close()
		cleanup()
	}
}

var publishedAtLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parsePublishedAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errs.NewBadRequestError("Invalid published_at")
}

// jsonColumn validates a raw JSON value for a JSON column. null and empty
// containers clear the column.
func jsonColumn(raw json.RawMessage, allowObject bool, message string) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, errs.NewBadRequestError(message)
	}
	switch val := v.(type) {
	case []any:
		if len(val) == 0 {
			return nil, nil
		}
	case map[string]any:
		if !allowObject {
			return nil, errs.NewBadRequestError(message)
		}
		if len(val) == 0 {
			return nil, nil
		}
	default:
		return nil, errs.NewBadRequestError(message)
	}

	compact := new(bytes.Buffer)
	if err := json.Compact(compact, trimmed); err != nil {
		return nil, errs.NewBadRequestError(message)
	}
	return datatypes.JSON(compact.Bytes()), nil
}

// textField maps a nullable text input onto a patch field: absent stays
// absent, null or blank clears the column.
func textField(in models.Field[string]) models.Field[string] {
	if !in.Set {
		return in
	}
	v := strings.TrimSpace(in.Value)
	if in.Null || v == "" {
		return models.NewNull[string]()
	}
	return models.NewValue(v)
}

// optionalText is textField for inserts.
func optionalText(in models.Field[string]) *string {
	f := textField(in)
	if !f.Present() {
		return nil
	}
	return &f.Value
}

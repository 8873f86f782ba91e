package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prevozkop/backend/config"
	"github.com/prevozkop/backend/database"
	"github.com/prevozkop/backend/models"
	"github.com/prevozkop/backend/session"
	"github.com/prevozkop/backend/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@prevozkop.rs"
	adminPassword = "beton-M30-pumpa"
	allowedOrigin = "https://prevozkop.rs"
)

var (
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x01}, 64)...)
	pngBytes  = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, bytes.Repeat([]byte{0x02}, 64)...)
	pdfBytes  = []byte("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n1 0 obj\n<<>>\nendobj\n")
)

type fakeNotifier struct {
	mu     sync.Mutex
	result bool
	orders []models.Order
}

func (n *fakeNotifier) Notify(_ context.Context, order *models.Order) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, *order)
	return n.result
}

func (n *fakeNotifier) received() []models.Order {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Order(nil), n.orders...)
}

type testEnv struct {
	srv        *httptest.Server
	client     *http.Client
	db         database.Database
	notifier   *fakeNotifier
	projectDir string
	productDir string
}

func testConfig(env map[string]string) *config.Config {
	base := map[string]string{
		"API_PREFIX":              "/api",
		"CORS_ORIGINS":            allowedOrigin,
		"SESSION_COOKIE_SECURE":   "false",
		"SESSION_COOKIE_SAMESITE": "lax",
		"METRICS_ENABLED":         "true",
		"UPLOAD_BASE_URL":         "https://prevozkop.rs/uploads/projects",
		"PRODUCT_UPLOAD_BASE_URL": "https://prevozkop.rs/uploads/products",
		"UPLOAD_MAX_BYTES":        "1048576",
	}
	for k, v := range env {
		base[k] = v
	}
	cfg := config.FromMap(base)
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, nil)
}

func newTestEnvWith(t *testing.T, env map[string]string) *testEnv {
	t.Helper()
	cfg := testConfig(env)

	db, err := database.Open(config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))
	currentDB := database.New(db)
	t.Cleanup(func() { _ = currentDB.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, currentDB.AdminRepo().Add(context.Background(), &models.Admin{
		Email:        adminEmail,
		PasswordHash: string(hash),
	}))

	e := &testEnv{
		db:         currentDB,
		notifier:   &fakeNotifier{result: true},
		projectDir: t.TempDir(),
		productDir: t.TempDir(),
	}

	router := newRouter(cfg, Dependencies{
		Database: currentDB,
		Sessions: session.NewManager(session.NewMemoryStore(time.Hour), cfg.Session),
		Projects: storage.NewStore(storage.NewLocalDisk(e.projectDir), cfg.Uploads.BaseURL, cfg.Uploads.MaxBytes),
		Products: storage.NewStore(storage.NewLocalDisk(e.productDir), cfg.Uploads.ProductBaseURL, cfg.Uploads.MaxBytes),
		Notifier: e.notifier,
	})
	e.srv = httptest.NewServer(router)
	t.Cleanup(e.srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	e.client = &http.Client{Jar: jar}
	return e
}

// do sends body as JSON unless it is nil, a string or raw bytes.
func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) upload(t *testing.T, path, filename string, data []byte, fields map[string]string) *http.Response {
	t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// send issues a raw request with the given Content-Type and Origin, either of
// which may be empty.
func (e *testEnv) send(t *testing.T, method, path, contentType, origin string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decodeBody[ErrorResponse](t, resp).Error
}

// createProject creates a project as admin and returns its id.
func (e *testEnv) createProject(t *testing.T, body map[string]any) uint {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/admin/projects", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[projectFull](t, resp).ID
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/prevozkop/backend/database"
	"github.com/prevozkop/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anonymous fetches path without the admin cookie jar.
func (e *testEnv) anonymous(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPublishFlow(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	resp := e.do(t, http.MethodPost, "/api/admin/projects", map[string]string{"title": "Test"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[projectFull](t, resp)
	assert.Equal(t, "test", created.Slug)

	resp = e.upload(t, fmt.Sprintf("/api/admin/projects/%d/hero", created.ID), "hero.jpg", jpegBytes, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hero := decodeBody[heroResponse](t, resp).HeroImage
	assert.True(t, strings.HasPrefix(hero, "https://"))
	assert.True(t, strings.HasSuffix(hero, ".jpg"))

	resp = e.anonymous(t, "/api/projects/test")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/projects/%d", created.ID), map[string]string{"status": "published"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.anonymous(t, "/api/projects/test")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeBody[projectFull](t, resp)
	assert.Equal(t, "Test", p.Title)
	require.NotNil(t, p.HeroImage)
	assert.Equal(t, hero, *p.HeroImage)

	resp = e.anonymous(t, "/api/projects")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[listResponse[projectBrief]](t, resp)
	require.Len(t, list.Data, 1)
	require.NotNil(t, list.Data[0].HeroImage)
	assert.Equal(t, hero, *list.Data[0].HeroImage)
}

func TestRejectedCreateWritesNothing(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	resp := e.do(t, http.MethodPost, "/api/admin/projects", map[string]string{"title": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	rows, err := e.db.ProjectRepo().List(context.Background(), database.ProjectFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDerivedSlugsAreURLSafe(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	for _, title := range []string{"Most preko Dunava", "Šćepan Čaršija", "!!!", "Мост"} {
		resp := e.do(t, http.MethodPost, "/api/admin/projects", map[string]string{"title": title})
		require.Equal(t, http.StatusCreated, resp.StatusCode, title)
		assert.Regexp(t, `^[a-z0-9]+(-[a-z0-9]+)*$`, decodeBody[projectFull](t, resp).Slug, title)
	}
}

func TestAnonymousNeverSeesDrafts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.db.ProjectRepo().Add(ctx, &models.Project{Title: "D", Slug: "d", Status: models.StatusDraft}))
	require.NoError(t, e.db.ProductRepo().Add(ctx, &models.Product{Name: "D", Slug: "d", Category: "c", Status: models.StatusDraft}))

	for _, path := range []string{
		"/api/projects", "/api/projects?status=draft", "/api/projects?status=all",
		"/api/products", "/api/products?status=draft", "/api/products?status=all",
	} {
		resp := e.anonymous(t, path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		body := decodeBody[listResponse[map[string]any]](t, resp)
		assert.Empty(t, body.Data, path)
	}
}

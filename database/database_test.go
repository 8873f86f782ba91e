package database

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prevozkop/backend/config"
	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string { return &s }

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.Database{Driver: "oracle"})
	assert.Error(t, err)
}

func TestProjectListOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepo(openTestDB(t))

	older := time.Now().Add(-48 * time.Hour)
	newer := time.Now().Add(-1 * time.Hour)
	require.NoError(t, repo.Add(ctx, &models.Project{Title: "Old", Slug: "old", Status: models.StatusPublished, PublishedAt: &older}))
	require.NoError(t, repo.Add(ctx, &models.Project{Title: "New", Slug: "new", Status: models.StatusPublished, PublishedAt: &newer}))
	require.NoError(t, repo.Add(ctx, &models.Project{Title: "Draft", Slug: "draft", Status: models.StatusDraft}))

	published := models.StatusPublished
	list, err := repo.List(ctx, ProjectFilter{Status: &published, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Slug)
	assert.Equal(t, "old", list[1].Slug)

	all, err := repo.List(ctx, ProjectFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// never published, so ordered by created_at which is the newest
	assert.Equal(t, "draft", all[0].Slug)

	page, err := repo.List(ctx, ProjectFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "new", page[0].Slug)
}

func TestProjectSlugIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepo(openTestDB(t))

	require.NoError(t, repo.Add(ctx, &models.Project{Title: "A", Slug: "same", Status: models.StatusDraft}))
	err := repo.Add(ctx, &models.Project{Title: "B", Slug: "same", Status: models.StatusDraft})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestProjectUpdateTouchesOnlyPatchedColumns(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepo(openTestDB(t))

	p := &models.Project{Title: "Most", Slug: "most", Excerpt: strPtr("kratko"), Body: strPtr("telo"), Status: models.StatusDraft}
	require.NoError(t, repo.Add(ctx, p))

	err := repo.Update(ctx, p.ID, models.ProjectPatch{
		Status:  models.NewValue(models.StatusPublished),
		Excerpt: models.NewNull[string](),
		Tags:    models.NewValue(datatypes.JSON(`["beton","most"]`)),
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, got.Status)
	assert.Nil(t, got.Excerpt)
	require.NotNil(t, got.Body)
	assert.Equal(t, "telo", *got.Body)
	assert.JSONEq(t, `["beton","most"]`, string(got.Tags))
}

func TestProjectDeleteCascadesMedia(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	projects := NewProjectRepo(db)
	media := NewProjectMediaRepo(db)

	p := &models.Project{Title: "Hala", Slug: "hala", Status: models.StatusDraft}
	require.NoError(t, projects.Add(ctx, p))
	require.NoError(t, media.Add(ctx, &models.ProjectMedia{ProjectID: p.ID, FilePath: "1/a.jpg"}))

	require.NoError(t, projects.Delete(ctx, p.ID))
	require.NoError(t, projects.Delete(ctx, p.ID))

	_, err := projects.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	left, err := media.FindByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestProjectMediaOrderAndScopedDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectMediaRepo(openTestDB(t))

	first := &models.ProjectMedia{ProjectID: 1, FilePath: "1/b.jpg", SortOrder: 1}
	second := &models.ProjectMedia{ProjectID: 1, FilePath: "1/a.jpg", SortOrder: 0}
	third := &models.ProjectMedia{ProjectID: 1, FilePath: "1/c.jpg", SortOrder: 1}
	for _, m := range []*models.ProjectMedia{first, second, third} {
		require.NoError(t, repo.Add(ctx, m))
	}

	gallery, err := repo.FindByProject(ctx, 1)
	require.NoError(t, err)
	require.Len(t, gallery, 3)
	assert.Equal(t, []uint{second.ID, first.ID, third.ID}, []uint{gallery[0].ID, gallery[1].ID, gallery[2].ID})

	deleted, err := repo.Delete(ctx, 2, first.ID)
	require.NoError(t, err)
	assert.Nil(t, deleted, "media belongs to another project")

	deleted, err = repo.Delete(ctx, 1, first.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "1/b.jpg", deleted.FilePath)
}

func TestProductListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(openTestDB(t))

	add := func(p models.Product) {
		t.Helper()
		if p.Status == "" {
			p.Status = models.StatusPublished
		}
		require.NoError(t, repo.Add(ctx, &p))
	}
	add(models.Product{Name: "Beton MB30", Slug: "mb30", Category: "beton", SortOrder: 2})
	add(models.Product{Name: "Beton MB20", Slug: "mb20", Category: "beton", SortOrder: 1, Description: strPtr("Za temelje")})
	add(models.Product{Name: "Behaton 100% siv", Slug: "behaton", Category: "behaton", ShortDescription: strPtr("Kocka za dvorište")})
	add(models.Product{Name: "Pesak", Slug: "pesak", Category: "agregat", Status: models.StatusDraft})

	published := models.StatusPublished

	list, err := repo.List(ctx, ProductFilter{Status: &published, Category: "beton", Limit: 20})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "mb20", list[0].Slug)

	list, err = repo.List(ctx, ProductFilter{Query: "TEMELJE", Limit: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mb20", list[0].Slug)

	list, err = repo.List(ctx, ProductFilter{Query: "100%", Limit: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "behaton", list[0].Slug)

	list, err = repo.List(ctx, ProductFilter{Query: "%", Limit: 20})
	require.NoError(t, err)
	assert.Len(t, list, 1, "percent sign is matched literally")

	list, err = repo.List(ctx, ProductFilter{Query: "kocka", Limit: 20})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = repo.List(ctx, ProductFilter{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestOrderStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepo(openTestDB(t))

	o := &models.Order{Name: "Petar", Email: "petar@example.com", Message: "Treba mi beton"}
	require.NoError(t, repo.Add(ctx, o))
	assert.Equal(t, models.OrderNew, o.Status)

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, models.OrderDone))
	require.NoError(t, repo.UpdateStatus(ctx, o.ID, models.OrderDone))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 9999, models.OrderDone), errs.ErrNotFound)

	done := models.OrderDone
	list, err := repo.List(ctx, OrderFilter{Status: &done, Limit: 100})
	require.NoError(t, err)
	require.Len(t, list, 1)

	fresh := models.OrderNew
	list, err = repo.List(ctx, OrderFilter{Status: &fresh, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdminEmailIsNormalized(t *testing.T) {
	ctx := context.Background()
	repo := NewAdminRepo(openTestDB(t))

	require.NoError(t, repo.Add(ctx, &models.Admin{Email: " Admin@Prevozkop.RS ", PasswordHash: "x"}))

	admin, err := repo.FindByEmail(ctx, "admin@prevozkop.rs")
	require.NoError(t, err)
	assert.Equal(t, "admin@prevozkop.rs", admin.Email)

	require.NoError(t, repo.UpdatePassword(ctx, "ADMIN@prevozkop.rs", "y"))
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "nobody@prevozkop.rs", "y"), errs.ErrNotFound)

	_, err = repo.FindByEmail(ctx, "nobody@prevozkop.rs")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSchemaDrift(t *testing.T) {
	db, err := Open(config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)

	report, err := SchemaDrift(db)
	require.NoError(t, err)
	require.Len(t, report, len(Models()))
	for _, d := range report {
		assert.True(t, d.Absent, d.Table)
	}

	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, db.Exec("ALTER TABLE orders ADD COLUMN legacy_source TEXT").Error)

	report, err = SchemaDrift(db)
	require.NoError(t, err)

	var buf bytes.Buffer
	dirty := WriteSchemaReport(&buf, report)
	assert.Equal(t, 1, dirty)
	assert.Contains(t, buf.String(), "unmapped column: legacy_source")
}

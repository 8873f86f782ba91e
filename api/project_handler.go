package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prevozkop/backend/database"
	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/metrics"
	"github.com/prevozkop/backend/models"
	"github.com/prevozkop/backend/services"
	"github.com/prevozkop/backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

var errProjectNotFound = errs.NewNotFoundError("Project not found")

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo *database.ProjectRepo
	mediaRepo   *database.ProjectMediaRepo
	uploads     *storage.Store
	metrics     *metrics.Metrics
	now         func() time.Time
}

func newProjectHandler(projectRepo *database.ProjectRepo, mediaRepo *database.ProjectMediaRepo, uploads *storage.Store, m *metrics.Metrics, debug bool) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger, debug),
		logger:      logger,
		projectRepo: projectRepo,
		mediaRepo:   mediaRepo,
		uploads:     uploads,
		metrics:     m,
		now:         time.Now,
	}
}

// projectBrief is the list projection of a project.
type projectBrief struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     *string    `json:"excerpt"`
	HeroImage   *string    `json:"hero_image"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type galleryItem struct {
	ID        uint    `json:"id"`
	Src       string  `json:"src"`
	Alt       *string `json:"alt"`
	SortOrder int     `json:"sort_order"`
}

// projectFull is the detail projection, gallery included.
type projectFull struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Slug        string               `json:"slug"`
	Excerpt     *string              `json:"excerpt"`
	Body        *string              `json:"body"`
	HeroImage   *string              `json:"hero_image"`
	Gallery     []galleryItem        `json:"gallery"`
	Status      models.PublishStatus `json:"status"`
	Tags        datatypes.JSON       `json:"tags"`
	PublishedAt *time.Time           `json:"published_at"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// projectInput is the JSON body of create and update. Every key is optional
// at decode time so update can tell "absent" from "null".
type projectInput struct {
	Title       models.Field[string]          `json:"title"`
	Slug        models.Field[string]          `json:"slug"`
	Excerpt     models.Field[string]          `json:"excerpt"`
	Body        models.Field[string]          `json:"body"`
	Status      models.Field[string]          `json:"status"`
	PublishedAt models.Field[string]          `json:"published_at"`
	Tags        models.Field[json.RawMessage] `json:"tags"`
}

func (h projectHandler) brief(p models.Project) projectBrief {
	return projectBrief{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		HeroImage:   h.uploads.URLPtr(p.HeroImage),
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
	}
}

func (h projectHandler) full(r *http.Request, p *models.Project) (projectFull, error) {
	media, err := h.mediaRepo.FindByProject(r.Context(), p.ID)
	if err != nil {
		return projectFull{}, wrapDatabaseError("find", "project media", err)
	}

	gallery := make([]galleryItem, 0, len(media))
	for _, m := range media {
		gallery = append(gallery, galleryItem{
			ID:        m.ID,
			Src:       h.uploads.URL(m.FilePath),
			Alt:       m.AltText,
			SortOrder: m.SortOrder,
		})
	}

	return projectFull{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		Body:        p.Body,
		HeroImage:   h.uploads.URLPtr(p.HeroImage),
		Gallery:     gallery,
		Status:      p.Status,
		Tags:        p.Tags,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (h projectHandler) writeFull(w http.ResponseWriter, r *http.Request, status int, p *models.Project) {
	resp, err := h.full(r, p)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}
	h.responder.WriteJSONWithStatus(w, status, resp)
}

// listProjects lists projects, newest first
// @Summary List projects
// @Description Anonymous callers only see published projects. Admins may pass status=draft|published|all.
// @Tags Projects
// @Produce json
// @Param limit query int false "Page size (1-100, default 20)"
// @Param offset query int false "Rows to skip"
// @Param status query string false "draft, published or all (admin only)"
// @Success 200 {object} listResponse[projectBrief]
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid status"
// @Router /projects [get]
// @Router /admin/projects [get]
func (h projectHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := publishFilter(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		page := parsePagination(r, defaultLimit)

		projects, err := h.projectRepo.List(r.Context(), database.ProjectFilter{
			Status: status,
			Limit:  page.limit,
			Offset: page.offset,
		})
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("list", "projects", err))
			return
		}

		data := make([]projectBrief, 0, len(projects))
		for _, p := range projects {
			data = append(data, h.brief(p))
		}
		h.responder.WriteJSON(w, newListResponse(data, page))
	}
}

// getProjectBySlug returns the full projection of a project
// @Summary Get project
// @Description Drafts are reported as missing unless the caller is an admin.
// @Tags Projects
// @Produce json
// @Param slug path string true "Project slug"
// @Success 200 {object} projectFull
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /projects/{slug} [get]
func (h projectHandler) getProjectBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.projectRepo.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			if errs.IsNotFound(err) {
				h.responder.WriteError(w, errProjectNotFound)
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("find", "project", err))
			return
		}
		if project.Status != models.StatusPublished && !ctxIsAdmin(r.Context()) {
			h.responder.WriteError(w, errProjectNotFound)
			return
		}
		h.writeFull(w, r, http.StatusOK, project)
	}
}

// getProject returns any project by id
// @Summary Get project (admin)
// @Tags Projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} projectFull
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /admin/projects/{id} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.findByID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.writeFull(w, r, http.StatusOK, project)
	}
}

// createProject creates a new project
// @Summary Create project
// @Description Title is required. The slug is derived from the title unless given. Status defaults to draft.
// @Tags Projects
// @Accept json
// @Produce json
// @Param project body projectInput true "Project data"
// @Success 201 {object} projectFull
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid project data or duplicate slug"
// @Router /admin/projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in projectInput
		if err := decodeJSON(r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := in.project()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if project.Status == models.StatusPublished && project.PublishedAt == nil {
			stamp := h.stamp()
			project.PublishedAt = &stamp
		}

		if err := h.projectRepo.Add(r.Context(), project); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestErrorWithCause("Failed to create project (slug likely not unique)", err))
			return
		}

		created, err := h.projectRepo.FindByID(r.Context(), project.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find created", "project", err))
			return
		}
		h.writeFull(w, r, http.StatusCreated, created)
	}
}

// updateProject applies a partial update
// @Summary Update project
// @Description Only keys present in the body are touched. Blank optional fields are cleared.
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param project body projectInput true "Fields to change"
// @Success 200 {object} projectFull
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid data, no fields or duplicate slug"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /admin/projects/{id} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			h.responder.WriteError(w, errProjectNotFound)
			return
		}

		var in projectInput
		if err := decodeJSON(r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		patch, err := in.patch()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if patch.Empty() {
			h.responder.WriteError(w, errs.ErrNoFields)
			return
		}

		if patch.Status.Present() && !in.PublishedAt.Set {
			current, err := h.findByID(r)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			patch.PublishedAt = followStatus(current, patch.Status.Value, h.stamp())
		}

		if err := h.projectRepo.Update(r.Context(), id, patch); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestErrorWithCause("Failed to update project (slug maybe not unique)", err))
			return
		}

		project, err := h.findByID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.writeFull(w, r, http.StatusOK, project)
	}
}

// deleteProject removes a project, its gallery rows and its upload directory.
// Deleting a missing project still succeeds.
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			h.responder.WriteJSON(w, okResponse{OK: true})
			return
		}

		if err := h.projectRepo.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "project", err))
			return
		}
		if err := h.uploads.DeleteOwner(r.Context(), id); err != nil {
			h.logger.Warn().Err(err).Uint("projectId", id).Msg("Failed to remove project uploads")
		}
		h.responder.WriteJSON(w, okResponse{OK: true})
	}
}

type heroResponse struct {
	HeroImage string `json:"hero_image"`
}

// uploadHero replaces the project's hero image
// @Summary Upload hero image
// @Tags Projects
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Project ID"
// @Param file formData file true "JPEG, PNG or WebP image"
// @Success 200 {object} heroResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Upload rejected"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /admin/projects/{id}/hero [post]
func (h projectHandler) uploadHero() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.findByID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		file, cleanup := readUpload(w, r, h.uploads.MaxBytes())
		defer cleanup()

		key, err := h.uploads.Save(r.Context(), file, project.ID, storage.ImageTypes)
		h.metrics.Upload("hero", err)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projectRepo.SetHeroImage(r.Context(), project.ID, key); err != nil {
			h.removeUpload(r, key)
			h.responder.WriteError(w, wrapDatabaseError("update", "project", err))
			return
		}
		if project.HeroImage != nil && *project.HeroImage != key {
			h.removeUpload(r, *project.HeroImage)
		}

		h.responder.WriteJSON(w, heroResponse{HeroImage: h.uploads.URL(key)})
	}
}

type mediaResponse struct {
	ID       uint   `json:"id"`
	File     string `json:"file"`
	FilePath string `json:"file_path"`
}

// uploadMedia adds an image to the project gallery
// @Summary Upload gallery image
// @Tags Projects
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Project ID"
// @Param file formData file true "JPEG, PNG or WebP image"
// @Param alt formData string false "Alt text"
// @Param sort formData int false "Sort order"
// @Success 200 {object} mediaResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Upload rejected"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /admin/projects/{id}/media [post]
func (h projectHandler) uploadMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.findByID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		file, cleanup := readUpload(w, r, h.uploads.MaxBytes())
		defer cleanup()

		key, err := h.uploads.Save(r.Context(), file, project.ID, storage.ImageTypes)
		h.metrics.Upload("media", err)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		media := &models.ProjectMedia{
			ProjectID: project.ID,
			FilePath:  key,
		}
		if alt := strings.TrimSpace(r.FormValue("alt")); alt != "" {
			media.AltText = &alt
		}
		media.SortOrder, _ = strconv.Atoi(strings.TrimSpace(r.FormValue("sort")))

		if err := h.mediaRepo.Add(r.Context(), media); err != nil {
			h.removeUpload(r, key)
			h.responder.WriteError(w, wrapDatabaseError("create", "project media", err))
			return
		}

		h.responder.WriteJSON(w, mediaResponse{
			ID:       media.ID,
			File:     h.uploads.URL(key),
			FilePath: key,
		})
	}
}

// deleteMedia removes one gallery image. Unknown ids still succeed.
func (h projectHandler) deleteMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := idParam(r, "id")
		if err != nil {
			h.responder.WriteJSON(w, okResponse{OK: true})
			return
		}
		mediaID, err := idParam(r, "mediaId")
		if err != nil {
			h.responder.WriteJSON(w, okResponse{OK: true})
			return
		}

		media, err := h.mediaRepo.Delete(r.Context(), projectID, mediaID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "project media", err))
			return
		}
		if media != nil {
			h.removeUpload(r, media.FilePath)
		}
		h.responder.WriteJSON(w, okResponse{OK: true})
	}
}

func (h projectHandler) findByID(r *http.Request) (*models.Project, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return nil, errProjectNotFound
	}
	project, err := h.projectRepo.FindByID(r.Context(), id)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errProjectNotFound
		}
		return nil, wrapDatabaseError("find", "project", err)
	}
	return project, nil
}

func (h projectHandler) stamp() time.Time {
	return h.now().UTC().Truncate(time.Second)
}

// followStatus keeps published_at in step with a status change that comes
// without a date: publishing dates an undated project, unpublishing clears it.
func followStatus(current *models.Project, status models.PublishStatus, now time.Time) models.Field[time.Time] {
	switch {
	case status == models.StatusPublished && current.PublishedAt == nil:
		return models.NewValue(now)
	case status == models.StatusDraft && current.Status == models.StatusPublished:
		return models.NewNull[time.Time]()
	}
	return models.Field[time.Time]{}
}

func (h projectHandler) removeUpload(r *http.Request, key string) {
	if err := h.uploads.Delete(r.Context(), key); err != nil {
		h.logger.Warn().Err(err).Str("file", key).Msg("Failed to remove upload")
	}
}

// project builds a new row from a create body.
func (in projectInput) project() (*models.Project, error) {
	title := strings.TrimSpace(in.Title.Value)
	if !in.Title.Present() || title == "" {
		return nil, errs.NewBadRequestError("Title is required")
	}

	p := &models.Project{
		Title:   title,
		Excerpt: optionalText(in.Excerpt),
		Body:    optionalText(in.Body),
		Status:  models.StatusDraft,
	}

	if slug := strings.TrimSpace(in.Slug.Value); in.Slug.Present() && slug != "" {
		p.Slug = services.Slugify(slug)
	} else {
		p.Slug = services.Slugify(title)
	}

	if raw := strings.TrimSpace(in.Status.Value); in.Status.Present() && raw != "" {
		status, err := models.ParsePublishStatus(raw)
		if err != nil {
			return nil, errs.ErrBadStatus
		}
		p.Status = status
	}

	if raw := strings.TrimSpace(in.PublishedAt.Value); in.PublishedAt.Present() && raw != "" {
		t, err := parsePublishedAt(raw)
		if err != nil {
			return nil, err
		}
		p.PublishedAt = &t
	}

	if in.Tags.Present() {
		tags, err := jsonColumn(in.Tags.Value, false, "Tags must be a JSON array")
		if err != nil {
			return nil, err
		}
		p.Tags = tags
	}
	return p, nil
}

// patch validates an update body. Required columns cannot be cleared.
func (in projectInput) patch() (models.ProjectPatch, error) {
	var patch models.ProjectPatch

	if in.Title.Set {
		title := strings.TrimSpace(in.Title.Value)
		if in.Title.Null || title == "" {
			return patch, errs.NewBadRequestError("Title is required")
		}
		patch.Title = models.NewValue(title)
	}

	if in.Slug.Set {
		slug := strings.TrimSpace(in.Slug.Value)
		if in.Slug.Null || slug == "" {
			return patch, errs.NewBadRequestError("Slug cannot be empty")
		}
		patch.Slug = models.NewValue(services.Slugify(slug))
	}

	patch.Excerpt = textField(in.Excerpt)
	patch.Body = textField(in.Body)

	if in.Status.Set {
		status, err := models.ParsePublishStatus(in.Status.Value)
		if in.Status.Null || err != nil {
			return patch, errs.ErrBadStatus
		}
		patch.Status = models.NewValue(status)
	}

	if in.PublishedAt.Set {
		raw := strings.TrimSpace(in.PublishedAt.Value)
		if in.PublishedAt.Null || raw == "" {
			patch.PublishedAt = models.NewNull[time.Time]()
		} else {
			t, err := parsePublishedAt(raw)
			if err != nil {
				return patch, err
			}
			patch.PublishedAt = models.NewValue(t)
		}
	}

	if in.Tags.Set {
		tags, err := jsonColumn(in.Tags.Value, false, "Tags must be a JSON array")
		if err != nil {
			return patch, err
		}
		if tags == nil {
			patch.Tags = models.NewNull[datatypes.JSON]()
		} else {
			patch.Tags = models.NewValue(tags)
		}
	}
	return patch, nil
}

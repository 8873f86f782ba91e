package api

import (
	"context"
	"encoding/json"
	"net/http"
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

var errProductNotFound = errs.NewNotFoundError("Product not found")

const specsMessage = "Specs must be a JSON object or array"

type productHandler struct {
	responder   Responder
	logger      zerolog.Logger
	productRepo *database.ProductRepo
	uploads     *storage.Store
	metrics     *metrics.Metrics
}

func newProductHandler(productRepo *database.ProductRepo, uploads *storage.Store, m *metrics.Metrics, debug bool) productHandler {
	logger := log.With().Str("handlerName", "productHandler").Logger()

	return productHandler{
		responder:   NewResponder(logger, debug),
		logger:      logger,
		productRepo: productRepo,
		uploads:     uploads,
		metrics:     m,
	}
}

type productView struct {
	ID               uint                 `json:"id"`
	Name             string               `json:"name"`
	Slug             string               `json:"slug"`
	Category         string               `json:"category"`
	ProductType      *string              `json:"product_type"`
	ShortDescription *string              `json:"short_description"`
	Description      *string              `json:"description"`
	Applications     *string              `json:"applications"`
	Specs            datatypes.JSON       `json:"specs"`
	Image            *string              `json:"image"`
	Document         *string              `json:"document"`
	Status           models.PublishStatus `json:"status"`
	SortOrder        int                  `json:"sort_order"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type productInput struct {
	Name             models.Field[string]          `json:"name"`
	Slug             models.Field[string]          `json:"slug"`
	Category         models.Field[string]          `json:"category"`
	ProductType      models.Field[string]          `json:"product_type"`
	ShortDescription models.Field[string]          `json:"short_description"`
	Description      models.Field[string]          `json:"description"`
	Applications     models.Field[string]          `json:"applications"`
	Specs            models.Field[json.RawMessage] `json:"specs"`
	Status           models.Field[string]          `json:"status"`
	SortOrder        models.Field[int]             `json:"sort_order"`
}

func (h productHandler) view(p *models.Product) productView {
	return productView{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Category:         p.Category,
		ProductType:      p.ProductType,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Applications:     p.Applications,
		Specs:            p.Specs,
		Image:            h.uploads.URLPtr(p.Image),
		Document:         h.uploads.URLPtr(p.Document),
		Status:           p.Status,
		SortOrder:        p.SortOrder,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// listProducts supports category (exact) and q (substring of name or
// descriptions, case-insensitive) filters.
func (h productHandler) listProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := publishFilter(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		page := parsePagination(r, defaultLimit)
		q := r.URL.Query()

		products, err := h.productRepo.List(r.Context(), database.ProductFilter{
			Status:   status,
			Category: strings.TrimSpace(q.Get("category")),
			Query:    q.Get("q"),
			Limit:    page.limit,
			Offset:   page.offset,
		})
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("list", "products", err))
			return
		}

		data := make([]productView, 0, len(products))
		for i := range products {
			data = append(data, h.view(&products[i]))
		}
		h.responder.WriteJSON(w, newListResponse(data, page))
	}
}

func (h productHandler) getProductBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := h.productRepo.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			if errs.IsNotFound(err) {
				h.responder.WriteError(w, errProductNotFound)
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("find", "product", err))
			return
		}
		if product.Status != models.StatusPublished && !ctxIsAdmin(r.Context()) {
			h.responder.WriteError(w, errProductNotFound)
			return
		}
		h.responder.WriteJSON(w, h.view(product))
	}
}

func (h productHandler) getProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := h.findByID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, h.view(product))
	}
}

func (h productHandler) createProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in productInput
		if err := decodeJSON(r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		product, err := in.product()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.productRepo.Add(r.Context(), product); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestErrorWithCause("Failed to create product (slug likely not unique)", err))
			return
		}

		created, err := h.productRepo.FindByID(r.Context(), product.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find created", "product", err))
			return
		}
		h.responder.WriteJSONWithStatus(w, http.StatusCreated, h.view(created))
	}
}

func (h productHandler) updateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			h.responder.WriteError(w, errProductNotFound)
			return
		}

		var in productInput
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

		if err := h.productRepo.Update(r.Context(), id, patch); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestErrorWithCause("Failed to update product (slug maybe not unique)", err))
			return
		}

		product, err := h.findByID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, h.view(product))
	}
}

func (h productHandler) deleteProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			h.responder.WriteJSON(w, okResponse{OK: true})
			return
		}

		if err := h.productRepo.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "product", err))
			return
		}
		if err := h.uploads.DeleteOwner(r.Context(), id); err != nil {
			h.logger.Warn().Err(err).Uint("productId", id).Msg("Failed to remove product uploads")
		}
		h.responder.WriteJSON(w, okResponse{OK: true})
	}
}

type imageResponse struct {
	Image string `json:"image"`
}

type documentResponse struct {
	Document string `json:"document"`
}

func (h productHandler) uploadImage() http.HandlerFunc {
	return h.upload("image", storage.ImageTypes,
		func(p *models.Product) *string { return p.Image },
		h.productRepo.SetImage,
		func(url string) any { return imageResponse{Image: url} },
	)
}

func (h productHandler) uploadDocument() http.HandlerFunc {
	return h.upload("document", storage.DocumentTypes,
		func(p *models.Product) *string { return p.Document },
		h.productRepo.SetDocument,
		func(url string) any { return documentResponse{Document: url} },
	)
}

// upload stores a file for one product column and replaces the previous one.
func (h productHandler) upload(
	kind string,
	allowed []string,
	current func(*models.Product) *string,
	set func(ctx context.Context, id uint, key string) error,
	response func(url string) any,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := h.findByID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		file, cleanup := readUpload(w, r, h.uploads.MaxBytes())
		defer cleanup()

		key, err := h.uploads.Save(r.Context(), file, product.ID, allowed)
		h.metrics.Upload(kind, err)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := set(r.Context(), product.ID, key); err != nil {
			h.removeUpload(r, key)
			h.responder.WriteError(w, wrapDatabaseError("update", "product", err))
			return
		}
		if old := current(product); old != nil && *old != key {
			h.removeUpload(r, *old)
		}

		h.responder.WriteJSON(w, response(h.uploads.URL(key)))
	}
}

func (h productHandler) findByID(r *http.Request) (*models.Product, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return nil, errProductNotFound
	}
	product, err := h.productRepo.FindByID(r.Context(), id)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errProductNotFound
		}
		return nil, wrapDatabaseError("find", "product", err)
	}
	return product, nil
}

func (h productHandler) removeUpload(r *http.Request, key string) {
	if err := h.uploads.Delete(r.Context(), key); err != nil {
		h.logger.Warn().Err(err).Str("file", key).Msg("Failed to remove upload")
	}
}

func (in productInput) product() (*models.Product, error) {
	name := strings.TrimSpace(in.Name.Value)
	category := strings.TrimSpace(in.Category.Value)
	if !in.Name.Present() || name == "" || !in.Category.Present() || category == "" {
		return nil, errs.NewBadRequestError("Name and category are required")
	}

	p := &models.Product{
		Name:             name,
		Category:         category,
		ProductType:      optionalText(in.ProductType),
		ShortDescription: optionalText(in.ShortDescription),
		Description:      optionalText(in.Description),
		Applications:     optionalText(in.Applications),
		Status:           models.StatusDraft,
		SortOrder:        in.SortOrder.Value,
	}

	if slug := strings.TrimSpace(in.Slug.Value); in.Slug.Present() && slug != "" {
		p.Slug = services.Slugify(slug)
	} else {
		p.Slug = services.Slugify(name)
	}

	if raw := strings.TrimSpace(in.Status.Value); in.Status.Present() && raw != "" {
		status, err := models.ParsePublishStatus(raw)
		if err != nil {
			return nil, errs.ErrBadStatus
		}
		p.Status = status
	}

	if in.Specs.Present() {
		specs, err := jsonColumn(in.Specs.Value, true, specsMessage)
		if err != nil {
			return nil, err
		}
		p.Specs = specs
	}
	return p, nil
}

func (in productInput) patch() (models.ProductPatch, error) {
	var patch models.ProductPatch

	if in.Name.Set {
		name := strings.TrimSpace(in.Name.Value)
		if in.Name.Null || name == "" {
			return patch, errs.NewBadRequestError("Name is required")
		}
		patch.Name = models.NewValue(name)
	}

	if in.Category.Set {
		category := strings.TrimSpace(in.Category.Value)
		if in.Category.Null || category == "" {
			return patch, errs.NewBadRequestError("Category is required")
		}
		patch.Category = models.NewValue(category)
	}

	if in.Slug.Set {
		slug := strings.TrimSpace(in.Slug.Value)
		if in.Slug.Null || slug == "" {
			return patch, errs.NewBadRequestError("Slug cannot be empty")
		}
		patch.Slug = models.NewValue(services.Slugify(slug))
	}

	patch.ProductType = textField(in.ProductType)
	patch.ShortDescription = textField(in.ShortDescription)
	patch.Description = textField(in.Description)
	patch.Applications = textField(in.Applications)

	if in.Status.Set {
		status, err := models.ParsePublishStatus(in.Status.Value)
		if in.Status.Null || err != nil {
			return patch, errs.ErrBadStatus
		}
		patch.Status = models.NewValue(status)
	}

	if in.Specs.Set {
		specs, err := jsonColumn(in.Specs.Value, true, specsMessage)
		if err != nil {
			return patch, err
		}
		if specs == nil {
			patch.Specs = models.NewNull[datatypes.JSON]()
		} else {
			patch.Specs = models.NewValue(specs)
		}
	}

	// sort_order is NOT NULL, so null leaves it alone
	if in.SortOrder.Present() {
		patch.SortOrder = in.SortOrder
	}
	return patch, nil
}

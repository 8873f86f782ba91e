package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prevozkop/backend/database"
	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/metrics"
	"github.com/prevozkop/backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultOrderLimit = 100
	notifyTimeout     = 10 * time.Second
)

var (
	errOrderNotFound   = errs.NewNotFoundError("Order not found")
	errOrderIncomplete = errs.NewBadRequestError("Name, email and message are required")
	errOrderEmail      = errs.NewBadRequestError("Invalid email address")
)

// Notifier delivers a new lead to the site owners. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, order *models.Order) bool
}

type orderHandler struct {
	responder Responder
	logger    zerolog.Logger
	orderRepo *database.OrderRepo
	notifier  Notifier
	metrics   *metrics.Metrics
	validate  *validator.Validate
}

func newOrderHandler(orderRepo *database.OrderRepo, notifier Notifier, m *metrics.Metrics, debug bool) orderHandler {
	logger := log.With().Str("handlerName", "orderHandler").Logger()

	return orderHandler{
		responder: NewResponder(logger, debug),
		logger:    logger,
		orderRepo: orderRepo,
		notifier:  notifier,
		metrics:   m,
		validate:  validator.New(),
	}
}

type orderRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	Subject      string `json:"subject"`
	ConcreteType string `json:"concrete_type"`
	Message      string `json:"message" validate:"required"`
}

type orderCreatedResponse struct {
	OK bool `json:"ok"`
	ID uint `json:"id"`
}

func (req *orderRequest) trim() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Subject = strings.TrimSpace(req.Subject)
	req.ConcreteType = strings.TrimSpace(req.ConcreteType)
	req.Message = strings.TrimSpace(req.Message)
}

// check maps validator failures onto the two messages the contact form shows.
func (h orderHandler) check(req *orderRequest) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return errs.NewBadRequestErrorWithCause("Invalid order", err)
	}
	for _, f := range fields {
		if f.Tag() == "required" {
			return errOrderIncomplete
		}
	}
	return errOrderEmail
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// createOrder stores a contact-form lead and emails it. A failed email never
// fails the request.
//
// @Summary Submit a lead
// @Tags orders
// @Accept json
// @Produce json
// @Success 201 {object} orderCreatedResponse
// @Failure 400 {object} ErrorResponse
// @Router /orders [post]
func (h orderHandler) createOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := decodeJSON(r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		req.trim()
		if err := h.check(&req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		order := &models.Order{
			Name:         req.Name,
			Email:        req.Email,
			Phone:        nonEmpty(req.Phone),
			Subject:      nonEmpty(req.Subject),
			ConcreteType: nonEmpty(req.ConcreteType),
			Message:      req.Message,
			Status:       models.OrderNew,
		}
		if err := h.orderRepo.Add(r.Context(), order); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "order", err))
			return
		}
		h.metrics.OrderCreated(order.ConcreteType != nil)

		// the client may hang up once the row is saved; the email still goes out
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), notifyTimeout)
		sent := h.notifier.Notify(ctx, order)
		cancel()
		h.metrics.NotificationResult(sent)
		if !sent {
			h.logger.Warn().Uint("orderId", order.ID).Msg("Order notification was not sent")
		}

		h.responder.WriteJSONWithStatus(w, http.StatusCreated, orderCreatedResponse{OK: true, ID: order.ID})
	}
}

func (h orderHandler) listOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *models.OrderStatus
		raw := strings.TrimSpace(r.URL.Query().Get("status"))
		if raw != "" && !strings.EqualFold(raw, "all") {
			s, err := models.ParseOrderStatus(raw)
			if err != nil {
				h.responder.WriteError(w, errs.ErrBadStatus)
				return
			}
			status = &s
		}
		page := parsePagination(r, defaultOrderLimit)

		orders, err := h.orderRepo.List(r.Context(), database.OrderFilter{
			Status: status,
			Limit:  page.limit,
			Offset: page.offset,
		})
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("list", "orders", err))
			return
		}
		h.responder.WriteJSON(w, newListResponse(orders, page))
	}
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// updateOrderStatus is the only change allowed on a stored lead.
func (h orderHandler) updateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			h.responder.WriteError(w, errOrderNotFound)
			return
		}

		var req orderStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		status, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			h.responder.WriteError(w, errs.ErrBadStatus)
			return
		}

		if err := h.orderRepo.UpdateStatus(r.Context(), id, status); err != nil {
			if errs.IsNotFound(err) {
				h.responder.WriteError(w, errOrderNotFound)
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("update", "order", err))
			return
		}

		order, err := h.orderRepo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "order", err))
			return
		}
		h.responder.WriteJSON(w, order)
	}
}

package models

import (
	"errors"
	"strings"
)

var ErrInvalidStatus = errors.New("invalid status")

// PublishStatus controls public visibility of projects and products.
type PublishStatus string

const (
	StatusDraft     PublishStatus = "draft"
	StatusPublished PublishStatus = "published"
)

func ParsePublishStatus(raw string) (PublishStatus, error) {
	switch s := PublishStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusDraft, StatusPublished:
		return s, nil
	}
	return "", ErrInvalidStatus
}

// OrderStatus tracks how far a lead has been handled.
type OrderStatus string

const (
	OrderNew        OrderStatus = "new"
	OrderInProgress OrderStatus = "in_progress"
	OrderDone       OrderStatus = "done"
)

func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch s := OrderStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case OrderNew, OrderInProgress, OrderDone:
		return s, nil
	}
	return "", ErrInvalidStatus
}

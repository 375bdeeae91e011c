package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"laundry-bot/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	webpush *webpush.Options
	loc     *time.Location
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options, loc *time.Location) *Handler {
	return &Handler{
		store:   s,
		webpush: webpushOptions,
		loc:     loc,
	}
}

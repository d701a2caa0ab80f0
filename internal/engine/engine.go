package engine

import (
	"context"
	"sort"
	"time"

	"slotnik/internal/clock"
	"slotnik/internal/events"
	"slotnik/internal/metrics"
	"slotnik/internal/models"
	"slotnik/internal/slotstore"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine decides whether a requested slot may be created and how a
// booking's status evolves. It is the single in-process owner of the
// booking collection: every mutation re-reads the collection, scans and
// writes back under one mutex, so the scan-then-write window is closed
// within a process. The store itself is last-writer-wins, so exactly one
// engine instance must own a collection key; run one API process per
// collection in production.
type Engine struct {
	store          slotstore.Store
	clk            clock.Clock
	loc            *time.Location
	bus            *events.Bus
	validate       *validator.Validate
	maxAdvanceDays int
	logger         *zerolog.Logger

	// mu serializes all mutating operations. Read-only operations
	// (ListActive, Availability) deliberately do not take it.
	mu chan struct{}
}

func New(store slotstore.Store, clk clock.Clock, loc *time.Location, bus *events.Bus, maxAdvanceDays int, logger *zerolog.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = models.DefaultMaxAdvanceDays
	}

	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	return &Engine{
		store:          store,
		clk:            clk,
		loc:            loc,
		bus:            bus,
		validate:       newValidate(),
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
		mu:             mu,
	}
}

func (e *Engine) lock(ctx context.Context) error {
	select {
	case <-e.mu:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) unlock() {
	e.mu <- struct{}{}
}

// Propose validates and sanitizes the request, scans the collection for a
// non-cancelled booking on the same slot and appends a pending booking.
// Only the new id is returned; contact details are never echoed back.
func (e *Engine) Propose(ctx context.Context, req ProposeRequest) (string, error) {
	if err := e.validatePropose(&req); err != nil {
		return "", err
	}
	req.sanitize()

	start, err := e.slotStart(req.Date, req.Time)
	if err != nil {
		return "", ValidationErrors{{Field: "date", Message: "must combine into a valid slot"}}
	}

	now := e.clk.Now()
	if start.Before(now) {
		return "", ErrPastSlot
	}
	if start.After(now.AddDate(0, 0, e.maxAdvanceDays)) {
		return "", ErrTooFarAhead
	}

	if err := e.lock(ctx); err != nil {
		return "", err
	}
	defer e.unlock()

	bookings, err := e.store.Load(ctx)
	if err != nil {
		return "", err
	}

	slot := req.Date + " " + req.Time
	for i := range bookings {
		if bookings[i].Occupies() && bookings[i].SlotKey() == slot {
			metrics.IncConflict()
			return "", ErrSlotTaken
		}
	}

	booking := models.Booking{
		ID: uuid.NewString(),
		Contact: models.Contact{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
		},
		Date:        req.Date,
		Time:        req.Time,
		MeetingType: req.MeetingType,
		Notes:       req.Notes,
		Status:      models.StatusPending,
		CreatedAt:   now,
	}

	// No external calls between the scan above and this write.
	if err := e.store.Save(ctx, append(bookings, booking)); err != nil {
		return "", err
	}

	metrics.IncCreated()
	e.logger.Info().Str("booking_id", booking.ID).Str("slot", slot).Msg("booking proposed")
	e.publish(events.BookingCreated, &booking)

	return booking.ID, nil
}

// ListActive returns non-cancelled bookings whose slot has not passed,
// sorted ascending by date and time.
func (e *Engine) ListActive(ctx context.Context) ([]models.Booking, error) {
	bookings, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := e.clk.Now()
	active := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == models.StatusCancelled {
			continue
		}
		start, err := b.StartTime(e.loc)
		if err != nil {
			e.logger.Warn().Str("booking_id", b.ID).Err(err).Msg("skipping booking with unparseable slot")
			continue
		}
		if start.Before(now) {
			continue
		}
		active = append(active, b)
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].SlotKey() < active[j].SlotKey()
	})

	return active, nil
}

// SetStatus overwrites a booking's status and persists the collection.
// Setting the current status again is a no-op success. Cancelled is
// terminal for every caller, operators included; re-booking a freed slot
// is a new proposal.
func (e *Engine) SetStatus(ctx context.Context, id, newStatus string) (*models.Booking, error) {
	if !models.ValidStatus(newStatus) {
		return nil, ValidationErrors{{Field: "status", Message: "must be one of: pending confirmed cancelled"}}
	}

	if err := e.lock(ctx); err != nil {
		return nil, err
	}
	defer e.unlock()

	bookings, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range bookings {
		if bookings[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrNotFound
	}

	current := bookings[idx].Status
	if current == newStatus {
		updated := bookings[idx]
		return &updated, nil
	}
	if current == models.StatusCancelled {
		return nil, ErrCancelledTerminal
	}

	bookings[idx].Status = newStatus
	if err := e.store.Save(ctx, bookings); err != nil {
		return nil, err
	}

	updated := bookings[idx]
	e.logger.Info().Str("booking_id", id).Str("from", current).Str("to", newStatus).Msg("booking status changed")

	switch newStatus {
	case models.StatusConfirmed:
		e.publish(events.BookingConfirmed, &updated)
	case models.StatusCancelled:
		e.publish(events.BookingCancelled, &updated)
	}

	return &updated, nil
}

// Cancel soft-deletes a booking, freeing its slot while keeping the
// record for history.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	_, err := e.SetStatus(ctx, id, models.StatusCancelled)
	return err
}

// Availability emits one-hour busy intervals for non-cancelled bookings
// within [now, now+horizonDays]. Read-only; safe under arbitrary
// concurrency.
func (e *Engine) Availability(ctx context.Context, horizonDays int) ([]models.BusyInterval, error) {
	if horizonDays <= 0 {
		horizonDays = models.DefaultHorizonDays
	}

	bookings, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := e.clk.Now()
	horizon := now.AddDate(0, 0, horizonDays)

	busy := make([]models.BusyInterval, 0, len(bookings))
	for _, b := range bookings {
		if !b.Occupies() {
			continue
		}
		start, err := b.StartTime(e.loc)
		if err != nil {
			continue
		}
		if start.Before(now) || start.After(horizon) {
			continue
		}
		busy = append(busy, models.BusyInterval{
			Start: start,
			End:   start.Add(models.SlotDurationMinutes * time.Minute),
		})
	}

	sort.Slice(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})

	return busy, nil
}

// Get returns a booking by id. Operator views use it for detail pages.
func (e *Engine) Get(ctx context.Context, id string) (*models.Booking, error) {
	bookings, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].ID == id {
			b := bookings[i]
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func (e *Engine) publish(eventType string, booking *models.Booking) {
	if e.bus == nil {
		return
	}

	payload := events.BookingPayload{
		BookingID:   booking.ID,
		Email:       booking.Contact.Email,
		Name:        booking.Contact.Name,
		Date:        booking.Date,
		Time:        booking.Time,
		MeetingType: booking.MeetingType,
		Status:      booking.Status,
	}

	if err := e.bus.PublishJSON(eventType, payload); err != nil {
		e.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

// Package service orchestrates the booking lifecycle: list reserved
// slots, compute availability, create a booking with its cancellation
// token, and cancel by token. All state lives in the store; one service
// call performs its steps strictly in sequence.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/qmb/roombooking/internal/config"
	"github.com/qmb/roombooking/internal/mailer"
	"github.com/qmb/roombooking/internal/model"
	"github.com/qmb/roombooking/internal/repository"
	"github.com/qmb/roombooking/internal/slot"
	"github.com/qmb/roombooking/internal/token"
)

// ErrInvalidRoom is returned when a room name is not configured. The
// dispatcher checks this too, but the contract holds for any caller.
var ErrInvalidRoom = errors.New("invalid room name")

// BookingRequest is the payload of a booking creation.
type BookingRequest struct {
	Slot  int    `json:"Slot"`
	Email string `json:"Email"`
	Date  string `json:"Date"`
}

type BookingService struct {
	repo   repository.BookingRepository
	mailer mailer.Mailer
	tokens token.Issuer
	cfg    *config.Config
}

func NewBookingService(repo repository.BookingRepository, m mailer.Mailer, tokens token.Issuer, cfg *config.Config) *BookingService {
	return &BookingService{
		repo:   repo,
		mailer: m,
		tokens: tokens,
		cfg:    cfg,
	}
}

// ListSlots returns the booking records stored for the room, optionally
// restricted to one date. These are the reserved slots, not availability.
func (s *BookingService) ListSlots(ctx context.Context, room, date string) ([]model.Booking, error) {
	if !s.cfg.ValidRoom(room) {
		return nil, ErrInvalidRoom
	}
	return s.repo.Scan(ctx, room, date)
}

// ListAvailableSlots returns the slots of the room's day not held by any
// stored booking, ascending.
func (s *BookingService) ListAvailableSlots(ctx context.Context, room, date string) ([]int, error) {
	if !s.cfg.ValidRoom(room) {
		return nil, ErrInvalidRoom
	}

	bookings, err := s.repo.Scan(ctx, room, date)
	if err != nil {
		return nil, err
	}

	booked := make([]int, len(bookings))
	for i, b := range bookings {
		booked[i] = b.Slot
	}
	return slot.Available(s.cfg.Rooms[room].Slots, booked), nil
}

// Book creates a booking: allocate the next BookingID from the room's
// existing records, issue a cancellation token, persist, then send the
// confirmation email. The email is best-effort; a persisted booking is
// reported successful even if the confirmation fails to send. Slot range
// and slot exclusivity are not enforced here: availability listings are
// advisory, and two concurrent calls can double-book or collide on the
// same BookingID.
func (s *BookingService) Book(ctx context.Context, room string, req BookingRequest) (int, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingService.Book")
	if seg != nil {
		defer seg.Close(nil)
	}

	if !s.cfg.ValidRoom(room) {
		return 0, ErrInvalidRoom
	}

	// Full scan, not date-filtered: BookingID is unique across the whole
	// table, not per day.
	existing, err := s.repo.Scan(ctx, room, "")
	if err != nil {
		if seg != nil {
			seg.Close(err)
		}
		return 0, fmt.Errorf("failed to allocate booking id: %w", err)
	}
	ids := make([]int, len(existing))
	for i, b := range existing {
		ids[i] = b.BookingID
	}

	booking := model.Booking{
		BookingID:         nextBookingID(ids),
		Slot:              req.Slot,
		Email:             req.Email,
		Date:              req.Date,
		CancellationToken: s.tokens.Issue(),
	}

	if err := s.repo.Insert(ctx, room, booking); err != nil {
		if seg != nil {
			seg.Close(err)
		}
		return 0, err
	}

	if err := s.mailer.SendConfirmation(ctx, booking); err != nil {
		log.Printf("Booking %d in %s persisted but confirmation email failed: %v", booking.BookingID, room, err)
	}

	return booking.BookingID, nil
}

// Cancel deletes the booking holding the token. The token carries no room
// hint, so the lookup fans out across every configured room. An unknown
// token returns repository.ErrBookingNotFound and mutates nothing.
func (s *BookingService) Cancel(ctx context.Context, tok string) error {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingService.Cancel")
	if seg != nil {
		defer seg.Close(nil)
	}

	booking, room, err := s.repo.FindByToken(ctx, tok)
	if err != nil {
		if seg != nil && !errors.Is(err, repository.ErrBookingNotFound) {
			seg.Close(err)
		}
		return err
	}

	return s.repo.Delete(ctx, room, booking.BookingID, booking.Date)
}

// nextBookingID allocates the next identifier for a room table: 1 for an
// empty table, otherwise max+1. Read-then-write with no transactional
// guard; see Book for the accepted race.
func nextBookingID(ids []int) int {
	if len(ids) == 0 {
		return 1
	}
	max := ids[0]
	for _, id := range ids[1:] {
		if id > max {
			max = id
		}
	}
	return max + 1
}

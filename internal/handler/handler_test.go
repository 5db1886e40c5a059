package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmb/roombooking/internal/config"
	"github.com/qmb/roombooking/internal/mailer"
	"github.com/qmb/roombooking/internal/model"
	"github.com/qmb/roombooking/internal/repository"
	"github.com/qmb/roombooking/internal/service"
)

type stubRepository struct {
	bookings []model.Booking
	scanErr  error
	findErr  error
}

func (s *stubRepository) Scan(_ context.Context, _, date string) ([]model.Booking, error) {
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	var out []model.Booking
	for _, b := range s.bookings {
		if date == "" || b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubRepository) FindByToken(_ context.Context, token string) (*model.Booking, string, error) {
	if s.findErr != nil {
		return nil, "", s.findErr
	}
	for _, b := range s.bookings {
		if b.CancellationToken == token {
			found := b
			return &found, "QMB1", nil
		}
	}
	return nil, "", repository.ErrBookingNotFound
}

func (s *stubRepository) Insert(_ context.Context, _ string, booking model.Booking) error {
	s.bookings = append(s.bookings, booking)
	return nil
}

func (s *stubRepository) Delete(_ context.Context, _ string, bookingID int, date string) error {
	kept := s.bookings[:0]
	for _, b := range s.bookings {
		if b.BookingID == bookingID && b.Date == date {
			continue
		}
		kept = append(kept, b)
	}
	s.bookings = kept
	return nil
}

type noopMailer struct{}

func (noopMailer) SendConfirmation(context.Context, model.Booking) error { return nil }

type staticIssuer struct{}

func (staticIssuer) Issue() string { return "token-abc" }

var _ mailer.Mailer = noopMailer{}

func newTestHandler(repo repository.BookingRepository) *Handler {
	cfg := &config.Config{
		Rooms: map[string]config.Room{
			"QMB1": {Table: "bookings-qmb1", Slots: 16},
			"QMB2": {Table: "bookings-qmb2", Slots: 16},
		},
		SenderAddress: "bookings@example.com",
		CancelBaseURL: "https://example.com/cancelBooking",
		BaseHour:      7,
	}
	svc := service.NewBookingService(repo, noopMailer{}, staticIssuer{}, cfg)
	return New(svc, cfg)
}

func request(method, path string, query map[string]string, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		Path:                  path,
		HTTPMethod:            method,
		QueryStringParameters: query,
		Body:                  body,
	}
}

func TestHandleRequest_RoomValidation(t *testing.T) {
	h := newTestHandler(&stubRepository{})

	tests := []struct {
		name string
		req  events.APIGatewayProxyRequest
	}{
		{
			name: "missing room on getSlots",
			req:  request(http.MethodGet, "/getSlots", nil, ""),
		},
		{
			name: "unknown room on getAvailableSlots",
			req:  request(http.MethodGet, "/getAvailableSlots", map[string]string{"roomName": "QMB9"}, ""),
		},
		{
			name: "unknown room on unmapped path",
			req:  request(http.MethodGet, "/somethingElse", map[string]string{"roomName": "nope"}, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.HandleRequest(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, `{"message":"Invalid room name"}`, resp.Body)
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
		})
	}
}

func TestHandleRequest_UnmappedRouteWithValidRoom(t *testing.T) {
	h := newTestHandler(&stubRepository{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/unknown"},
		{http.MethodPost, "/getSlots"},
		{http.MethodGet, "/bookSlot"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := h.HandleRequest(context.Background(), request(tt.method, tt.path, map[string]string{"roomName": "QMB1"}, ""))
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.JSONEq(t, `{"message":"Not Found"}`, resp.Body)
		})
	}
}

func TestHandleRequest_GetSlots(t *testing.T) {
	repo := &stubRepository{bookings: []model.Booking{
		{BookingID: 1, Slot: 5, Email: "a@x.com", Date: "2024-05-01", CancellationToken: "secret"},
		{BookingID: 2, Slot: 6, Email: "b@x.com", Date: "2024-05-02", CancellationToken: "secret2"},
	}}
	h := newTestHandler(repo)

	resp, err := h.HandleRequest(context.Background(), request(http.MethodGet, "/getSlots", map[string]string{"roomName": "QMB1", "date": "2024-05-01"}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &records))
	require.Len(t, records, 1)
	assert.Equal(t, float64(1), records[0]["BookingID"])
	assert.Equal(t, "a@x.com", records[0]["Email"])
	assert.NotContains(t, records[0], "CancellationToken", "tokens must never appear in listings")
}

func TestHandleRequest_GetSlotsEmptyStore(t *testing.T) {
	h := newTestHandler(&stubRepository{})

	resp, err := h.HandleRequest(context.Background(), request(http.MethodGet, "/getSlots", map[string]string{"roomName": "QMB1"}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", resp.Body)
}

func TestHandleRequest_GetAvailableSlots(t *testing.T) {
	repo := &stubRepository{bookings: []model.Booking{
		{BookingID: 1, Slot: 1, Date: "2024-05-01"},
		{BookingID: 2, Slot: 16, Date: "2024-05-01"},
	}}
	h := newTestHandler(repo)

	resp, err := h.HandleRequest(context.Background(), request(http.MethodGet, "/getAvailableSlots", map[string]string{"roomName": "QMB1", "date": "2024-05-01"}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var slots []int
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &slots))
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, slots)
}

func TestHandleRequest_BookSlot(t *testing.T) {
	ctx, seg := xray.BeginSegment(context.Background(), "TestHandleRequest_BookSlot")
	defer seg.Close(nil)

	repo := &stubRepository{}
	h := newTestHandler(repo)

	resp, err := h.HandleRequest(ctx, request(http.MethodPost, "/bookSlot", map[string]string{"roomName": "QMB1"},
		`{"Slot":5,"Email":"a@x.com","Date":"2024-05-01"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Booking successful"}`, resp.Body)
	assert.NotContains(t, resp.Body, "token-abc", "response body must not leak the cancellation token")

	require.Len(t, repo.bookings, 1)
	assert.Equal(t, 1, repo.bookings[0].BookingID)
	assert.Equal(t, "token-abc", repo.bookings[0].CancellationToken)
}

func TestHandleRequest_BookSlotMalformedBody(t *testing.T) {
	h := newTestHandler(&stubRepository{})

	resp, err := h.HandleRequest(context.Background(), request(http.MethodPost, "/bookSlot", map[string]string{"roomName": "QMB1"}, "{not json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleRequest_StorageFailure(t *testing.T) {
	repo := &stubRepository{scanErr: assert.AnError}
	h := newTestHandler(repo)

	resp, err := h.HandleRequest(context.Background(), request(http.MethodGet, "/getSlots", map[string]string{"roomName": "QMB1"}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "Failed to retrieve slots", body["message"])
	assert.Contains(t, body["error"], assert.AnError.Error())
}

func TestHandleRequest_CancelBooking(t *testing.T) {
	ctx, seg := xray.BeginSegment(context.Background(), "TestHandleRequest_CancelBooking")
	defer seg.Close(nil)

	repo := &stubRepository{bookings: []model.Booking{
		{BookingID: 3, Slot: 2, Date: "2024-05-01", CancellationToken: "tok-3"},
	}}
	h := newTestHandler(repo)

	resp, err := h.HandleRequest(ctx, request(http.MethodGet, "/cancelBooking", map[string]string{"token": "tok-3"}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Booking cancelled"}`, resp.Body)
	assert.Empty(t, repo.bookings)

	// Cancelling again is NotFound, never an error.
	resp, err = h.HandleRequest(ctx, request(http.MethodGet, "/cancelBooking", map[string]string{"token": "tok-3"}, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Booking not found"}`, resp.Body)
}

func TestHandleRequest_CancelBookingWithoutToken(t *testing.T) {
	h := newTestHandler(&stubRepository{})

	resp, err := h.HandleRequest(context.Background(), request(http.MethodGet, "/cancelBooking", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// Package handler is the request-routing shim: it maps an API Gateway
// path/method pair onto one of the four booking operations and translates
// service errors into status codes. All domain rules live in the service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/qmb/roombooking/internal/config"
	"github.com/qmb/roombooking/internal/model"
	"github.com/qmb/roombooking/internal/repository"
	"github.com/qmb/roombooking/internal/service"
)

type Handler struct {
	svc *service.BookingService
	cfg *config.Config
}

func New(svc *service.BookingService, cfg *config.Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// HandleRequest is the Lambda entrypoint. Route resolution mirrors the
// public contract: /cancelBooking is matched first because a token
// carries no room hint; every other route requires a valid roomName
// before dispatch, so an unknown room is 400 even on an unmapped path.
func (h *Handler) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	if path == "/cancelBooking" && method == http.MethodGet {
		return h.cancelBooking(ctx, req.QueryStringParameters["token"]), nil
	}

	roomName := req.QueryStringParameters["roomName"]
	if roomName == "" || !h.cfg.ValidRoom(roomName) {
		return respond(http.StatusBadRequest, message{"Invalid room name"}), nil
	}
	date := req.QueryStringParameters["date"]

	switch {
	case path == "/getSlots" && method == http.MethodGet:
		return h.getSlots(ctx, roomName, date), nil
	case path == "/getAvailableSlots" && method == http.MethodGet:
		return h.getAvailableSlots(ctx, roomName, date), nil
	case path == "/bookSlot" && method == http.MethodPost:
		return h.bookSlot(ctx, roomName, req.Body), nil
	default:
		return respond(http.StatusNotFound, message{"Not Found"}), nil
	}
}

func (h *Handler) getSlots(ctx context.Context, room, date string) events.APIGatewayProxyResponse {
	bookings, err := h.svc.ListSlots(ctx, room, date)
	if err != nil {
		return failure("Failed to retrieve slots", err)
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return respond(http.StatusOK, bookings)
}

func (h *Handler) getAvailableSlots(ctx context.Context, room, date string) events.APIGatewayProxyResponse {
	slots, err := h.svc.ListAvailableSlots(ctx, room, date)
	if err != nil {
		return failure("Failed to retrieve available slots", err)
	}
	return respond(http.StatusOK, slots)
}

func (h *Handler) bookSlot(ctx context.Context, room, body string) events.APIGatewayProxyResponse {
	var req service.BookingRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return respond(http.StatusBadRequest, message{"Invalid request body"})
	}

	if _, err := h.svc.Book(ctx, room, req); err != nil {
		return failure("Failed to book slot", err)
	}
	// No BookingID or token in the response: the token reaches the booker
	// only through the confirmation email.
	return respond(http.StatusOK, message{"Booking successful"})
}

func (h *Handler) cancelBooking(ctx context.Context, token string) events.APIGatewayProxyResponse {
	if token == "" {
		return respond(http.StatusNotFound, message{"Booking not found"})
	}

	if err := h.svc.Cancel(ctx, token); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return respond(http.StatusNotFound, message{"Booking not found"})
		}
		return failure("Failed to cancel booking", err)
	}
	return respond(http.StatusOK, message{"Booking cancelled"})
}

type message struct {
	Message string `json:"message"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func failure(msg string, err error) events.APIGatewayProxyResponse {
	if errors.Is(err, service.ErrInvalidRoom) {
		return respond(http.StatusBadRequest, message{"Invalid room name"})
	}
	log.Printf("%s: %v", msg, err)
	return respond(http.StatusInternalServerError, errorBody{Message: msg, Error: err.Error()})
}

func respond(status int, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal response body: %v", err)
		body = []byte(`{"message":"Internal server error"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Access-Control-Allow-Origin": "*",
			"Content-Type":                "application/json",
		},
		Body: string(body),
	}
}

package model

import "fmt"

// Booking is the persisted record reserving one slot for one date in one
// room. The room itself is implicit: each room stores its bookings in its
// own table, keyed by (BookingID, Date).
//
// JSON field names are PascalCase because the public API has always
// returned raw records in that shape. The cancellation token is persisted
// but never serialized: it reaches the booker only through the
// confirmation email.
type Booking struct {
	BookingID         int    `json:"BookingID" dynamodbav:"BookingID"`
	Slot              int    `json:"Slot" dynamodbav:"Slot"`
	Email             string `json:"Email" dynamodbav:"Email"`
	Date              string `json:"Date" dynamodbav:"Date"`
	CancellationToken string `json:"-" dynamodbav:"CancellationToken"`
}

// TimeRange renders the wall-clock interval a slot covers, e.g. slot 8
// with baseHour 7 is "15:00 - 16:00".
func TimeRange(slot, baseHour int) string {
	start := slot + baseHour
	return fmt.Sprintf("%02d:00 - %02d:00", start, start+1)
}

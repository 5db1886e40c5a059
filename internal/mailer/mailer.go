// Package mailer sends booking confirmation email through SES. Delivery
// is fire-and-forget: the service logs failures and moves on, it never
// retries and never unwinds a booking that already persisted.
package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/qmb/roombooking/internal/config"
	"github.com/qmb/roombooking/internal/model"
)

// Mailer sends a confirmation for a freshly created booking.
type Mailer interface {
	SendConfirmation(ctx context.Context, booking model.Booking) error
}

// SESAPI is the subset of the SES v2 client the mailer uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESMailer struct {
	client SESAPI
	cfg    *config.Config
}

func NewSESMailer(client SESAPI, cfg *config.Config) *SESMailer {
	return &SESMailer{client: client, cfg: cfg}
}

func (m *SESMailer) SendConfirmation(ctx context.Context, booking model.Booking) error {
	ctx, seg := xray.BeginSubsegment(ctx, "SESMailer.SendConfirmation")
	if seg != nil {
		defer seg.Close(nil)
	}

	subject, body := ComposeConfirmation(booking, m.cfg.BaseHour, m.cfg.CancelBaseURL)

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.cfg.SenderAddress),
		Destination: &types.Destination{
			ToAddresses: []string{booking.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		if seg != nil {
			seg.Close(err)
		}
		return fmt.Errorf("failed to send confirmation to %s: %w", booking.Email, err)
	}

	return nil
}

// ComposeConfirmation builds the confirmation subject and plain-text body:
// the booked date, the wall-clock range of the slot, and the cancellation
// link carrying the token.
func ComposeConfirmation(booking model.Booking, baseHour int, cancelBaseURL string) (subject, body string) {
	subject = "Your room booking confirmation"
	body = fmt.Sprintf(
		"Your booking is confirmed.\n\nDate: %s\nTime: %s\n\nTo cancel this booking, open the link below:\n%s?token=%s\n",
		booking.Date,
		model.TimeRange(booking.Slot, baseHour),
		cancelBaseURL,
		booking.CancellationToken,
	)
	return subject, body
}

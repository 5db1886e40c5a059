package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/qmb/roombooking/internal/config"
	"github.com/qmb/roombooking/internal/model"
)

// TokenIndexName is the GSI on each room table keyed by CancellationToken.
const TokenIndexName = "CancellationTokenIndex"

// ErrBookingNotFound is returned when no booking matches a lookup. It is
// an expected outcome, not an infrastructure failure.
var ErrBookingNotFound = errors.New("booking not found")

// DynamoDBAPI is the subset of the DynamoDB client the repository uses.
type DynamoDBAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type BookingRepository interface {
	Scan(ctx context.Context, room string, date string) ([]model.Booking, error)
	FindByToken(ctx context.Context, token string) (*model.Booking, string, error)
	Insert(ctx context.Context, room string, booking model.Booking) error
	Delete(ctx context.Context, room string, bookingID int, date string) error
}

type BookingRepositoryImpl struct {
	client DynamoDBAPI
	cfg    *config.Config
}

func NewBookingRepository(client DynamoDBAPI, cfg *config.Config) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{client: client, cfg: cfg}
}

// Scan returns every booking stored for the room, restricted to one date
// when date is non-empty. The table is small enough that a full scan is
// the intended access pattern; pagination is still honored.
func (r *BookingRepositoryImpl) Scan(ctx context.Context, room string, date string) ([]model.Booking, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingRepository.Scan")
	if seg != nil {
		defer seg.Close(nil)
	}

	table, err := r.tableFor(room)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(table),
	}
	if date != "" {
		input.FilterExpression = aws.String("#d = :date")
		input.ExpressionAttributeNames = map[string]string{"#d": "Date"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":date": &types.AttributeValueMemberS{Value: date},
		}
	}

	var bookings []model.Booking
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			if seg != nil {
				seg.Close(err)
			}
			return nil, fmt.Errorf("failed to scan table %s: %w", table, err)
		}

		var page []model.Booking
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			if seg != nil {
				seg.Close(err)
			}
			return nil, fmt.Errorf("failed to unmarshal bookings from table %s: %w", table, err)
		}
		bookings = append(bookings, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	return bookings, nil
}

// FindByToken looks the token up in every configured room table, in
// sorted room order, via the token GSI. The token carries no room hint,
// so the fan-out is inherent. Returns the matched booking and the room it
// lives in, or ErrBookingNotFound.
func (r *BookingRepositoryImpl) FindByToken(ctx context.Context, token string) (*model.Booking, string, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingRepository.FindByToken")
	if seg != nil {
		defer seg.Close(nil)
	}

	for _, room := range r.cfg.RoomNames() {
		table := r.cfg.Rooms[room].Table

		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(table),
			IndexName:              aws.String(TokenIndexName),
			KeyConditionExpression: aws.String("CancellationToken = :token"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":token": &types.AttributeValueMemberS{Value: token},
			},
			Limit: aws.Int32(1),
		})
		if err != nil {
			if seg != nil {
				seg.Close(err)
			}
			return nil, "", fmt.Errorf("failed to query token index of table %s: %w", table, err)
		}
		if len(out.Items) == 0 {
			continue
		}

		var booking model.Booking
		if err := attributevalue.UnmarshalMap(out.Items[0], &booking); err != nil {
			if seg != nil {
				seg.Close(err)
			}
			return nil, "", fmt.Errorf("failed to unmarshal booking from table %s: %w", table, err)
		}
		return &booking, room, nil
	}

	return nil, "", ErrBookingNotFound
}

// Insert writes a new booking record. There is no conditional expression:
// slot exclusivity is advisory and enforced nowhere, and two writers can
// race to the same BookingID. Both gaps are long-standing, accepted
// behavior of this system.
func (r *BookingRepositoryImpl) Insert(ctx context.Context, room string, booking model.Booking) error {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingRepository.Insert")
	if seg != nil {
		defer seg.Close(nil)
	}

	table, err := r.tableFor(room)
	if err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(booking)
	if err != nil {
		if seg != nil {
			seg.Close(err)
		}
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	}); err != nil {
		if seg != nil {
			seg.Close(err)
		}
		return fmt.Errorf("failed to put booking into table %s: %w", table, err)
	}

	return nil
}

// Delete removes the record with the composite key (bookingID, date).
// Deleting a key that does not exist succeeds; cancellation stays
// idempotent from the caller's point of view.
func (r *BookingRepositoryImpl) Delete(ctx context.Context, room string, bookingID int, date string) error {
	ctx, seg := xray.BeginSubsegment(ctx, "BookingRepository.Delete")
	if seg != nil {
		defer seg.Close(nil)
	}

	table, err := r.tableFor(room)
	if err != nil {
		return err
	}

	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"BookingID": &types.AttributeValueMemberN{Value: strconv.Itoa(bookingID)},
			"Date":      &types.AttributeValueMemberS{Value: date},
		},
	}); err != nil {
		if seg != nil {
			seg.Close(err)
		}
		return fmt.Errorf("failed to delete booking %d from table %s: %w", bookingID, table, err)
	}

	return nil
}

func (r *BookingRepositoryImpl) tableFor(room string) (string, error) {
	rc, ok := r.cfg.Rooms[room]
	if !ok {
		return "", fmt.Errorf("no table configured for room %s", room)
	}
	return rc.Table, nil
}

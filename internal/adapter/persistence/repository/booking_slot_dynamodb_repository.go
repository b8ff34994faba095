package repository

import (
	"context"
	"strconv"

	"mojster_trust/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultBookingSlotsTableName = "booking_slots"

// BookingSlotDynamoRepository reserves calendar capacity in DynamoDB.
//
// Table requirements:
//   - PK: slot_key (string, craftworker_id#date#time)
//
// TryReserve is a single conditional ADD: the reservation counter and the cap
// check happen in one write, so two requests racing for the last place cannot
// both win.

type BookingSlotDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IBookingSlotRepository = (*BookingSlotDynamoRepository)(nil)

func NewBookingSlotDynamoRepository(ddb *dynamodb.Client) *BookingSlotDynamoRepository {
	return &BookingSlotDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("BOOKING_SLOTS_TABLE", defaultBookingSlotsTableName),
	}
}

func (r *BookingSlotDynamoRepository) TryReserve(ctx context.Context, craftworkerID, date, timeOfDay string, cap int) (bool, error) {
	slotKey := craftworkerID + "#" + date + "#" + timeOfDay

	_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"slot_key": &types.AttributeValueMemberS{Value: slotKey},
		},
		ConditionExpression: aws.String("attribute_not_exists(#reserved) OR #reserved < :cap"),
		UpdateExpression:    aws.String("ADD #reserved :one"),
		ExpressionAttributeNames: map[string]string{
			"#reserved": "reserved",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cap": &types.AttributeValueMemberN{Value: strconv.Itoa(cap)},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			// Slot already at capacity; not an error.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

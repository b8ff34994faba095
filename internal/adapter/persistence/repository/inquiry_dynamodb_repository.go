package repository

import (
	"context"
	"time"

	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultInquiriesTableName = "inquiries"

type inquiryItem struct {
	ID        string `dynamodbav:"id"`
	OwnerID   string `dynamodbav:"owner_id"`
	Category  string `dynamodbav:"category"`
	Location  string `dynamodbav:"location,omitempty"`
	Status    string `dynamodbav:"status"`
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// InquiryDynamoRepository persists Inquiry entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)

type InquiryDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IInquiryRepository = (*InquiryDynamoRepository)(nil)

func NewInquiryDynamoRepository(ddb *dynamodb.Client) *InquiryDynamoRepository {
	return &InquiryDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("INQUIRIES_TABLE", defaultInquiriesTableName),
	}
}

func (r *InquiryDynamoRepository) Create(ctx context.Context, inq entities.Inquiry) (entities.Inquiry, error) {
	av, err := attributevalue.MarshalMap(toInquiryItem(inq))
	if err != nil {
		return entities.Inquiry{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Inquiry{}, err
	}
	return inq, nil
}

func (r *InquiryDynamoRepository) GetByID(ctx context.Context, id string) (entities.Inquiry, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Inquiry{}, err
	}
	if len(out.Item) == 0 {
		return entities.Inquiry{}, nil
	}

	var it inquiryItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Inquiry{}, err
	}
	return fromInquiryItem(it), nil
}

// UpdateStatus is a conditional write on the expected current status. A lost
// race surfaces as entities.ErrConcurrencyConflict, never a silent overwrite.
func (r *InquiryDynamoRepository) UpdateStatus(ctx context.Context, id string, expected, next entities.InquiryStatus) (entities.Inquiry, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(#id) AND #status = :expected"),
		UpdateExpression:    aws.String("SET #status = :next, #updated_at = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#id":         "id",
			"#status":     "status",
			"#updated_at": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected":   &types.AttributeValueMemberS{Value: string(expected)},
			":next":       &types.AttributeValueMemberS{Value: string(next)},
			":updated_at": &types.AttributeValueMemberS{Value: formatTime(time.Now())},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return entities.Inquiry{}, entities.ErrConcurrencyConflict
		}
		return entities.Inquiry{}, err
	}

	var it inquiryItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Inquiry{}, err
	}
	return fromInquiryItem(it), nil
}

func toInquiryItem(inq entities.Inquiry) inquiryItem {
	return inquiryItem{
		ID:        inq.ID,
		OwnerID:   inq.OwnerID,
		Category:  inq.Category,
		Location:  inq.Location,
		Status:    string(inq.Status),
		CreatedAt: formatTime(inq.CreatedAt),
		UpdatedAt: formatTime(inq.UpdatedAt),
	}
}

func fromInquiryItem(it inquiryItem) entities.Inquiry {
	return entities.Inquiry{
		ID:        it.ID,
		OwnerID:   it.OwnerID,
		Category:  it.Category,
		Location:  it.Location,
		Status:    entities.InquiryStatus(it.Status),
		CreatedAt: parseTime(it.CreatedAt),
		UpdatedAt: parseTime(it.UpdatedAt),
	}
}

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

const (
	defaultOffersTableName = "offers"
	offersInquiryIDIndex   = "inquiry_id-index"
)

type offerItem struct {
	ID            string `dynamodbav:"id"`
	InquiryID     string `dynamodbav:"inquiry_id"`
	CraftworkerID string `dynamodbav:"craftworker_id"`
	PriceEstimate int64  `dynamodbav:"price_estimate"`
	Tier          string `dynamodbav:"tier"`
	Status        string `dynamodbav:"status"`
	CreatedAt     string `dynamodbav:"created_at"`
	UpdatedAt     string `dynamodbav:"updated_at"`
}

// OfferDynamoRepository persists Offer entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: inquiry_id-index (PK: inquiry_id)

type OfferDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IOfferRepository = (*OfferDynamoRepository)(nil)

func NewOfferDynamoRepository(ddb *dynamodb.Client) *OfferDynamoRepository {
	return &OfferDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("OFFERS_TABLE", defaultOffersTableName),
	}
}

func (r *OfferDynamoRepository) Create(ctx context.Context, o entities.Offer) (entities.Offer, error) {
	av, err := attributevalue.MarshalMap(toOfferItem(o))
	if err != nil {
		return entities.Offer{}, err
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
		return entities.Offer{}, err
	}
	return o, nil
}

func (r *OfferDynamoRepository) GetByID(ctx context.Context, id string) (entities.Offer, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Offer{}, err
	}
	if len(out.Item) == 0 {
		return entities.Offer{}, nil
	}

	var it offerItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Offer{}, err
	}
	return fromOfferItem(it), nil
}

func (r *OfferDynamoRepository) ListByInquiryID(ctx context.Context, inquiryID string) ([]entities.Offer, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(offersInquiryIDIndex),
		KeyConditionExpression: aws.String("inquiry_id = :iid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":iid": &types.AttributeValueMemberS{Value: inquiryID},
		},
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.Offer, 0, len(out.Items))
	for _, raw := range out.Items {
		var it offerItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromOfferItem(it))
	}
	return items, nil
}

// UpdateStatus is a conditional write on the expected current status; see
// InquiryDynamoRepository.UpdateStatus.
func (r *OfferDynamoRepository) UpdateStatus(ctx context.Context, id string, expected, next entities.OfferStatus) (entities.Offer, error) {
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
			return entities.Offer{}, entities.ErrConcurrencyConflict
		}
		return entities.Offer{}, err
	}

	var it offerItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Offer{}, err
	}
	return fromOfferItem(it), nil
}

func toOfferItem(o entities.Offer) offerItem {
	return offerItem{
		ID:            o.ID,
		InquiryID:     o.InquiryID,
		CraftworkerID: o.CraftworkerID,
		PriceEstimate: o.PriceEstimate,
		Tier:          o.Tier,
		Status:        string(o.Status),
		CreatedAt:     formatTime(o.CreatedAt),
		UpdatedAt:     formatTime(o.UpdatedAt),
	}
}

func fromOfferItem(it offerItem) entities.Offer {
	return entities.Offer{
		ID:            it.ID,
		InquiryID:     it.InquiryID,
		CraftworkerID: it.CraftworkerID,
		PriceEstimate: it.PriceEstimate,
		Tier:          it.Tier,
		Status:        entities.OfferStatus(it.Status),
		CreatedAt:     parseTime(it.CreatedAt),
		UpdatedAt:     parseTime(it.UpdatedAt),
	}
}

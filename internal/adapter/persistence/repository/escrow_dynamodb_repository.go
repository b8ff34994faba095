package repository

import (
	"context"
	"fmt"
	"time"

	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultEscrowTableName = "escrow_transactions"
	escrowOfferIDIndex     = "offer_id-index"
)

type escrowItem struct {
	ID               string `dynamodbav:"id"`
	OfferID          string `dynamodbav:"offer_id"`
	GrossAmount      int64  `dynamodbav:"gross_amount"`
	CommissionRateBP int64  `dynamodbav:"commission_rate_bp"`
	PlatformFee      int64  `dynamodbav:"platform_fee"`
	PayoutAmount     int64  `dynamodbav:"payout_amount"`
	Status           string `dynamodbav:"status"`
	GatewayRef       string `dynamodbav:"gateway_ref,omitempty"`
	RefundRef        string `dynamodbav:"refund_ref,omitempty"`
	DisputeReason    string `dynamodbav:"dispute_reason,omitempty"`
	CreatedAt        string `dynamodbav:"created_at"`
	UpdatedAt        string `dynamodbav:"updated_at"`
	PaidAt           string `dynamodbav:"paid_at,omitempty"`
	DisputedAt       string `dynamodbav:"disputed_at,omitempty"`
	ReleasedAt       string `dynamodbav:"released_at,omitempty"`
	RefundedAt       string `dynamodbav:"refunded_at,omitempty"`
}

// EscrowDynamoRepository persists EscrowTransaction entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: offer_id-index (PK: offer_id)
//
// The offer_id GSI backs the one-transaction-per-offer idempotency lookup.

type EscrowDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IEscrowTransactionRepository = (*EscrowDynamoRepository)(nil)

func NewEscrowDynamoRepository(ddb *dynamodb.Client) *EscrowDynamoRepository {
	return &EscrowDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("ESCROW_TABLE", defaultEscrowTableName),
	}
}

func (r *EscrowDynamoRepository) Create(ctx context.Context, tx entities.EscrowTransaction) (entities.EscrowTransaction, error) {
	av, err := attributevalue.MarshalMap(toEscrowItem(tx))
	if err != nil {
		return entities.EscrowTransaction{}, err
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
		if isConditionalCheckFailed(err) {
			return entities.EscrowTransaction{}, entities.ErrConcurrencyConflict
		}
		return entities.EscrowTransaction{}, err
	}
	return tx, nil
}

func (r *EscrowDynamoRepository) GetByID(ctx context.Context, id string) (entities.EscrowTransaction, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.EscrowTransaction{}, err
	}
	if len(out.Item) == 0 {
		return entities.EscrowTransaction{}, nil
	}

	var it escrowItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.EscrowTransaction{}, err
	}
	return fromEscrowItem(it), nil
}

func (r *EscrowDynamoRepository) GetByOfferID(ctx context.Context, offerID string) (entities.EscrowTransaction, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(escrowOfferIDIndex),
		KeyConditionExpression: aws.String("offer_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: offerID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.EscrowTransaction{}, err
	}
	if len(out.Items) == 0 {
		return entities.EscrowTransaction{}, nil
	}

	var it escrowItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.EscrowTransaction{}, err
	}
	return fromEscrowItem(it), nil
}

// UpdateStatus moves the transaction to next only if it still holds expected,
// writing any extra fields (gateway reference, timestamps, dispute reason) in
// the same conditional update so status and side effects cannot diverge.
func (r *EscrowDynamoRepository) UpdateStatus(ctx context.Context, id string, expected, next entities.EscrowStatus, fields map[string]string) (entities.EscrowTransaction, error) {
	expr := "SET #status = :next, #updated_at = :updated_at"
	names := map[string]string{
		"#status":     "status",
		"#updated_at": "updated_at",
	}
	values := map[string]types.AttributeValue{
		":expected":   &types.AttributeValueMemberS{Value: string(expected)},
		":next":       &types.AttributeValueMemberS{Value: string(next)},
		":updated_at": &types.AttributeValueMemberS{Value: formatTime(time.Now())},
	}

	i := 0
	for attr, val := range fields {
		name := fmt.Sprintf("#f%d", i)
		placeholder := fmt.Sprintf(":v%d", i)
		expr += fmt.Sprintf(", %s = %s", name, placeholder)
		names[name] = attr
		values[placeholder] = &types.AttributeValueMemberS{Value: val}
		i++
	}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       aws.String("attribute_exists(#id) AND #status = :expected"),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  mergeNames(names, map[string]string{"#id": "id"}),
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return entities.EscrowTransaction{}, entities.ErrConcurrencyConflict
		}
		return entities.EscrowTransaction{}, err
	}

	var it escrowItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.EscrowTransaction{}, err
	}
	return fromEscrowItem(it), nil
}

func toEscrowItem(tx entities.EscrowTransaction) escrowItem {
	it := escrowItem{
		ID:               tx.ID,
		OfferID:          tx.OfferID,
		GrossAmount:      tx.GrossAmount,
		CommissionRateBP: tx.CommissionRateBP,
		PlatformFee:      tx.PlatformFee,
		PayoutAmount:     tx.PayoutAmount,
		Status:           string(tx.Status),
		GatewayRef:       tx.GatewayRef,
		RefundRef:        tx.RefundRef,
		DisputeReason:    tx.DisputeReason,
		CreatedAt:        formatTime(tx.CreatedAt),
		UpdatedAt:        formatTime(tx.UpdatedAt),
	}
	if tx.PaidAt != nil {
		it.PaidAt = formatTime(*tx.PaidAt)
	}
	if tx.DisputedAt != nil {
		it.DisputedAt = formatTime(*tx.DisputedAt)
	}
	if tx.ReleasedAt != nil {
		it.ReleasedAt = formatTime(*tx.ReleasedAt)
	}
	if tx.RefundedAt != nil {
		it.RefundedAt = formatTime(*tx.RefundedAt)
	}
	return it
}

func fromEscrowItem(it escrowItem) entities.EscrowTransaction {
	return entities.EscrowTransaction{
		ID:               it.ID,
		OfferID:          it.OfferID,
		GrossAmount:      it.GrossAmount,
		CommissionRateBP: it.CommissionRateBP,
		PlatformFee:      it.PlatformFee,
		PayoutAmount:     it.PayoutAmount,
		Status:           entities.EscrowStatus(it.Status),
		GatewayRef:       it.GatewayRef,
		RefundRef:        it.RefundRef,
		DisputeReason:    it.DisputeReason,
		CreatedAt:        parseTime(it.CreatedAt),
		UpdatedAt:        parseTime(it.UpdatedAt),
		PaidAt:           parseTimePtr(it.PaidAt),
		DisputedAt:       parseTimePtr(it.DisputedAt),
		ReleasedAt:       parseTimePtr(it.ReleasedAt),
		RefundedAt:       parseTimePtr(it.RefundedAt),
	}
}

package repository

import (
	"context"
	"errors"
	"strconv"

	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultAuditLogTableName = "audit_log"
	auditAppendMaxAttempts   = 5
)

var errAuditAppendContention = errors.New("audit append retries exhausted")

type auditLogItem struct {
	EntityID   string            `dynamodbav:"entity_id"`
	Seq        int64             `dynamodbav:"seq"`
	ID         string            `dynamodbav:"id"`
	EntityType string            `dynamodbav:"entity_type"`
	FromStatus string            `dynamodbav:"from_status,omitempty"`
	ToStatus   string            `dynamodbav:"to_status"`
	ActorID    string            `dynamodbav:"actor_id,omitempty"`
	ActorRole  string            `dynamodbav:"actor_role,omitempty"`
	Metadata   map[string]string `dynamodbav:"metadata,omitempty"`
	CreatedAt  string            `dynamodbav:"created_at"`
}

// AuditLogDynamoRepository persists append-only audit entries in DynamoDB.
//
// Table requirements:
//   - PK: entity_id (string)
//   - SK: seq (number)
//
// The (entity_id, seq) key gives each entity a dense monotonic sequence and
// makes duplicate sequence numbers impossible: Append reads the current tail,
// then writes seq+1 under attribute_not_exists, retrying when a concurrent
// writer claimed the slot first.

type AuditLogDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IAuditLogRepository = (*AuditLogDynamoRepository)(nil)

func NewAuditLogDynamoRepository(ddb *dynamodb.Client) *AuditLogDynamoRepository {
	return &AuditLogDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("AUDIT_LOG_TABLE", defaultAuditLogTableName),
	}
}

func (r *AuditLogDynamoRepository) Append(ctx context.Context, e entities.AuditLogEntry) (entities.AuditLogEntry, error) {
	for attempt := 0; attempt < auditAppendMaxAttempts; attempt++ {
		tail, err := r.lastSeq(ctx, e.EntityID)
		if err != nil {
			return entities.AuditLogEntry{}, err
		}
		e.Seq = tail + 1

		av, err := attributevalue.MarshalMap(toAuditLogItem(e))
		if err != nil {
			return entities.AuditLogEntry{}, err
		}

		_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(#seq)"),
			ExpressionAttributeNames: map[string]string{
				"#seq": "seq",
			},
		})
		if err == nil {
			return e, nil
		}
		if !isConditionalCheckFailed(err) {
			return entities.AuditLogEntry{}, err
		}
		// Another writer took this seq; re-read the tail and try again.
	}
	return entities.AuditLogEntry{}, errAuditAppendContention
}

func (r *AuditLogDynamoRepository) ListForEntity(ctx context.Context, entityID string) ([]entities.AuditLogEntry, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("entity_id = :eid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": &types.AttributeValueMemberS{Value: entityID},
		},
		ScanIndexForward: aws.Bool(true),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]entities.AuditLogEntry, 0, len(out.Items))
	for _, raw := range out.Items {
		var it auditLogItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		entries = append(entries, fromAuditLogItem(it))
	}
	return entries, nil
}

func (r *AuditLogDynamoRepository) lastSeq(ctx context.Context, entityID string) (int64, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("entity_id = :eid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":eid": &types.AttributeValueMemberS{Value: entityID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, err
	}
	if len(out.Items) == 0 {
		return 0, nil
	}

	seqAttr, ok := out.Items[0]["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("audit item missing numeric seq")
	}
	return strconv.ParseInt(seqAttr.Value, 10, 64)
}

func toAuditLogItem(e entities.AuditLogEntry) auditLogItem {
	return auditLogItem{
		EntityID:   e.EntityID,
		Seq:        e.Seq,
		ID:         e.ID,
		EntityType: e.EntityType,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		Metadata:   e.Metadata,
		CreatedAt:  formatTime(e.CreatedAt),
	}
}

func fromAuditLogItem(it auditLogItem) entities.AuditLogEntry {
	return entities.AuditLogEntry{
		ID:         it.ID,
		EntityType: it.EntityType,
		EntityID:   it.EntityID,
		Seq:        it.Seq,
		FromStatus: it.FromStatus,
		ToStatus:   it.ToStatus,
		ActorID:    it.ActorID,
		ActorRole:  it.ActorRole,
		Metadata:   it.Metadata,
		CreatedAt:  parseTime(it.CreatedAt),
	}
}

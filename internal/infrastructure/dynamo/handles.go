package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-stepup/internal/domain"
)

// HandleRepo manages outstanding verification handles.
// PK user_id, SK relation: the table key enforces at most one handle per
// (user, relation). Put overwrites, last writer wins.
type HandleRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewHandleRepo(client *dynamodb.Client, tableName string) *HandleRepo {
	return &HandleRepo{client: client, tableName: tableName}
}

// Put stores a handle, replacing any prior handle for the same
// (user, relation). A code tied to the replaced handle becomes
// permanently unconsumable.
func (r *HandleRepo) Put(ctx context.Context, h *domain.VerificationHandle) error {
	item, err := attributevalue.MarshalMap(h)
	if err != nil {
		return fmt.Errorf("marshal handle: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storeErr("put handle", err)
	}
	return nil
}

func (r *HandleRepo) Get(ctx context.Context, userID, relation string) (*domain.VerificationHandle, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            compositeKey("user_id", userID, "relation", relation),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storeErr("get handle", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("relation %s: %w", relation, domain.ErrNoPendingVerification)
	}
	var h domain.VerificationHandle
	if err := attributevalue.UnmarshalMap(out.Item, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ConsumeIfMatch deletes the handle only if it still carries the given
// request id. The conditional delete makes consumption linearizable:
// of two callers racing on the same handle, exactly one succeeds and the
// other gets ErrNoPendingVerification.
func (r *HandleRepo) ConsumeIfMatch(ctx context.Context, userID, relation, requestID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("user_id", userID, "relation", relation),
		ConditionExpression:       aws.String("request_id = :rid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":rid": &types.AttributeValueMemberS{Value: requestID}},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("handle already consumed or replaced: %w", domain.ErrNoPendingVerification)
		}
		return storeErr("consume handle", err)
	}
	return nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

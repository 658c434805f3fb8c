package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-employee-api/internal/domain"
	"github.com/samber/oops"
)

type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type sessionItem struct {
	PK        string `dynamodbav:"pk"`
	Token     string `dynamodbav:"token,omitempty"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// SessionRegistry keeps live tokens and revocation markers in a single table.
// DynamoDB deletes expired items lazily, so reads compare expires_at themselves.
type SessionRegistry struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

func NewSessionRegistry(client dynamoAPI, tableName string, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{client: client, tableName: tableName, ttl: ttl, now: time.Now}
}

func (r *SessionRegistry) Activate(ctx context.Context, employeeID int64, token string) error {
	ue, err := buildUpdateExpr(map[string]any{
		fieldToken:     token,
		fieldExpiresAt: r.expiry(),
	})
	if err != nil {
		return unavailable("activate", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldPK, activeKey(employeeID)),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return unavailable("activate", err)
	}
	return nil
}

// Revoke blacklists token and clears the live entry when it still points at token.
func (r *SessionRegistry) Revoke(ctx context.Context, token string, employeeID int64) error {
	item, err := attributevalue.MarshalMap(sessionItem{PK: blacklistPrefix + token, ExpiresAt: r.expiry()})
	if err != nil {
		return unavailable("revoke", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}); err != nil {
		return unavailable("revoke", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldPK, activeKey(employeeID)),
		ConditionExpression:      aws.String("#t = :tok"),
		ExpressionAttributeNames: map[string]string{"#t": fieldToken},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tok": &types.AttributeValueMemberS{Value: token},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if err != nil && !errors.As(err, &ccf) {
		return unavailable("revoke", err)
	}
	return nil
}

func (r *SessionRegistry) Deactivate(ctx context.Context, employeeID int64) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldPK, activeKey(employeeID)),
	})
	if err != nil {
		return unavailable("deactivate", err)
	}
	return nil
}

func (r *SessionRegistry) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	item, err := r.get(ctx, blacklistPrefix+token)
	if err != nil {
		return false, unavailable("is_blacklisted", err)
	}
	return item != nil, nil
}

func (r *SessionRegistry) IsActive(ctx context.Context, employeeID int64, token string) (bool, error) {
	item, err := r.get(ctx, activeKey(employeeID))
	if err != nil {
		return false, unavailable("is_active", err)
	}
	return item != nil && item.Token == token, nil
}

func (r *SessionRegistry) Ping(ctx context.Context) error {
	if _, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	}); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// get returns nil when the item is absent or past its expiry.
func (r *SessionRegistry) get(ctx context.Context, pk string) (*sessionItem, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldPK, pk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var item sessionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal session item: %w", err)
	}
	if item.ExpiresAt <= r.now().Unix() {
		return nil, nil
	}
	return &item, nil
}

func (r *SessionRegistry) expiry() int64 {
	return r.now().Add(r.ttl).Unix()
}

func activeKey(employeeID int64) string {
	return activePrefix + strconv.FormatInt(employeeID, 10)
}

func unavailable(operation string, err error) error {
	return oops.Code("SESSION_STORE_FAILED").
		With("backend", "dynamodb").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", domain.ErrSessionStoreUnavailable, err))
}

var _ domain.SessionRegistry = (*SessionRegistry)(nil)

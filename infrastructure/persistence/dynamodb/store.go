package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// Client is the subset of the DynamoDB API the store uses
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Indexes names the secondary indexes of the table
type Indexes struct {
	ForkNode string // CollectionPK / ForkNode
	Depth    string // CollectionPK / Depth
	Parent   string // ParentPK / ParentSK
	Title    string // TitlePK / Title
	Object   string // Object / SK
}

// DefaultIndexes returns the index names the table is provisioned with
func DefaultIndexes() Indexes {
	return Indexes{
		ForkNode: "ForkNodeIndex",
		Depth:    "DepthIndex",
		Parent:   "ParentIndex",
		Title:    "TitleIndex",
		Object:   "ObjectIndex",
	}
}

// Store implements ports.Store on a single DynamoDB table
type Store struct {
	client    Client
	tableName string
	indexes   Indexes
	logger    *zap.Logger
}

var _ ports.Store = (*Store)(nil)

// NewStore creates a new DynamoDB backed store
func NewStore(client Client, tableName string, indexes Indexes, logger *zap.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		indexes:   indexes,
		logger:    logger,
	}
}

func (s *Store) Timelines() ports.TimelineRepository       { return &timelineRepository{s} }
func (s *Store) Exhibits() ports.ExhibitRepository         { return &exhibitRepository{s} }
func (s *Store) ContentItems() ports.ContentItemRepository { return &contentItemRepository{s} }
func (s *Store) Bitmasks() ports.BitmaskRepository         { return &bitmaskRepository{s} }
func (s *Store) Triples() ports.TripleRepository           { return &tripleRepository{s} }
func (s *Store) Collections() ports.CollectionRepository   { return &collectionRepository{s} }

// Number is a decimal stored as a DynamoDB number
type Number struct {
	decimal.Decimal
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler
func (n Number) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: n.Decimal.String()}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler
func (n *Number) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	num, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return fmt.Errorf("expected number attribute, got %T", av)
	}
	d, err := decimal.NewFromString(num.Value)
	if err != nil {
		return err
	}
	n.Decimal = d
	return nil
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// getItem loads one item into out, returning NOT_FOUND when it is absent
func (s *Store) getItem(ctx context.Context, pk, sk, resource string, out interface{}) error {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(pk, sk),
	})
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", resource, err)
	}
	if result.Item == nil {
		return pkgerrors.NewNotFoundError(resource)
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", resource, err)
	}
	return nil
}

func (s *Store) putItem(ctx context.Context, item interface{}, resource string) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", resource, err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		s.logger.Error("Failed to put item", zap.String("resource", resource), zap.Error(err))
		return fmt.Errorf("failed to save %s: %w", resource, err)
	}
	return nil
}

// deleteItem removes one item, returning NOT_FOUND when it did not exist
func (s *Store) deleteItem(ctx context.Context, pk, sk, resource string) error {
	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       key(pk, sk),
		ConditionExpression:       cond.Condition(),
		ExpressionAttributeNames:  cond.Names(),
		ExpressionAttributeValues: cond.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewNotFoundError(resource)
		}
		return fmt.Errorf("failed to delete %s: %w", resource, err)
	}
	return nil
}

// query runs a query across all pages and unmarshals every item into out,
// which must point to a slice
func (s *Store) query(ctx context.Context, index string, kc expression.KeyConditionBuilder, filter *expression.ConditionBuilder, out interface{}) error {
	builder := expression.NewBuilder().WithKeyCondition(kc)
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to query: %w", err)
		}
		items = append(items, page.Items...)
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal query results: %w", err)
	}
	return nil
}

// queryFirst returns the first item of a single page query
func (s *Store) queryFirst(ctx context.Context, index string, kc expression.KeyConditionBuilder, resource string, out interface{}) error {
	expr, err := expression.NewBuilder().WithKeyCondition(kc).Build()
	if err != nil {
		return fmt.Errorf("failed to build query expression: %w", err)
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", resource, err)
	}
	if len(result.Items) == 0 {
		return pkgerrors.NewNotFoundError(resource)
	}
	if err := attributevalue.UnmarshalMap(result.Items[0], out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", resource, err)
	}
	return nil
}

// batchWrite puts items in chunks of 25, resubmitting unprocessed requests
func (s *Store) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	const maxBatch = 25

	for start := 0; start < len(requests); start += maxBatch {
		end := start + maxBatch
		if end > len(requests) {
			end = len(requests)
		}

		pending := map[string][]types.WriteRequest{s.tableName: requests[start:end]}
		for len(pending) > 0 {
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("failed to batch write: %w", err)
			}
			pending = out.UnprocessedItems
			if len(pending) > 0 {
				s.logger.Debug("Resubmitting unprocessed batch items",
					zap.Int("count", len(pending[s.tableName])))
			}
		}
	}
	return nil
}

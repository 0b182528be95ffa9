package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoRegistry.
type DynamoAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoRegistry keeps device records in a DynamoDB table keyed by DeviceId.
type DynamoRegistry struct {
	api   DynamoAPI
	table string
}

// NewDynamoRegistry wraps an existing client (or a fake of one).
func NewDynamoRegistry(api DynamoAPI, table string) *DynamoRegistry {
	return &DynamoRegistry{api: api, table: table}
}

// NewDynamoRegistryFromConfig builds the DynamoDB client from an AWS config.
// A non-empty endpoint overrides the service endpoint (DynamoDB Local).
func NewDynamoRegistryFromConfig(cfg aws.Config, table, endpoint string) *DynamoRegistry {
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewDynamoRegistry(client, table)
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (r *DynamoRegistry) Close() {}

// ListDevices scans the whole table.
func (r *DynamoRegistry) ListDevices(ctx context.Context) ([]Item, error) {
	p := dynamodb.NewScanPaginator(r.api, &dynamodb.ScanInput{TableName: aws.String(r.table)})

	items := make([]Item, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		for _, raw := range page.Items {
			item, err := decodeAttributes(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// GetDevice returns one record or ErrNotFound.
func (r *DynamoRegistry) GetDevice(ctx context.Context, id string) (Item, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       deviceKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get device %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return decodeAttributes(out.Item)
}

// PutDevice creates or replaces a record. The item must carry a string DeviceId.
func (r *DynamoRegistry) PutDevice(ctx context.Context, item Item) error {
	if item.ID() == "" {
		return errors.New("device record has no DeviceId")
	}
	av, err := attributevalue.MarshalMap(toAttributeNumbers(item))
	if err != nil {
		return fmt.Errorf("marshal device %s: %w", item.ID(), err)
	}
	if _, err := r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put device %s: %w", item.ID(), err)
	}
	return nil
}

// DeleteDevice removes a record. Deleting a missing record is not an error.
func (r *DynamoRegistry) DeleteDevice(ctx context.Context, id string) error {
	if _, err := r.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       deviceKey(id),
	}); err != nil {
		return fmt.Errorf("delete device %s: %w", id, err)
	}
	return nil
}

func deviceKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		KeyAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

func decodeAttributes(raw map[string]types.AttributeValue) (Item, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMapWithOptions(raw, &m, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	}); err != nil {
		return nil, fmt.Errorf("decode device record: %w", err)
	}
	return Item(Normalize(m).(map[string]any)), nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stwalsh4118/permits/api/internal/models"
)

// DynamoDBAPI is the subset of the DynamoDB client the check repository uses.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// checkItem is the DynamoDB item layout for a compliance check.
type checkItem struct {
	ID            string `dynamodbav:"id"`
	PropertyID    int64  `dynamodbav:"property_id"`
	PermitTypeID  int64  `dynamodbav:"permit_type_id"`
	Level         string `dynamodbav:"compliance_level"`
	OverallStatus string `dynamodbav:"overall_status"`
	Report        string `dynamodbav:"report"`
	CreatedAt     string `dynamodbav:"created_at"`
}

// DynamoDBCheckRepository writes compliance history to a DynamoDB table
// keyed by the string attribute "id".
type DynamoDBCheckRepository struct {
	client    DynamoDBAPI
	tableName string
	// scanPageSize caps the items read per Scan call; zero leaves it to DynamoDB.
	scanPageSize int32
}

// NewDynamoDBCheckRepository creates a repository on an existing client.
func NewDynamoDBCheckRepository(client DynamoDBAPI, tableName string) *DynamoDBCheckRepository {
	return &DynamoDBCheckRepository{
		client:    client,
		tableName: tableName,
	}
}

// NewDynamoDBClient loads the default AWS credential chain for region. A
// non-empty endpoint replaces the regional AWS endpoint.
func NewDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (r *DynamoDBCheckRepository) Append(ctx context.Context, rec *models.ComplianceCheckRecord) error {
	item, err := attributevalue.MarshalMap(checkItem{
		ID:            rec.ID.String(),
		PropertyID:    rec.PropertyID,
		PermitTypeID:  rec.PermitTypeID,
		Level:         string(rec.Level),
		OverallStatus: string(rec.OverallStatus),
		Report:        string(rec.Report),
		CreatedAt:     rec.CreatedAt.UTC().Format(recordTimeLayout),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal compliance check: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var ccf *dynamodbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: %s", ErrDuplicateCheck, rec.ID)
		}
		return fmt.Errorf("failed to save compliance check to DynamoDB: %w", err)
	}
	return nil
}

func (r *DynamoDBCheckRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ComplianceCheckRecord, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"id": &dynamodbtypes.AttributeValueMemberS{Value: id.String()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance check: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item checkItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal compliance check: %w", err)
	}
	return item.record()
}

// ListByProperty scans with a filter on property_id and sorts client side.
// Check history tables are small enough that a secondary index is not needed.
func (r *DynamoDBCheckRepository) ListByProperty(ctx context.Context, propertyID int64, limit int) ([]models.ComplianceCheckRecord, error) {
	records := []models.ComplianceCheckRecord{}
	var lastEvaluatedKey map[string]dynamodbtypes.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("property_id = :pid"),
			ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
				":pid": &dynamodbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", propertyID)},
			},
		}
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}
		if r.scanPageSize > 0 {
			input.Limit = aws.Int32(r.scanPageSize)
		}

		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance checks: %w", err)
		}

		for _, raw := range result.Items {
			var item checkItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal compliance check: %w", err)
			}
			rec, err := item.record()
			if err != nil {
				return nil, err
			}
			records = append(records, *rec)
		}

		lastEvaluatedKey = result.LastEvaluatedKey
		if len(lastEvaluatedKey) == 0 {
			break
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (it checkItem) record() (*models.ComplianceCheckRecord, error) {
	id, err := uuid.Parse(it.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid check id %q: %w", it.ID, err)
	}
	createdAt, err := time.Parse(recordTimeLayout, it.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", it.CreatedAt, err)
	}
	return &models.ComplianceCheckRecord{
		ID:            id,
		PropertyID:    it.PropertyID,
		PermitTypeID:  it.PermitTypeID,
		Level:         models.ComplianceLevel(it.Level),
		OverallStatus: models.OverallStatus(it.OverallStatus),
		Report:        []byte(it.Report),
		CreatedAt:     createdAt,
	}, nil
}

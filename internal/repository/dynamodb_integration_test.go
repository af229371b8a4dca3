package repository

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupLocalStackRepository creates a fresh check table in LocalStack.
func setupLocalStackRepository(t *testing.T) *DynamoDBCheckRepository {
	endpoint := localstackDynamoDBEndpoint(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	ctx := context.Background()
	client, err := NewDynamoDBClient(ctx, "us-east-1", endpoint)
	require.NoError(t, err)

	table := "compliance-checks-" + uuid.NewString()[:8]
	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []dynamodbtypes.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: dynamodbtypes.ScalarAttributeTypeS},
		},
		KeySchema: []dynamodbtypes.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: dynamodbtypes.KeyTypeHash},
		},
		BillingMode: dynamodbtypes.BillingModePayPerRequest,
	})
	require.NoError(t, err)

	waiter := dynamodb.NewTableExistsWaiter(client)
	require.NoError(t, waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, 30*time.Second))

	return NewDynamoDBCheckRepository(client, table)
}

func TestDynamoDBCheckRepository_LocalStack(t *testing.T) {
	repo := setupLocalStackRepository(t)
	repo.scanPageSize = 2
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		rec := newRecord(3, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Append(ctx, rec))
		ids = append(ids, rec.ID)
	}
	require.NoError(t, repo.Append(ctx, newRecord(4, base)))

	t.Run("conditional put rejects duplicate id", func(t *testing.T) {
		dup := newRecord(3, base)
		dup.ID = ids[0]
		assert.ErrorIs(t, repo.Append(ctx, dup), ErrDuplicateCheck)
	})

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.FindByID(ctx, ids[2])
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(3), got.PropertyID)
		assert.True(t, base.Add(2*time.Minute).Equal(got.CreatedAt))
		assert.JSONEq(t, `{"overallStatus":"APPROVED"}`, string(got.Report))

		missing, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("paged scan collects every page newest first", func(t *testing.T) {
		list, err := repo.ListByProperty(ctx, 3, 0)
		require.NoError(t, err)
		require.Len(t, list, 5)
		for i, rec := range list {
			assert.Equal(t, ids[4-i], rec.ID)
		}

		limited, err := repo.ListByProperty(ctx, 3, 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, ids[4], limited[0].ID)

		other, err := repo.ListByProperty(ctx, 4, 0)
		require.NoError(t, err)
		assert.Len(t, other, 1)
	})
}

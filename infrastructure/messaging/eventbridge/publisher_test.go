package eventbridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/events"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.PutEventsOutput)
	return out, args.Error(1)
}

func deletedEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewExhibitDeleted(uuid.New(), uuid.New(), uuid.New(), i, time.Unix(0, 0))
	}
	return out
}

func TestPublisher_BatchesByTen(t *testing.T) {
	client := new(mockClient)
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 10
	})).Return(&eventbridge.PutEventsOutput{}, nil).Twice()
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 3
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	p := NewPublisher(client, "bus", "chronozoom.timelines", zap.NewNop())
	require.NoError(t, p.PublishBatch(context.Background(), deletedEvents(23)))
	client.AssertExpectations(t)
}

func TestPublisher_EntryShape(t *testing.T) {
	client := new(mockClient)
	var captured *eventbridge.PutEventsInput
	client.On("PutEvents", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*eventbridge.PutEventsInput) }).
		Return(&eventbridge.PutEventsOutput{}, nil)

	event := deletedEvents(1)[0]
	p := NewPublisher(client, "bus", "chronozoom.timelines", zap.NewNop())
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, captured.Entries, 1)
	entry := captured.Entries[0]
	assert.Equal(t, "bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.EventTypeExhibitDeleted, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, event.GetAggregateID(), detail["aggregate_id"])
}

func TestPublisher_ReportsFailedEntries(t *testing.T) {
	client := new(mockClient)
	client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("ThrottlingException")}},
	}, nil)

	p := NewPublisher(client, "bus", "chronozoom.timelines", zap.NewNop())
	err := p.Publish(context.Background(), deletedEvents(1)[0])
	assert.EqualError(t, err, "1 events failed to publish")
}

func TestPublisher_EmptyBatchIsNoop(t *testing.T) {
	client := new(mockClient)
	p := NewPublisher(client, "bus", "chronozoom.timelines", zap.NewNop())
	assert.NoError(t, p.PublishBatch(context.Background(), nil))
	client.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
}

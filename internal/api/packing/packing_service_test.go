package packing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

type MockGenerator struct {
	mock.Mock
}

var _ Generator = (*MockGenerator)(nil)

func (m *MockGenerator) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	args := m.Called(ctx, prompt, config)
	return args.String(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleResponse = `{
  "items": [
    {"name": "T-shirts", "quantity": 5, "category": "clothing", "reason": "warm days"},
    {"name": "Passport", "quantity": 0, "category": "documents"}
  ],
  "tips": ["Roll clothes to save space"]
}`

func TestSuggestPackingList_ParsesModelOutput(t *testing.T) {
	ctx := context.Background()
	gen := new(MockGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(sampleResponse, nil).Once()

	svc := NewService(gen, time.Hour, nil, testLogger())
	list, err := svc.SuggestPackingList(ctx, types.PackingRequest{
		Destination:  "Lisbon",
		DurationDays: 5,
		Season:       "summer",
		Activities:   []string{"beach", "hiking"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", list.Destination)
	require.Len(t, list.Items, 2)
	assert.Equal(t, 5, list.Items[0].Quantity)
	// Zero quantities are bumped to a sane minimum.
	assert.Equal(t, 1, list.Items[1].Quantity)
	assert.Equal(t, []string{"Roll clothes to save space"}, list.Tips)

	// Identical request is served from the cache.
	again, err := svc.SuggestPackingList(ctx, types.PackingRequest{
		Destination:  "Lisbon",
		DurationDays: 5,
		Season:       "summer",
		Activities:   []string{"beach", "hiking"},
	})
	require.NoError(t, err)
	assert.Equal(t, list, again)
	gen.AssertExpectations(t)
}

func TestSuggestPackingList_TrimsCodeFence(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("```json\n"+sampleResponse+"\n```", nil)

	svc := NewService(gen, time.Hour, nil, testLogger())
	list, err := svc.SuggestPackingList(context.Background(), types.PackingRequest{
		Destination:  "Porto",
		DurationDays: 3,
	})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
}

func TestSuggestPackingList_ValidatesRequest(t *testing.T) {
	svc := NewService(new(MockGenerator), time.Hour, nil, testLogger())

	_, err := svc.SuggestPackingList(context.Background(), types.PackingRequest{DurationDays: 3})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.SuggestPackingList(context.Background(), types.PackingRequest{Destination: "Rome"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSuggestPackingList_UnparsableOutput(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("I cannot help with that.", nil)

	svc := NewService(gen, time.Hour, nil, testLogger())
	_, err := svc.SuggestPackingList(context.Background(), types.PackingRequest{
		Destination:  "Rome",
		DurationDays: 4,
	})
	assert.ErrorIs(t, err, ErrUnparsableResponse)
}

func TestBuildPrompt_IncludesTripContext(t *testing.T) {
	prompt := buildPrompt(types.PackingRequest{
		Destination:  "Kyoto",
		DurationDays: 7,
		Season:       "autumn",
		Activities:   []string{"temples", "hiking"},
		Notes:        "traveling light",
	})
	assert.Contains(t, prompt, "7-day trip to Kyoto")
	assert.Contains(t, prompt, "autumn")
	assert.Contains(t, prompt, "temples, hiking")
	assert.Contains(t, prompt, "traveling light")
	assert.Contains(t, prompt, `"items"`)
}

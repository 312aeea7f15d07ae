package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/phone-insight/internal/model"
	"github.com/sells-group/phone-insight/internal/store"
	"github.com/sells-group/phone-insight/pkg/anthropic"
	"github.com/sells-group/phone-insight/pkg/perplexity"
	"github.com/sells-group/phone-insight/pkg/trestle"
)

// --- Trestle Mock ---

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) CallerID(ctx context.Context, phone string) (*trestle.CallerIDResponse, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trestle.CallerIDResponse), args.Error(1)
}

// --- Researcher Mock ---

type mockResearcher struct {
	mock.Mock
	provider string
}

func (m *mockResearcher) Provider() string {
	if m.provider == "" {
		return "Perplexity"
	}
	return m.provider
}

func (m *mockResearcher) Research(ctx context.Context, prompt ResearchPrompt) (*Completion, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Completion), args.Error(1)
}

// --- Perplexity Mock ---

type mockPerplexityClient struct {
	mock.Mock
}

func (m *mockPerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, phone string) (*model.Run, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID string, result *model.CombinedResult, cost float64) error {
	args := m.Called(ctx, runID, result, cost)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- Fixtures ---

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func businessMeta(name, industry string, addrs ...trestle.Address) *trestle.CallerIDResponse {
	owner := &trestle.Owner{Type: trestle.OwnerBusiness, Name: strPtr(name)}
	if industry != "" {
		owner.Industry = strPtr(industry)
	}
	return &trestle.CallerIDResponse{
		IsCommercial:     boolPtr(true),
		BelongsTo:        owner,
		CurrentAddresses: addrs,
	}
}

func personMeta(name string, commercial bool) *trestle.CallerIDResponse {
	return &trestle.CallerIDResponse{
		IsCommercial: boolPtr(commercial),
		BelongsTo:    &trestle.Owner{Type: trestle.OwnerPerson, Name: strPtr(name)},
	}
}

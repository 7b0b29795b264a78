package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) ModelName() string            { return "test-model" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

type staticPrompts map[string]string

func (p staticPrompts) Load(name string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", errors.New("missing")
}

func (p staticPrompts) Reload() {}

func TestGenerator_Generate(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Chat", mock.Anything, mock.MatchedBy(func(msgs []driven.ChatMessage) bool {
		return len(msgs) == 2 &&
			msgs[0].Role == driven.RoleSystem && msgs[0].Content == "sys" &&
			msgs[1].Role == driven.RoleUser &&
			msgs[1].Content == "Summarise.\n\n"+ContextStart+"\npassage one\n"+ContextEnd
	}), mock.Anything).Return("  a summary \n", nil)

	g := NewGenerator(llm, staticPrompts{driven.PromptSystem: "sys"})
	out, err := g.Generate(context.Background(), "passage one", "Summarise.")

	require.NoError(t, err)
	assert.Equal(t, "a summary", out)
	assert.Equal(t, "llm:test-model", g.Name())
	llm.AssertExpectations(t)
}

func TestGenerator_NoSystemPrompt(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Chat", mock.Anything, mock.MatchedBy(func(msgs []driven.ChatMessage) bool {
		return len(msgs) == 1 && msgs[0].Role == driven.RoleUser
	}), mock.Anything).Return("ok", nil)

	out, err := NewGenerator(llm, nil).Generate(context.Background(), "p", "i")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestGenerator_Errors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"provider failure", "", errors.New("connection refused")},
		{"empty reply", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(mockLLM)
			llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return(tt.reply, tt.err)

			_, err := NewGenerator(llm, nil).Generate(context.Background(), "p", "i")
			assert.ErrorIs(t, err, domain.ErrGeneration)
		})
	}
}

func TestGenerator_ContextDeadline(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return("", context.DeadlineExceeded)

	_, err := NewGenerator(llm, nil).Generate(context.Background(), "p", "i")
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

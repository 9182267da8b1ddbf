package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"lyra-backend-go/internal/config"
)

func TestCandidateText(t *testing.T) {
	res := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello "), genai.Blob{MIMEType: "image/png"}, genai.Text("Sam")}},
	}}}
	assert.Equal(t, "Hello Sam", candidateText(res))
	assert.Empty(t, candidateText(&genai.GenerateContentResponse{}))
	assert.Empty(t, candidateText(nil))
}

func TestNewGenerator_Unconfigured(t *testing.T) {
	cfg := &config.Config{LLMProvider: config.LLMProviderOpenAI}
	g, closer, err := NewGenerator(context.Background(), cfg, zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, g)
	assert.NoError(t, closer.Close())
}

func TestNewGenerator_OpenAI(t *testing.T) {
	cfg := &config.Config{LLMProvider: config.LLMProviderOpenAI, OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o"}
	g, closer, err := NewGenerator(context.Background(), cfg, zap.NewNop())
	assert.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)
	assert.NoError(t, closer.Close())
}

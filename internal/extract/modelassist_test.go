package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/facwatch/pkg/anthropic"
)

type mockClient struct {
	createMessage func(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error)
}

func (m *mockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return m.createMessage(ctx, req)
}

func TestModelExtractor_ParsesFencedJSON(t *testing.T) {
	var gotReq anthropic.MessageRequest
	client := &mockClient{
		createMessage: func(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
			gotReq = req
			return &anthropic.MessageResponse{
				Content: []anthropic.ContentBlock{
					{Type: "text", Text: "```json\n[{\"name\": \"Jane Smith\", \"title\": \"Professor\", \"email\": \"jane@uni.edu\"}]\n```"},
				},
			}, nil
		},
	}

	e := NewModelExtractor(client, "claude-haiku-4-5-20251001", 0)
	cands, err := e.Extract(context.Background(), threeCardPage)
	require.NoError(t, err)

	require.Len(t, cands, 1)
	assert.Equal(t, "Jane Smith", cands[0].Name)
	assert.Equal(t, "Professor", cands[0].Title)
	assert.Equal(t, StrategyModel, cands[0].Strategy)
	assert.Equal(t, 95.0, cands[0].Confidence)

	assert.Equal(t, "claude-haiku-4-5-20251001", gotReq.Model)
	assert.Equal(t, int64(4096), gotReq.MaxTokens)
	require.Len(t, gotReq.System, 1)
	require.NotNil(t, gotReq.System[0].CacheControl)
}

func TestModelExtractor_StripsScriptsFromPrompt(t *testing.T) {
	page := `<html><body><script>secretFn()</script><p>Jane Smith</p></body></html>`
	client := &mockClient{
		createMessage: func(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
			require.Len(t, req.Messages, 1)
			assert.NotContains(t, req.Messages[0].Content, "secretFn")
			assert.Contains(t, req.Messages[0].Content, "Jane Smith")
			return &anthropic.MessageResponse{
				Content: []anthropic.ContentBlock{{Type: "text", Text: "[]"}},
			}, nil
		},
	}

	e := NewModelExtractor(client, "claude-haiku-4-5-20251001", 0)
	cands, err := e.Extract(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestParseModelCandidates_BareJSON(t *testing.T) {
	cands, err := parseModelCandidates(`[{"name": "Jane Smith"}, {"name": ""}]`)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Jane Smith", cands[0].Name)
}

func TestParseModelCandidates_UnfencedGarbage(t *testing.T) {
	_, err := parseModelCandidates("I could not find any people on this page.")
	assert.Error(t, err)
}

func TestCleanForModel_StripsChrome(t *testing.T) {
	page := `<html><body><nav>menu</nav><p>Jane Smith</p><footer>legal</footer></body></html>`
	cleaned, err := CleanForModel(page)
	require.NoError(t, err)
	assert.Contains(t, cleaned, "Jane Smith")
	assert.NotContains(t, cleaned, "menu")
	assert.NotContains(t, cleaned, "legal")
}

func TestCleanForModel_Truncates(t *testing.T) {
	page := "<html><body><p>" + strings.Repeat("faculty roster row ", 10_000) + "</p></body></html>"
	cleaned, err := CleanForModel(page)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(cleaned), maxModelHTMLBytes+len("\n...(truncated)"))
	assert.Contains(t, cleaned, "...(truncated)")
}

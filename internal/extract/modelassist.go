package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/model"
	"github.com/sells-group/facwatch/pkg/anthropic"
)

// modelConfidence is assigned to model-extracted candidates: above every
// heuristic, so a model pass wins field merges when it runs at all.
const modelConfidence = 95

// maxModelHTMLBytes caps the HTML sent to the API.
const maxModelHTMLBytes = 100_000

const extractSystemPrompt = `You extract people from institutional directory pages.

For each listed person, extract:
- name (required)
- title (position/rank like "Professor", "Associate Professor")
- email (if available)
- profile_url (link to their profile page, if available)
- department (if specified)
- phone (if available)
- research_interests (if available)

Return ONLY a valid JSON array, no other text. Format:
[
  {
    "name": "John Smith",
    "title": "Professor",
    "email": "jsmith@university.edu",
    "profile_url": "https://university.edu/faculty/john-smith",
    "department": "Biology",
    "phone": "555-1234",
    "research_interests": "Molecular biology"
  }
]

If a field is not available, omit it or use null.`

// ModelExtractor is the last-resort extraction tier: it sends cleaned
// page HTML to a language model. Costs real money per call, so the
// escalation layer only reaches for it when the heuristics come up
// short.
type ModelExtractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewModelExtractor creates a ModelExtractor.
func NewModelExtractor(client anthropic.Client, model string, maxTokens int64) *ModelExtractor {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &ModelExtractor{client: client, model: model, maxTokens: maxTokens}
}

func (e *ModelExtractor) Name() string { return StrategyModel }

// Extract sends one page's HTML to the model and parses the returned
// JSON array into candidates.
func (e *ModelExtractor) Extract(ctx context.Context, pageHTML string) ([]model.Candidate, error) {
	cleaned, err := CleanForModel(pageHTML)
	if err != nil {
		return nil, eris.Wrap(err, "extract: clean html")
	}

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System: []anthropic.SystemBlock{
			// The instructions repeat for every escalated page; cache them.
			{Text: extractSystemPrompt, CacheControl: &anthropic.CacheControl{TTL: "5m"}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: "HTML:\n" + cleaned},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: model call")
	}
	resp.Usage.LogCost(e.model, "extract")

	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	cands, err := parseModelCandidates(text)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("model extraction",
		zap.String("model", e.model),
		zap.Int("candidates", len(cands)))
	return cands, nil
}

// CleanForModel strips script/style/nav/footer/header blocks and caps
// the size of the HTML sent to the API.
func CleanForModel(pageHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, footer, header").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return "", err
	}
	if len(cleaned) > maxModelHTMLBytes {
		cleaned = cleaned[:maxModelHTMLBytes] + "\n...(truncated)"
	}
	return cleaned, nil
}

// parseModelCandidates decodes the model's reply, tolerating markdown
// code fences around the JSON array.
func parseModelCandidates(text string) ([]model.Candidate, error) {
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}

	var cands []model.Candidate
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &cands); err != nil {
		return nil, eris.Wrap(err, "extract: parse model reply")
	}

	out := cands[:0]
	for _, c := range cands {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		c.Strategy = StrategyModel
		c.Confidence = modelConfidence
		out = append(out, c)
	}
	return out, nil
}

package tagging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/core-companion/backend/internal/analysis/tags"
	"github.com/zhouzirui/core-companion/backend/internal/config"
	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
	"github.com/zhouzirui/core-companion/backend/internal/observability"
)

// Service derives emotion and topic labels for a finished conversation.
// It never fails: every problem degrades to a simpler strategy.
type Service struct {
	mode       config.TaggerMode
	classifier compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds a tagger for mode. The llm mode needs chatModel; without one
// it degrades to keyword tagging.
func NewService(ctx context.Context, chatModel model.BaseChatModel, mode config.TaggerMode) (*Service, error) {
	svc := &Service{mode: mode}
	if mode != config.TaggerLLM {
		return svc, nil
	}
	if chatModel == nil {
		observability.LoggerFromContext(ctx).Warn("llm tagger requested without chat model, using keyword tagger")
		svc.mode = config.TaggerKeyword
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tag classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Mode reports the strategy in effect.
func (s *Service) Mode() config.TaggerMode {
	if s == nil {
		return config.TaggerStatic
	}
	return s.mode
}

// Tags returns emotion and topic labels for the conversation.
func (s *Service) Tags(ctx context.Context, history chat.History, summary string) (emotions, topics []string) {
	switch s.Mode() {
	case config.TaggerKeyword:
		return keywordTags(history, summary)
	case config.TaggerLLM:
		return s.classify(ctx, history, summary)
	default:
		return tags.PlaceholderEmotions(), tags.PlaceholderTopics()
	}
}

func (s *Service) classify(ctx context.Context, history chat.History, summary string) ([]string, []string) {
	logger := observability.LoggerFromContext(ctx)

	input := map[string]any{
		"transcript": formatTranscript(history),
		"summary":    strings.TrimSpace(summary),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		logger.Warn("tag classifier invoke failed, using keyword tagger", "error", err)
		return keywordTags(history, summary)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return keywordTags(history, summary)
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		logger.Warn("tag classifier output parse failed, using keyword tagger", "error", err)
		return keywordTags(history, summary)
	}

	emotions := normalizeLabels(payload.Emotions, tags.MaxEmotions)
	topics := normalizeLabels(payload.Topics, tags.MaxTopics)
	if len(emotions) == 0 && len(topics) == 0 {
		return keywordTags(history, summary)
	}

	fallback := tags.AnalyzeOrPlaceholder(analysisText(history, summary))
	if len(emotions) == 0 {
		emotions = fallback.Emotions
	}
	if len(topics) == 0 {
		topics = fallback.Topics
	}
	return emotions, topics
}

func keywordTags(history chat.History, summary string) ([]string, []string) {
	result := tags.AnalyzeOrPlaceholder(analysisText(history, summary))
	return result.Emotions, result.Topics
}

// analysisText keeps to what the user said plus the summary; assistant turns
// would otherwise echo the user's words back and double every score.
func analysisText(history chat.History, summary string) string {
	return history.HumanText() + "\n" + summary
}

func formatTranscript(history chat.History) string {
	if len(history) == 0 {
		return "(empty conversation)"
	}
	return history.Transcript()
}

// parseClassifierOutput extracts the JSON object from the model reply.
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func normalizeLabels(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, limit)
	for _, raw := range in {
		label := strings.Join(strings.Fields(raw), " ")
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
		if len(out) == limit {
			break
		}
	}
	return out
}

type classifierPayload struct {
	Emotions []string `json:"emotions"`
	Topics   []string `json:"topics"`
}

const classifierSystemPrompt = "You label supportive-listening conversations. Read the transcript and the session summary, then name the emotions the user expressed and the topics they discussed.\n" +
	"Output only a JSON object with two fields: emotions (at most 3 short labels) and topics (at most 4 short labels). Each label is one emoji, a space, and one or two lowercase words, for example \"😟 anxious\" or \"💼 career\". Do not output anything else."

const classifierUserPrompt = "Transcript:\n{transcript}\n\nSession summary:\n{summary}\n\nReturn the JSON object."

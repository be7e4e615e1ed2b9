package tags

import (
	"sort"
	"strings"
)

const (
	MaxEmotions = 3
	MaxTopics   = 4
)

// Placeholder labels attached when nothing better is known.
var (
	placeholderEmotions = []string{"😓 pressured", "😌 relieved", "🤔 contemplative"}
	placeholderTopics   = []string{"💼 career", "💰 finances", "👣 progress", "🧠 self-reflection"}
)

// PlaceholderEmotions returns a fresh copy of the fixed emotion labels.
func PlaceholderEmotions() []string {
	return append([]string(nil), placeholderEmotions...)
}

// PlaceholderTopics returns a fresh copy of the fixed topic labels.
func PlaceholderTopics() []string {
	return append([]string(nil), placeholderTopics...)
}

// Result is the ranked labels found in a text.
type Result struct {
	Emotions []string
	Topics   []string
}

type bucket struct {
	label    string
	keywords []string
}

// Buckets are slices, not maps, so ties rank in declaration order.
var emotionBuckets = []bucket{
	{"😟 anxious", []string{"anxious", "anxiety", "nervous", "worried", "worry", "panic", "on edge", "uneasy", "scared", "afraid", "fear"}},
	{"😓 pressured", []string{"pressure", "pressured", "stressed", "stress", "overwhelmed", "deadline", "too much", "burden", "can't keep up"}},
	{"😢 sad", []string{"sad", "down", "depressed", "cry", "crying", "hopeless", "heartbroken", "miserable", "unhappy", "grief"}},
	{"😠 frustrated", []string{"angry", "frustrated", "annoyed", "furious", "irritated", "mad", "fed up", "unfair", "resent"}},
	{"😔 lonely", []string{"lonely", "alone", "isolated", "left out", "no one", "nobody", "disconnected"}},
	{"😴 exhausted", []string{"tired", "exhausted", "drained", "burnt out", "burned out", "burnout", "fatigue", "no energy"}},
	{"😌 relieved", []string{"relieved", "relief", "better now", "calmer", "lighter", "weight off", "finally"}},
	{"😊 hopeful", []string{"hopeful", "hope", "optimistic", "looking forward", "excited", "happy", "glad", "proud"}},
	{"🙏 grateful", []string{"grateful", "thankful", "thank you", "thanks", "appreciate", "blessed"}},
	{"🤔 contemplative", []string{"wonder", "thinking about", "reflect", "realize", "realised", "realized", "figure out", "not sure", "confused"}},
}

var topicBuckets = []bucket{
	{"💼 career", []string{"job", "work", "career", "boss", "manager", "promotion", "interview", "office", "coworker", "colleague", "fired", "hired"}},
	{"💰 finances", []string{"money", "rent", "debt", "salary", "pay", "bills", "loan", "savings", "afford", "budget", "finance"}},
	{"❤️ relationships", []string{"partner", "boyfriend", "girlfriend", "husband", "wife", "relationship", "dating", "breakup", "broke up", "marriage", "divorce"}},
	{"👪 family", []string{"family", "mom", "mother", "dad", "father", "parents", "sister", "brother", "kids", "children", "son", "daughter"}},
	{"🤝 friendships", []string{"friend", "friends", "friendship", "social", "party"}},
	{"🏥 health", []string{"health", "sick", "illness", "doctor", "hospital", "pain", "diagnosis", "therapy", "medication"}},
	{"😴 sleep", []string{"sleep", "insomnia", "can't sleep", "nightmare", "awake at night", "rest"}},
	{"📚 studies", []string{"school", "exam", "exams", "study", "studying", "university", "college", "class", "grades", "homework"}},
	{"👣 progress", []string{"progress", "goal", "goals", "achieve", "improve", "step", "growth", "habit", "milestone"}},
	{"🧠 self-reflection", []string{"myself", "who i am", "self", "identity", "confidence", "self-esteem", "worth", "purpose"}},
}

// Analyze scores every bucket against text and returns the top labels.
// A bucket scores one point per distinct keyword found.
func Analyze(text string) Result {
	normalized := " " + strings.ToLower(strings.Join(strings.Fields(text), " ")) + " "
	return Result{
		Emotions: rank(normalized, emotionBuckets, MaxEmotions),
		Topics:   rank(normalized, topicBuckets, MaxTopics),
	}
}

// AnalyzeOrPlaceholder is Analyze with placeholder labels filling any empty side.
func AnalyzeOrPlaceholder(text string) Result {
	result := Analyze(text)
	if len(result.Emotions) == 0 {
		result.Emotions = PlaceholderEmotions()
	}
	if len(result.Topics) == 0 {
		result.Topics = PlaceholderTopics()
	}
	return result
}

type scored struct {
	label string
	score int
	order int
}

func rank(normalized string, buckets []bucket, limit int) []string {
	hits := make([]scored, 0, len(buckets))
	for i, b := range buckets {
		score := 0
		for _, word := range b.keywords {
			if containsWord(normalized, word) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{label: b.label, score: score, order: i})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	labels := make([]string, len(hits))
	for i, h := range hits {
		labels[i] = h.label
	}
	return labels
}

// containsWord reports whether keyword occurs in normalized with no letter directly
// before or after it, so "pay" does not match "paying".
func containsWord(normalized, keyword string) bool {
	keyword = strings.ToLower(keyword)
	for start := 0; ; {
		idx := strings.Index(normalized[start:], keyword)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(keyword)
		if !isLetter(normalized, idx-1) && !isLetter(normalized, end) {
			return true
		}
		start = idx + 1
	}
}

func isLetter(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return (c >= 'a' && c <= 'z') || c == '\''
}

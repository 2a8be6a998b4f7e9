package attempts

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	courseModels "coursehub/models/course"
)

// Shuffler produces uniform random permutations. It is safe for concurrent use.
type Shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewShuffler(src rand.Source) *Shuffler {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Shuffler{rng: rand.New(src)}
}

// Perm returns a Fisher-Yates permutation of 0..n-1.
func (s *Shuffler) Perm(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	s.mu.Lock()
	s.rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	s.mu.Unlock()
	return idx
}

type PresentedOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type PresentedQuestion struct {
	ID           string                    `json:"id"`
	Prompt       string                    `json:"prompt"`
	QuestionType courseModels.QuestionType `json:"question_type"`
	Points       int                       `json:"points"`
	Options      []PresentedOption         `json:"options,omitempty"`
}

// PresentedQuiz is the student view: correctness flags and explanations are
// never included.
type PresentedQuiz struct {
	ID           string              `json:"id"`
	TopicID      string              `json:"topic_id"`
	Title        string              `json:"title"`
	PassingScore int                 `json:"passing_score"`
	TimeLimit    *int                `json:"time_limit,omitempty"`
	Practice     bool                `json:"practice"`
	Questions    []PresentedQuestion `json:"questions"`
}

// Present builds the student view, shuffling questions and options only when
// the quiz asks for it. The authored slices are never reordered in place.
func Present(quiz *courseModels.Quiz, questions []courseModels.Question, s *Shuffler) PresentedQuiz {
	ordered := make([]courseModels.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].OrderIndex != ordered[j].OrderIndex {
			return ordered[i].OrderIndex < ordered[j].OrderIndex
		}
		return ordered[i].ID < ordered[j].ID
	})
	if quiz.ShuffleQuestions && s != nil {
		ordered = permute(ordered, s.Perm(len(ordered)))
	}

	out := PresentedQuiz{
		ID:           quiz.ID,
		TopicID:      quiz.TopicID,
		Title:        quiz.Title,
		PassingScore: quiz.PassingScore,
		TimeLimit:    quiz.TimeLimit,
		Questions:    make([]PresentedQuestion, 0, len(ordered)),
	}
	for _, q := range ordered {
		pq := PresentedQuestion{ID: q.ID, Prompt: q.Prompt, QuestionType: q.QuestionType, Points: q.Points}
		// Text answers must not leak the accepted strings.
		if q.QuestionType != courseModels.ShortAnswer && q.QuestionType.UsesOptions() {
			opts := make([]courseModels.Option, len(q.Options))
			copy(opts, q.Options)
			sort.SliceStable(opts, func(i, j int) bool {
				if opts[i].OrderIndex != opts[j].OrderIndex {
					return opts[i].OrderIndex < opts[j].OrderIndex
				}
				return opts[i].ID < opts[j].ID
			})
			if quiz.ShuffleOptions && s != nil {
				opts = permute(opts, s.Perm(len(opts)))
			}
			for _, o := range opts {
				pq.Options = append(pq.Options, PresentedOption{ID: o.ID, Text: o.Text})
			}
		}
		out.Questions = append(out.Questions, pq)
	}
	return out
}

func permute[T any](items []T, perm []int) []T {
	out := make([]T, len(items))
	for i, p := range perm {
		out[i] = items[p]
	}
	return out
}

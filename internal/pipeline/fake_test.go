package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/llm"
)

// stage reconnaît l'étape à partir de l'en-tête du prompt
func stage(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "Analyze the following section"):
		return "summarize"
	case strings.HasPrefix(prompt, "Rate the source material"):
		return "quality"
	case strings.HasPrefix(prompt, "These are the section summaries"):
		return "overview"
	case strings.HasPrefix(prompt, "Design a course"):
		return "structure"
	case strings.HasPrefix(prompt, "You are writing a lesson"):
		return "lesson"
	case strings.HasPrefix(prompt, "Write a quiz"):
		return "quiz"
	}
	return "unknown"
}

// fakeCompleter répond par étape; une étape sans réponse renvoie une chaîne non JSON
type fakeCompleter struct {
	mu        sync.Mutex
	responses map[string][]string
	errs      map[string]error
	calls     []string
	prompts   []string
	opts      []llm.Options
}

func newFake() *fakeCompleter {
	return &fakeCompleter{responses: map[string][]string{}, errs: map[string]error{}}
}

// on enregistre les réponses successives d'une étape; la dernière est répétée
func (f *fakeCompleter) on(stageName string, responses ...string) *fakeCompleter {
	f.responses[stageName] = responses
	return f
}

func (f *fakeCompleter) fail(stageName string, err error) *fakeCompleter {
	f.errs[stageName] = err
	return f
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := messages[len(messages)-1].Content
	name := stage(prompt)
	f.calls = append(f.calls, name)
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)

	if err := f.errs[name]; err != nil {
		return "", err
	}
	queue := f.responses[name]
	if len(queue) == 0 {
		return "I am not able to answer in JSON today.", nil
	}
	response := queue[0]
	if len(queue) > 1 {
		f.responses[name] = queue[1:]
	}
	return response, nil
}

func (f *fakeCompleter) count(stageName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == stageName {
			n++
		}
	}
	return n
}

func mustJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

func quizJSON(mcqs, shortAnswers int) string {
	var questions []map[string]interface{}
	for i := 0; i < mcqs; i++ {
		questions = append(questions, map[string]interface{}{
			"type":          "mcq",
			"id":            fmt.Sprintf("q%d", i+1),
			"difficulty":    1 + i%4,
			"question_type": "recall",
			"question":      fmt.Sprintf("Which statement best describes concept number %d?", i+1),
			"options": []string{
				"A) It isolates state between requests",
				"B) It compiles the program ahead of time",
				"C) It schedules goroutines on threads",
				"D) It encrypts traffic between services",
			},
			"correctAnswer": 0,
			"explanation":   "Because the lesson says so.",
		})
	}
	var short []map[string]interface{}
	for i := 0; i < shortAnswers; i++ {
		short = append(short, map[string]interface{}{
			"type":         "short_answer",
			"id":           fmt.Sprintf("sa%d", i+1),
			"question":     "Explain in your own words why isolation matters.",
			"sampleAnswer": "Isolation prevents one request from corrupting another.",
		})
	}
	return mustJSON(map[string]interface{}{"questions": questions, "short_answer": short})
}

func placeholderQuizJSON(n int) string {
	var questions []map[string]interface{}
	for i := 0; i < n; i++ {
		questions = append(questions, map[string]interface{}{
			"type":          "mcq",
			"question":      fmt.Sprintf("What does the lesson say about topic %d?", i+1),
			"options":       []string{"A", "B", "C", "D"},
			"correctAnswer": 0,
		})
	}
	return mustJSON(map[string]interface{}{"questions": questions})
}

const summaryJSON = `{"topics": ["Goroutines", "Channels", "Select"], "concepts": ["CSP", "Blocking"], "summary": "Concurrency primitives in Go."}`

const structureJSON = `{"chapters": [
  {"title": "Concurrency basics", "description": "Start here", "lessons": [
    {"title": "Goroutines", "topics_to_cover": ["Goroutines"], "source_chunk_indices": [0]},
    {"title": "Channels", "topics_to_cover": ["Channels"], "source_chunk_indices": [1, 42]}
  ]},
  {"title": "Patterns", "description": "Going further", "lessons": [
    {"title": "Select", "topics_to_cover": ["Select"], "source_chunk_indices": ["1"]}
  ]}
]}`

const lessonJSON = `{
  "introduction": "Goroutines are lightweight threads.",
  "explanation": "A goroutine is started with the go keyword.",
  "key_concepts": [{"term": "goroutine", "definition": "a function running concurrently"}],
  "examples": [{"title": "Hello", "content": "go hello()"}],
  "common_mistakes": [{"mistake": "Leaking goroutines", "correction": "Always provide an exit path"}],
  "actionable_steps": [{"step": "Write one", "details": "Start a goroutine"}],
  "keyPoints": [{"title": "Cheap", "description": "Goroutines cost a few kilobytes"}],
  "summary": "You started goroutines.",
  "before_you_move_on": ["Make sure you can start a goroutine"]
}`

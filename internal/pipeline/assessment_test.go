package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

func TestIsPlaceholderOption(t *testing.T) {
	tests := []struct {
		option string
		want   bool
	}{
		{"A", true},
		{"  b) ", true},
		{"Yes", true},
		{"Option A", true},
		{"option c something", false},
		{"Option 3", true},
		{"A) ...", true},
		{"B. Option B", true},
		{"c) yes", true},
		{"...", true},
		{"Placeholder", true},
		{"A) Goroutines are scheduled by the runtime", false},
		{"B. Rows are sorted alphabetically", false},
		{"Channels synchronise goroutines", false},
		{"Optional chaining", false},
	}

	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlaceholderOption(tt.option))
		})
	}
}

func TestValidQuestion(t *testing.T) {
	good := models.AssessmentItem{Question: "What does a channel do?", Options: models.OptionList{"A", "It passes values between goroutines"}}
	assert.True(t, ValidQuestion(good))

	short := good
	short.Question = "Why Go?"
	assert.False(t, ValidQuestion(short))

	placeholders := good
	placeholders.Options = models.OptionList{"Option A", "Option B", "C)", "..."}
	assert.False(t, ValidQuestion(placeholders))

	assert.False(t, ValidQuestion(models.AssessmentItem{Question: "A question without options?"}))

	assert.True(t, ValidQuestion(FallbackAssessment("Primary keys")[0]))
}

func TestGenerateAssessmentLetteredOptions(t *testing.T) {
	reply := `{"questions": [` +
		`{"question": "What does a primary key guarantee?", "options": ["A) Each row is uniquely identifiable", "B) Rows are sorted alphabetically", "C) Columns cannot be null", "D) Tables are never joined"], "correctAnswer": 0},` +
		`{"question": "Which column makes a good primary key?", "options": ["A) A generated identifier", "B) The customer's full name", "C) A free text comment", "D) The creation date"], "correctAnswer": 0},` +
		`{"question": "Why should primary keys stay stable?", "options": ["A) Foreign keys reference them", "B) They are printed on invoices", "C) Indexes ignore them", "D) They speed up sorting by name"], "correctAnswer": 0},` +
		`{"question": "What happens when two rows share a primary key?", "options": ["A) The insert is rejected", "B) The older row is renamed", "C) Both rows are merged", "D) The table is locked forever"], "correctAnswer": 0}` +
		`]}`
	fake := newFake().on("quiz", reply)

	quiz, err := NewGenerator(fake, nil).GenerateAssessment(context.Background(), QuizBasic, "Primary keys", &models.LessonContent{}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.count("quiz"))
	require.Len(t, quiz, 4)
	assert.Equal(t, "What does a primary key guarantee?", quiz[0].Question)
	assert.Equal(t, "A) Each row is uniquely identifiable", quiz[0].Options[0])
}

func TestGenerateAssessmentBasicTopsUp(t *testing.T) {
	t.Run("second reply completes the quiz", func(t *testing.T) {
		fake := newFake().on("quiz", quizJSON(3, 0), quizJSON(4, 0))
		quiz, err := NewGenerator(fake, nil).GenerateAssessment(context.Background(), QuizBasic, "Channels", &models.LessonContent{}, "")
		require.NoError(t, err)
		assert.Equal(t, 2, fake.count("quiz"))
		assert.Equal(t, 4, quiz.MCQCount())
	})

	t.Run("keeps what it has when the retry falls short", func(t *testing.T) {
		fake := newFake().on("quiz", quizJSON(3, 0))
		quiz, err := NewGenerator(fake, nil).GenerateAssessment(context.Background(), QuizBasic, "Channels", &models.LessonContent{}, "")
		require.NoError(t, err)
		assert.Equal(t, 2, fake.count("quiz"))
		assert.Equal(t, 3, quiz.MCQCount())
	})
}

func TestGenerateAssessmentPlaceholderFallback(t *testing.T) {
	fake := newFake().on("quiz", placeholderQuizJSON(7))
	content := &models.LessonContent{Introduction: "i", Explanation: "e"}

	quiz, err := NewGenerator(fake, nil).GenerateAssessment(context.Background(), QuizFull, "Goroutine Scheduling", content, "src")
	require.NoError(t, err)

	assert.Equal(t, 2, fake.count("quiz"))
	require.Len(t, quiz, 1)
	assert.Equal(t, "What is the main focus of the lesson 'Goroutine Scheduling'?", quiz[0].Question)
	assert.Equal(t, "A) Understanding the core concepts of Goroutine", quiz[0].Options[0])
	assert.Equal(t, 0, quiz[0].CorrectAnswer)
	assert.Equal(t, models.QuestionRecall, quiz[0].QuestionType)
}

func TestGenerateAssessmentRetrySucceeds(t *testing.T) {
	fake := newFake().on("quiz", placeholderQuizJSON(4), quizJSON(4, 0))

	quiz, err := NewGenerator(fake, nil).GenerateAssessment(context.Background(), QuizBasic, "Channels", &models.LessonContent{}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.count("quiz"))
	assert.Len(t, quiz, 4)
}

func TestGenerateAssessmentProfiles(t *testing.T) {
	t.Run("basic keeps four questions and no short answer", func(t *testing.T) {
		fake := newFake().on("quiz", quizJSON(7, 1))
		quiz, err := NewGenerator(fake, nil).GenerateAssessment(context.Background(), QuizBasic, "Channels", &models.LessonContent{}, "")
		require.NoError(t, err)
		assert.Len(t, quiz, 4)
		assert.Equal(t, 4, quiz.MCQCount())
	})

	t.Run("full keeps seven questions and one short answer", func(t *testing.T) {
		fake := newFake().on("quiz", quizJSON(9, 2))
		quiz, err := NewGenerator(fake, nil).GenerateAssessment(context.Background(), QuizFull, "Channels", &models.LessonContent{}, "")
		require.NoError(t, err)
		assert.Len(t, quiz, 8)
		assert.Equal(t, 7, quiz.MCQCount())
		assert.Equal(t, models.ItemShortAnswer, quiz[7].Type)
		assert.Equal(t, "sa1", quiz[7].ID)
	})

	t.Run("out of range answer is reset", func(t *testing.T) {
		fake := newFake().on("quiz", `{"questions": [{"question": "Which keyword starts a goroutine?", "options": ["The go keyword", "The func keyword"], "correctAnswer": 5}]}`)
		quiz, err := NewGenerator(fake, nil).GenerateAssessment(context.Background(), QuizFull, "Goroutines", &models.LessonContent{}, "")
		require.NoError(t, err)
		require.Len(t, quiz, 1)
		assert.Equal(t, 0, quiz[0].CorrectAnswer)
		assert.Equal(t, "q1", quiz[0].ID)
		assert.Equal(t, models.ItemMCQ, quiz[0].Type)
		assert.Equal(t, 1, quiz[0].Difficulty)
	})
}

func TestFallbackAssessmentEmptyTitle(t *testing.T) {
	quiz := FallbackAssessment("")
	require.Len(t, quiz, 1)
	assert.Equal(t, "A) Understanding the core concepts of this topic", quiz[0].Options[0])
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"guidegen/internal/logger"
	"guidegen/internal/models"
)

// fakeChatClient answers prompts by prefix lookup so each of the four
// generation prompts can be scripted independently.
type fakeChatClient struct {
	byPrefix map[string]string
	models   []string
	err      error
	calls    int
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	prompt := req.Messages[0].Content
	for prefix, answer := range f.byPrefix {
		if strings.HasPrefix(prompt, prefix) {
			return openai.ChatCompletionResponse{
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{Content: answer}},
				},
			}, nil
		}
	}
	return openai.ChatCompletionResponse{}, errors.New("unexpected prompt")
}

func (f *fakeChatClient) ListModels(ctx context.Context) (openai.ModelsList, error) {
	if f.err != nil {
		return openai.ModelsList{}, f.err
	}
	out := openai.ModelsList{}
	for _, id := range f.models {
		out.Models = append(out.Models, openai.Model{ID: id})
	}
	return out, nil
}

func newTestGenerator(client ChatClient) *GeneratorService {
	s := NewGeneratorService("test-model", "", logger.NewNop())
	s.newClient = func(apiKey string) ChatClient { return client }
	return s
}

func TestGenerate(t *testing.T) {
	client := &fakeChatClient{byPrefix: map[string]string{
		"Give me a title":                 "Cell Biology\n",
		"Given the following transcript, give a thorough summary": "# Overview\nThe mitochondria is the powerhouse of the cell.",
		"Given the following transcript, make 10 flashcards":      "```json\n[[\"mitochondria\",\"powerhouse of the cell\"],[\"nucleus\",\"control center\"]]\n```",
		"Given the following transcript, I want you to generate a quiz": `[{"question":"What is the powerhouse?","possible_answers":["mitochondria","nucleus","ribosome"],"index":0}]`,
	}}

	materials, err := newTestGenerator(client).Generate(context.Background(), "key", "transcript")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if materials.Title != "Cell Biology" {
		t.Errorf("title = %q, want trimmed %q", materials.Title, "Cell Biology")
	}
	if !strings.Contains(materials.Summary, "mitochondria") {
		t.Errorf("summary %q does not mention mitochondria", materials.Summary)
	}
	if len(materials.FlashCards) != 2 {
		t.Fatalf("got %d flashcards, want 2", len(materials.FlashCards))
	}
	if materials.FlashCards[0].Front != "mitochondria" {
		t.Errorf("flashcard front = %q", materials.FlashCards[0].Front)
	}
	if len(materials.Quiz) != 1 {
		t.Fatalf("got %d quiz questions, want 1", len(materials.Quiz))
	}
	q := materials.Quiz[0]
	if q.Index < 0 || q.Index >= len(q.PossibleAnswers) {
		t.Fatalf("quiz index %d out of range", q.Index)
	}
	if q.PossibleAnswers[q.Index] != "mitochondria" {
		t.Errorf("answer at index = %q, want the originally correct one", q.PossibleAnswers[q.Index])
	}
	if client.calls != 4 {
		t.Errorf("made %d model calls, want 4", client.calls)
	}
}

func TestGenerateMissingKey(t *testing.T) {
	client := &fakeChatClient{}
	_, err := newTestGenerator(client).Generate(context.Background(), "  ", "text")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	if client.calls != 0 {
		t.Errorf("model was called %d times with no key", client.calls)
	}
}

func TestGenerateBadFlashcardJSON(t *testing.T) {
	client := &fakeChatClient{byPrefix: map[string]string{
		"Give me a title": "t",
		"Given the following transcript, give a thorough summary": "s",
		"Given the following transcript, make 10 flashcards":      "not json at all",
	}}
	_, err := newTestGenerator(client).Generate(context.Background(), "key", "text")
	if err == nil || !strings.Contains(err.Error(), "parse flashcards") {
		t.Fatalf("err = %v, want flashcard parse failure", err)
	}
}

func TestGenerateQuizIndexOutOfRange(t *testing.T) {
	client := &fakeChatClient{byPrefix: map[string]string{
		"Give me a title": "t",
		"Given the following transcript, give a thorough summary":       "s",
		"Given the following transcript, make 10 flashcards":            `[["a","b"]]`,
		"Given the following transcript, I want you to generate a quiz": `[{"question":"q","possible_answers":["a","b"],"index":5}]`,
	}}
	_, err := newTestGenerator(client).Generate(context.Background(), "key", "text")
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("err = %v, want index range failure", err)
	}
}

func TestNormalizeQuizPreservesCorrectAnswer(t *testing.T) {
	s := NewGeneratorService("m", "", logger.NewNop())

	// Run many passes; the shuffle is random, the invariant must hold every
	// time.
	for i := 0; i < 200; i++ {
		quiz := []models.QuizQuestion{
			{
				Question:        "capital of France?",
				PossibleAnswers: []string{"Paris", "Lyon", "Marseille", "Nice"},
				Index:           0,
			},
			{
				Question:        "2+2?",
				PossibleAnswers: []string{"3", "4", "5"},
				Index:           1,
			},
		}
		if err := s.normalizeQuiz(quiz); err != nil {
			t.Fatalf("normalizeQuiz: %v", err)
		}
		if got := quiz[0].PossibleAnswers[quiz[0].Index]; got != "Paris" {
			t.Fatalf("pass %d: answer at index = %q, want Paris", i, got)
		}
		if got := quiz[1].PossibleAnswers[quiz[1].Index]; got != "4" {
			t.Fatalf("pass %d: answer at index = %q, want 4", i, got)
		}
	}
}

func TestNormalizeQuizActuallyShuffles(t *testing.T) {
	s := NewGeneratorService("m", "", logger.NewNop())

	moved := false
	for i := 0; i < 100 && !moved; i++ {
		quiz := []models.QuizQuestion{{
			Question:        "q",
			PossibleAnswers: []string{"a", "b", "c", "d", "e", "f"},
			Index:           0,
		}}
		if err := s.normalizeQuiz(quiz); err != nil {
			t.Fatalf("normalizeQuiz: %v", err)
		}
		if quiz[0].PossibleAnswers[0] != "a" || quiz[0].Index != 0 {
			moved = true
		}
	}
	if !moved {
		t.Error("100 shuffles never changed the answer order")
	}
}

func TestListModels(t *testing.T) {
	client := &fakeChatClient{models: []string{"gemini-2.0-flash-lite", "gemini-2.0-flash"}}
	names, err := newTestGenerator(client).ListModels(context.Background(), "key")
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(names) != 2 || names[0] != "gemini-2.0-flash-lite" {
		t.Errorf("names = %v", names)
	}
}

func TestStripFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `[1,2]`, `[1,2]`},
		{"fenced", "```json\n[1,2]\n```", `[1,2]`},
		{"fenced no language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"unclosed fence", "```json\n[1,2]", `[1,2]`},
		{"surrounding whitespace", "  \n```json\n[1,2]\n```\n ", `[1,2]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripFence(tc.in); got != tc.want {
				t.Errorf("stripFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

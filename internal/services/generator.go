package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"guidegen/internal/logger"
	"guidegen/internal/models"
)

// ErrMissingAPIKey is returned when neither the request header nor the
// process default supplies a model credential.
var ErrMissingAPIKey = errors.New("model API key is missing")

const (
	titlePrompt = "Give me a title for this transcript. Should not be very long. " +
		"Say nothing else except the title: "

	summaryPrompt = "Given the following transcript, give a thorough summary of the main parts. " +
		"Be as detailed as possible. Have a few main points which are bolded, and a lot of " +
		"smaller subpoints, which use bullet points and are under the main points. USE MARKDOWN. " +
		"DO NOT WRITE ANYTHING ELSE EXCEPT THE SUMMARY: "

	flashcardsPrompt = "Given the following transcript, make 10 flashcards. Return these in JSON " +
		"format. It should be a list of lists, where each sublist is two elements where the first " +
		"element is the question/vocab word and the second element is the answer/definition. " +
		"Don't output anything besides the JSON. Here is the transcript: "

	quizPrompt = "Given the following transcript, I want you to generate a quiz with 10 questions. " +
		"The quiz should be in JSON format. It should be a list of JSON objects. Each JSON object " +
		"should have three fields: question, possible_answers, and index. Question is a string. " +
		"possible_answers should be a list of possible answers. Only one answer should be correct. " +
		"index should be a number and should be the index of the correct answer. " +
		"Do not say anything other than this JSON: "
)

// ChatClient is the slice of the OpenAI-compatible API the generator uses.
// *openai.Client satisfies it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// GeneratorService produces title, summary, flashcards and quiz from
// extracted text with four independent prompts to a generative-text API.
// The credential is threaded per call, never held as process state.
type GeneratorService struct {
	model     string
	log       *logger.Logger
	newClient func(apiKey string) ChatClient
	shuffle   func(n int, swap func(i, j int))
}

func NewGeneratorService(model string, endpoint string, log *logger.Logger) *GeneratorService {
	return &GeneratorService{
		model: model,
		log:   log.With("service", "GeneratorService"),
		newClient: func(apiKey string) ChatClient {
			cfg := openai.DefaultConfig(apiKey)
			if endpoint != "" {
				cfg.BaseURL = endpoint
			}
			return openai.NewClientWithConfig(cfg)
		},
		shuffle: rand.Shuffle,
	}
}

// Generate runs the four prompts over text. The calls share nothing but the
// source text; any single failure fails the whole pass.
func (s *GeneratorService) Generate(ctx context.Context, apiKey string, text string) (*models.Materials, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	client := s.newClient(apiKey)

	title, err := s.complete(ctx, client, titlePrompt+text)
	if err != nil {
		return nil, fmt.Errorf("generate title: %w", err)
	}

	summary, err := s.complete(ctx, client, summaryPrompt+text)
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	cards, err := s.generateFlashcards(ctx, client, text)
	if err != nil {
		return nil, fmt.Errorf("generate flashcards: %w", err)
	}

	quiz, err := s.generateQuiz(ctx, client, text)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	return &models.Materials{
		Title:      strings.TrimSpace(title),
		Summary:    summary,
		FlashCards: cards,
		Quiz:       quiz,
	}, nil
}

// ListModels reports the models the configured provider offers. Diagnostic.
func (s *GeneratorService) ListModels(ctx context.Context, apiKey string) ([]string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	list, err := s.newClient(apiKey).ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

func (s *GeneratorService) generateFlashcards(ctx context.Context, client ChatClient, text string) ([]models.FlashCard, error) {
	raw, err := s.complete(ctx, client, flashcardsPrompt+text)
	if err != nil {
		return nil, err
	}
	var cards []models.FlashCard
	if err := json.Unmarshal([]byte(stripFence(raw)), &cards); err != nil {
		s.log.Error("flashcard response is not valid JSON", "raw", raw)
		return nil, fmt.Errorf("parse flashcards: %w", err)
	}
	return cards, nil
}

func (s *GeneratorService) generateQuiz(ctx context.Context, client ChatClient, text string) ([]models.QuizQuestion, error) {
	raw, err := s.complete(ctx, client, quizPrompt+text)
	if err != nil {
		return nil, err
	}
	var quiz []models.QuizQuestion
	if err := json.Unmarshal([]byte(stripFence(raw)), &quiz); err != nil {
		s.log.Error("quiz response is not valid JSON", "raw", raw)
		return nil, fmt.Errorf("parse quiz: %w", err)
	}
	if err := s.normalizeQuiz(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// normalizeQuiz reshuffles each question's answers and re-derives the correct
// index. The model is asked to place the correct answer at a random index,
// but that claim is not trusted: the correct answer string is captured before
// any reordering and looked up again afterwards. With duplicate answer
// strings the lookup may land on a different occurrence; that ambiguity is
// accepted.
func (s *GeneratorService) normalizeQuiz(quiz []models.QuizQuestion) error {
	for i := range quiz {
		q := &quiz[i]
		if q.Index < 0 || q.Index >= len(q.PossibleAnswers) {
			return fmt.Errorf("quiz question %d: index %d out of range for %d answers",
				i, q.Index, len(q.PossibleAnswers))
		}
		correct := q.PossibleAnswers[q.Index]
		s.shuffle(len(q.PossibleAnswers), func(a, b int) {
			q.PossibleAnswers[a], q.PossibleAnswers[b] = q.PossibleAnswers[b], q.PossibleAnswers[a]
		})
		for j, ans := range q.PossibleAnswers {
			if ans == correct {
				q.Index = j
				break
			}
		}
	}
	return nil
}

func (s *GeneratorService) complete(ctx context.Context, client ChatClient, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// stripFence removes a wrapping markdown code fence, if present, by dropping
// the first and last fence lines. The content itself is left untouched.
func stripFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	lines = lines[1:]
	if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

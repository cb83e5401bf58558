package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"studycompanion"
)

func main() {
	var (
		subject      = flag.String("subject", "", "Subject to plan for (required)")
		topics       = flag.String("topics", "", "Comma separated topics to cover (required)")
		examDate     = flag.String("exam", "", "Exam date, DD/MM/YYYY HH:MM AM|PM (required)")
		quizTopic    = flag.String("quiz", "", "Play a quiz on this topic instead of planning")
		difficulty   = flag.String("difficulty", "medium", "Quiz difficulty (easy, medium, hard)")
		numQuestions = flag.Int("questions", 5, "Number of quiz questions")
		provider     = flag.String("provider", studycompanion.ProviderGemini, "Model provider (gemini, openai)")
		model        = flag.String("model", "", "Model name (default depends on provider)")
		apiKey       = flag.String("api-key", "", "API key (or set GEMINI_API_KEY / OPENAI_API_KEY)")
		outputFile   = flag.String("output", "", "Output file for plan JSON (default: stdout)")
		verbose      = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	studycompanion.SetLogger(studycompanion.NewLogger(studycompanion.LogConfig{}, *verbose))

	aiCfg := studycompanion.AIConfig{Provider: *provider, Model: *model}
	switch *provider {
	case studycompanion.ProviderOpenAI:
		aiCfg.OpenAIAPIKey = firstNonEmpty(*apiKey, os.Getenv("OPENAI_API_KEY"))
	default:
		aiCfg.GeminiAPIKey = firstNonEmpty(*apiKey, os.Getenv("GEMINI_API_KEY"))
	}
	if aiCfg.APIKey() == "" {
		log.Fatal("API key is required. Use -api-key flag or set the provider's environment variable.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	gen, err := studycompanion.NewTextGenerator(ctx, aiCfg)
	if err != nil {
		log.Fatalf("Failed to create text generator: %v", err)
	}
	companion := studycompanion.NewStudyCompanion(gen, studycompanion.WithStrictQuiz(true))

	if *quizTopic != "" {
		req := studycompanion.QuizRequest{Topic: *quizTopic, Difficulty: *difficulty, NumQuestions: *numQuestions}
		if err := playQuiz(ctx, companion, req, os.Stdin, os.Stdout); err != nil {
			log.Fatalf("Quiz failed: %v", err)
		}
		return
	}

	req := studycompanion.StudyPlanRequest{Subject: *subject, Topics: *topics, ExamDate: *examDate}
	if err := req.Validate(); err != nil {
		log.Fatalf("%v. Use -subject, -topics and -exam flags.", err)
	}

	studycompanion.Logger().Debug("Generating study plan", zap.String("subject", *subject))
	plan, err := companion.GenerateStudyPlan(ctx, req)
	if err != nil {
		log.Fatalf("Failed to generate study plan: %v", err)
	}

	output, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal study plan: %v", err)
	}
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Study plan saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}

	printSummary(os.Stdout, plan, time.Now())
}

// printSummary writes the countdown and a fresh plan's progress.
func printSummary(w io.Writer, plan *studycompanion.StudyPlan, now time.Time) {
	c := studycompanion.ComputeCountdown(studycompanion.ParseExamTimestamp(plan.ExamDate), now)
	p := studycompanion.ComputeProgress(plan.Topics, studycompanion.CompletionMap{})
	fmt.Fprintf(w, "\nExam in %dd %dh %dm %ds\n", c.Days, c.Hours, c.Minutes, c.Seconds)
	fmt.Fprintf(w, "Progress: %d/%d topics (%d%%)\n", p.CompletedCount, p.TotalNonBreakCount, p.Percentage)
}

// playQuiz generates a quiz, asks each question on in and grades the
// answers.
func playQuiz(ctx context.Context, companion *studycompanion.StudyCompanion, req studycompanion.QuizRequest, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Starting quiz on: %s\n", req.Topic)
	fmt.Fprintf(out, "Questions: %d, Difficulty: %s\n", req.NumQuestions, req.Difficulty)
	fmt.Fprintln(out, "Generating questions... (this may take a moment)")
	fmt.Fprintln(out)

	questions, err := companion.GenerateQuiz(ctx, req)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	letters := "ABCD"
	answers := make(map[int]string, len(questions))

	for n, q := range questions {
		fmt.Fprintf(out, "Question %d/%d:\n%s\n\n", n+1, len(questions), q.Question)
		for i, option := range q.Options {
			fmt.Fprintf(out, "%c) %s\n", letters[i], option)
		}
		fmt.Fprintln(out)

		choice := -1
		for choice < 0 {
			fmt.Fprint(out, "Your answer (A/B/C/D): ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read answer: %w", err)
				}
				return errors.New("input closed before the quiz finished")
			}
			choice = strings.Index(letters, strings.ToUpper(strings.TrimSpace(scanner.Text())))
			if choice < 0 || choice >= len(q.Options) {
				fmt.Fprintln(out, "Please enter A, B, C, or D")
				choice = -1
			}
		}

		answers[q.ID] = q.Options[choice]
		if q.Options[choice] == q.CorrectAnswer {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Incorrect. The correct answer is: %s\n", q.CorrectAnswer)
		}
		fmt.Fprintln(out, strings.Repeat("-", 50))
	}

	result := studycompanion.GradeQuiz(req.Topic, req.Difficulty, questions, answers, time.Now())
	fmt.Fprintf(out, "\nQuiz completed! Score: %d/%d\n", result.Score, result.TotalQuestions)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package studycompanion

import (
	"fmt"
	"strings"
)

const (
	systemStudyPlan   = "You are an expert study coach. Build realistic, well-paced study schedules."
	systemNotes       = "You are an expert tutor who writes clear, well structured study notes."
	systemExplanation = "You are a creative teacher who explains concepts through accurate real-world analogies."
	systemQuiz        = "You are an expert quiz question generator. Generate high-quality multiple choice questions with exactly 4 options each."
)

func buildStudyPlanPrompt(req StudyPlanRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Create a detailed study plan for a student preparing for a %s exam on %s.\n", req.Subject, req.ExamDate))
	sb.WriteString(fmt.Sprintf("The exam will cover these topics: %s.\n\n", req.Topics))

	sb.WriteString("Instructions:\n")
	sb.WriteString("1. Create a step-by-step study plan with specific time durations for each topic\n")
	sb.WriteString("2. Include short breaks between study sessions\n")
	sb.WriteString("3. Break down complex topics into manageable sub-topics\n")
	sb.WriteString("4. Format your response as a JSON object with the following structure:\n")
	sb.WriteString("{\n")
	sb.WriteString(fmt.Sprintf("  \"subject\": %q,\n", req.Subject))
	sb.WriteString(fmt.Sprintf("  \"examDate\": %q,\n", req.ExamDate))
	sb.WriteString("  \"topics\": [\n")
	sb.WriteString("    {\"name\": \"topic name\", \"duration\": duration in minutes (number only), \"isBreak\": false},\n")
	sb.WriteString("    {\"name\": \"Break\", \"duration\": duration in minutes (number only), \"isBreak\": true},\n")
	sb.WriteString("    ... and so on\n")
	sb.WriteString("  ]\n")
	sb.WriteString("}\n\n")
	sb.WriteString("Return exactly one JSON object and make sure it is valid JSON.")

	return sb.String()
}

func buildNotesPrompt(req NotesRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Create comprehensive study notes about %s at a %s detail level.\n", req.Topic, req.DetailLevel))
	sb.WriteString(fmt.Sprintf("Format the notes as %s. Make the notes clear, concise, and easy to understand.\n", req.Format))
	sb.WriteString("Include key concepts, definitions, and examples where appropriate.\n")
	sb.WriteString("Format your response in markdown.")

	return sb.String()
}

func buildExplanationPrompt(req ExplanationRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Explain the concept of %s using real-world examples and analogies that would make it easy for a student to understand and remember.\n", req.Topic))
	sb.WriteString("Be creative with your analogies but make sure they're accurate representations of the concept.\n")
	sb.WriteString("Start with the basics and then gradually move to more complex aspects.\n")
	sb.WriteString("Format your response in markdown with appropriate headings, bullet points, and emphasis.")

	return sb.String()
}

func buildQuizPrompt(req QuizRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Create a multiple-choice quiz about %s with %d questions at a %s difficulty level.\n\n", req.Topic, req.NumQuestions, req.Difficulty))

	sb.WriteString("Format your response as a JSON object with this structure:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"questions\": [\n")
	sb.WriteString("    {\n")
	sb.WriteString("      \"id\": 1,\n")
	sb.WriteString("      \"question\": \"The question text\",\n")
	sb.WriteString("      \"options\": [\"Option A\", \"Option B\", \"Option C\", \"Option D\"],\n")
	sb.WriteString("      \"correctAnswer\": \"The correct option (exactly matching one of the options)\"\n")
	sb.WriteString("    },\n")
	sb.WriteString("    ... and so on\n")
	sb.WriteString("  ]\n")
	sb.WriteString("}\n\n")

	sb.WriteString("Requirements:\n")
	sb.WriteString("- Each question must have exactly 4 options\n")
	sb.WriteString("- The correct answer must match one of the options exactly\n")
	sb.WriteString("- Make the quiz challenging yet fair and cover different aspects of the topic\n")
	sb.WriteString("- Return exactly one JSON object and make sure it is valid JSON")

	return sb.String()
}

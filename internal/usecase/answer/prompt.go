package answer

import (
	"fmt"

	"github.com/campusqa/askd/internal/domain"
)

const systemPrompt = `You are CampusQA, a helpful AI assistant for Stanford University. You have access to Stanford-specific information to answer questions accurately and helpfully.

IMPORTANT GUIDELINES:
- Only answer questions that are relevant to Stanford students
- If the provided information doesn't answer the question, say you don't have enough information
- Be friendly, helpful, and accurate, like an upperclass mentor
- Keep responses concise but informative`

const (
	userPromptWithContext = "Question: %s\n\nRelevant Stanford Information: %s\n\nPlease answer the question using the provided information."
	userPromptNoContext   = "Question: %s\n\nI don't have specific Stanford information for this question. Please respond appropriately."
)

const (
	fallbackWithContext = "Based on Stanford information: %s\n\nThis is a fallback response. The AI service is temporarily unavailable."
	fallbackNoContext   = "I'm sorry, I don't have specific information about that Stanford topic, and the AI service is temporarily unavailable."

	emptyCompletionAnswer = "Sorry, I couldn't generate a response."
)

// buildMessages assembles the two-message prompt. The user prompt shape
// depends on whether retrieval produced relevant context.
func buildMessages(question, relevantInfo string) []domain.Message {
	var userPrompt string
	if relevantInfo != "" {
		userPrompt = fmt.Sprintf(userPromptWithContext, question, relevantInfo)
	} else {
		userPrompt = fmt.Sprintf(userPromptNoContext, question)
	}

	return []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: userPrompt},
	}
}

// fallbackAnswer is the deterministic text served when the completion
// provider is unavailable.
func fallbackAnswer(relevantInfo string) string {
	if relevantInfo != "" {
		return fmt.Sprintf(fallbackWithContext, relevantInfo)
	}
	return fallbackNoContext
}

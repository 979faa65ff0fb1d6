package llm

import "fmt"

const documentSystemPrompt = "You are a document analysis assistant. Base every answer strictly on the document text provided by the user."

func summarizePrompt(text string, maxWords int) string {
	return fmt.Sprintf(`Please provide a concise summary of the following document in approximately %d words or fewer. Focus on the key points and main ideas.

Document:
%s

Summary:`, maxWords, text)
}

func answerPrompt(text, question string) string {
	return fmt.Sprintf(`Answer the question using only the document below. If the document does not contain the answer, say that you couldn't find it in the document.

Document:
%s

Question: %s

Answer:`, text, question)
}

func entitiesPrompt(text string) string {
	return fmt.Sprintf(`Extract the named entities from the following document. Respond with a JSON object only, using exactly these keys: "people", "organizations", "dates", "locations", "monetary_values", "key_terms". Each value must be an array of strings. Use empty arrays for categories with no entities.

Document:
%s`, text)
}

func questionsPrompt(text string, n int) string {
	return fmt.Sprintf(`Based on the following document, suggest %d insightful questions a reader might ask about its content. Return them as a numbered list, one question per line.

Document:
%s`, n, text)
}

package app

import (
	"fmt"
	"strings"

	"studyrag/internal/model"
	"studyrag/internal/vectorstore"
)

// System prompts per answer mode. Every mode grounds the answer in the
// retrieved excerpts and tells the model to admit when the material does
// not cover the question.
var modePrompts = map[model.Mode]string{
	model.ModeChat: `You are a study assistant. Answer the student's question using the
provided study material excerpts. Be accurate and concise. If the excerpts do
not contain the answer, say so instead of guessing.`,

	model.ModeExplain: `You are a patient teacher. Explain the topic the student asks about
using the provided study material excerpts. Break the explanation into simple
steps, define any jargon, and give a short example where it helps. If the
excerpts do not cover the topic, say so.`,

	model.ModeSummary: `You are a study assistant. Produce a clear summary of the relevant
parts of the provided study material excerpts, focused on the student's
request. Cover the main ideas in a few short paragraphs and keep the original
meaning intact.`,

	model.ModePoints: `You are a study assistant. Answer with a bulleted list of the key
points from the provided study material excerpts that are relevant to the
student's request. One idea per bullet, most important first.`,

	model.ModeFlashcards: `You are a study assistant creating flashcards. From the provided
study material excerpts, produce flashcards relevant to the student's request.
Format each card as:

Q: <question>
A: <answer>

Keep questions specific and answers short.`,

	model.ModeExam: `You are an examiner. Using the provided study material excerpts,
write practice exam questions relevant to the student's request, mixing short
answer and longer questions. After the questions, provide a separate answer
key.`,
}

func promptForMode(mode model.Mode) string {
	if p, ok := modePrompts[mode]; ok {
		return p
	}
	return modePrompts[model.ModeChat]
}

// formatContext renders retrieved chunks as a numbered block appended to the
// system prompt. An empty result set yields an explicit marker so the model
// knows no material matched.
func formatContext(results []vectorstore.Result) string {
	if len(results) == 0 {
		return "\n\nStudy material excerpts: none available for this question."
	}
	var b strings.Builder
	b.WriteString("\n\nStudy material excerpts:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] Source: %s (relevance %.3f)\n%s\n", i+1, r.Metadata.Filename, r.Score, r.Metadata.Text)
	}
	return b.String()
}

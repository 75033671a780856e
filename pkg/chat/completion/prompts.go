package completion

import (
	"fmt"

	"kidsgpt-be/internal/entity"
)

type AgeBand string

const (
	AgeBandUnknown AgeBand = "unknown"
	AgeBandYoung   AgeBand = "under-8"
	AgeBandMiddle  AgeBand = "8-12"
	AgeBandTeen    AgeBand = "13+"
)

func BandFor(age *int) AgeBand {
	switch {
	case age == nil:
		return AgeBandUnknown
	case *age < 8:
		return AgeBandYoung
	case *age <= 12:
		return AgeBandMiddle
	default:
		return AgeBandTeen
	}
}

const basePrompt = `You are KidsGPT, a friendly and patient learning buddy for children.
Always be kind, encouraging and safe. Never share personal information, never ask for it,
and gently steer away from violent, scary or adult topics.
When a child asks for homework answers, do not simply give the answer: explain the idea,
give a hint or a similar worked example, and invite the child to try the next step.`

var bandStyle = map[AgeBand]string{
	AgeBandYoung:   "The child is younger than 8. Use very short sentences, simple words and a playful tone. Keep answers to a few sentences.",
	AgeBandMiddle:  "The child is between 8 and 12. Use clear everyday language, short paragraphs and concrete examples.",
	AgeBandTeen:    "The user is a teenager. You may use richer vocabulary and more detail, while staying supportive and age-appropriate.",
	AgeBandUnknown: "You do not know the child's exact age. Assume a primary-school reader and keep explanations simple.",
}

const quizPrompt = `You are running a fun personality quiz for a child.
Ask one short multiple-choice or open question at a time about hobbies, favourite subjects,
how they like to learn, and what makes them happy. After about eight questions, thank them
and describe their personality in a warm, positive way. Never ask for names, addresses,
school names or any other identifying details.`

// SystemPrompt selects the instructions for a conversation type and age.
func SystemPrompt(convType entity.ConversationType, age *int) string {
	band := BandFor(age)
	if convType == entity.ConversationTypePersonalityQuiz {
		return fmt.Sprintf("%s\n\n%s", quizPrompt, bandStyle[band])
	}
	return fmt.Sprintf("%s\n\n%s", basePrompt, bandStyle[band])
}

const scorePrompt = `You review answers given to children by an AI tutor.
Rate from 0 to 100 how much the ANSWER just hands over a homework solution instead of teaching.
0 means it only guides, explains or asks questions. 100 means it is a complete, copy-ready answer
to a homework-style question. Reply with the number only.

QUESTION:
%s

ANSWER:
%s`

func ScorePrompt(question, answer string) string {
	return fmt.Sprintf(scorePrompt, question, answer)
}

// User-facing texts returned in place of a reply.
const (
	MissingKeyText  = "I can't chat yet because no OpenAI API key is set up. Ask a parent to add one in Settings."
	InvalidKeyText  = "The OpenAI API key in Settings doesn't seem to work. Ask a parent to check it."
	RateLimitedText = "Lots of questions right now! Please wait a moment and try again."
	FailureText     = "Sorry, I had trouble answering that. Please try again in a moment."
)

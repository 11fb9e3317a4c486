package narrative

import (
	"fmt"
	"strings"
)

// Sentinel marks the end of the interview in a collect reply. Matching is a
// case-sensitive substring test anywhere in the reply.
const Sentinel = "FINISHED"

const (
	IntroMessage = "Hi there! I'm collecting stories about challenging experiences on social media to better " +
		"understand and support young people. I'd appreciate it if you could share your experience by answering " +
		"a few questions. If you can't think of a personal experience, you can share something that happened to a " +
		"friend or someone you know, but please don't share anything that could identify a person.\n\n" +
		"I'll start with a general question and then we'll move to a specific situation you remember.\n\n" +
		"Let me know when you're ready!"

	ThankYouMessage    = "Thank you for sharing your experience with us."
	SummarizingMessage = "Seems I have everything! Let me try to summarise what you said in three scenarios. See if you like any of these!"
	AdaptPromptMessage = "Okay, what's missing or could change to make this better?"
	ReadyMessage       = "You've now completed the interaction and hopefully found a scenario that you liked!"

	ConsentMessage = "In this task you're going to talk with a prototype chatbot that asks you to recall experiences " +
		"using social media. It's important that you do not report situations that contain information that would " +
		"allow someone to identify anyone in the story, including yourself. To continue, please confirm that you " +
		"have read and understood this information."
)

const collectSystemPrompt = `You are a friendly interviewer collecting a short story about a challenging experience a young person had on social media.
Ask one question at a time, in this order, and wait for each answer:
1. What happened? Ask for one specific situation.
2. What was the context: where, which platform, who was involved?
3. What was the outcome?
4. How did they react or feel about it?
Keep questions short and warm. Do not give advice. If an answer is vague, ask one gentle follow-up.
When all four questions have been answered, reply with the single word FINISHED and nothing else.`

const extractionPrompt = `You will be given the history of an interview about a challenging experience on social media.
Extract the participant's answers into a JSON object with exactly these keys:
"what": what happened,
"context": where it happened and who was involved,
"outcome": how it ended,
"reaction": how the participant reacted or felt.
Use the participant's own words where possible. Respond with the JSON object only.`

const closingInstruction = `Create a scenario based on these responses, in the same format as the example.
Write it in the first person, as the person who had the experience.
Respond with a JSON object with a single key "output_scenario".`

const adaptationPrompt = `You help a young person refine a short first-person scenario about an experience on social media.
Apply the requested change and keep everything else as close to the original as possible.
Respond with a JSON object with a single key "new_scenario".`

// workedExample is the one-shot example shown to every persona.
var workedExample = struct {
	AnswerSet
	Scenario string
}{
	AnswerSet: AnswerSet{
		What:     "I posted a video of me dancing and people in my class shared it in a group chat making fun of me.",
		Context:  "It was on a group chat for my year at school, around thirty people saw it.",
		Outcome:  "I deleted the video and stayed off the chat for a few weeks.",
		Reaction: "I felt embarrassed and a bit betrayed because some of them were my friends.",
	},
	Scenario: "I posted a video of myself dancing, just for fun. Then I found out people in my class had shared it " +
		"in our year group chat, about thirty people, and were making fun of me. Some of them were my friends, " +
		"which made it worse. I felt really embarrassed and kind of betrayed, so I deleted the video and stayed " +
		"off the chat for a few weeks.",
}

// cannedTranscript replaces the participant's interview when testing mode is on.
var cannedTranscript = Transcript{
	{Role: RoleAssistant, Text: IntroMessage},
	{Role: RoleUser, Text: "Ready."},
	{Role: RoleAssistant, Text: "Great. Can you tell me about a specific time something online upset you?"},
	{Role: RoleUser, Text: "I shared that I was struggling to learn to code and asked for tips."},
	{Role: RoleAssistant, Text: "Where did this happen and who was involved?"},
	{Role: RoleUser, Text: "On a public forum. People from my own course replied."},
	{Role: RoleAssistant, Text: "What happened in the end?"},
	{Role: RoleUser, Text: "They laughed at the post and made memes of my question. I took it down."},
	{Role: RoleAssistant, Text: "How did you feel about it?"},
	{Role: RoleUser, Text: "Annoyed and embarrassed, but I talked to my tutor and felt better."},
	{Role: RoleAssistant, Text: Sentinel},
}

func scenarioUserPrompt(answers AnswerSet) string {
	var b strings.Builder
	b.WriteString("Example:\n")
	writeAnswers(&b, workedExample.AnswerSet)
	fmt.Fprintf(&b, "Scenario: %s\n\n", workedExample.Scenario)
	b.WriteString("Responses:\n")
	writeAnswers(&b, answers)
	b.WriteString("\n")
	b.WriteString(closingInstruction)
	return b.String()
}

func writeAnswers(b *strings.Builder, a AnswerSet) {
	fmt.Fprintf(b, "What happened: %s\n", a.What)
	fmt.Fprintf(b, "Context: %s\n", a.Context)
	fmt.Fprintf(b, "Outcome: %s\n", a.Outcome)
	fmt.Fprintf(b, "Reaction: %s\n", a.Reaction)
}

func adaptationUserPrompt(scenario, instruction string) string {
	return fmt.Sprintf("Scenario:\n%s\n\nRequested change:\n%s", scenario, instruction)
}

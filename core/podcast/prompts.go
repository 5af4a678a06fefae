package podcast

import (
	"strings"

	"podforge/model"
)

// structurePromptTemplate instructs the model to produce the five-slot
// outline. The five slots must always be present, even when left empty.
const structurePromptTemplate = `
Generate up to five distinct podcast topics based on the provided input phrase. The output must be in {LANGUAGE} and strictly in JSON format, with only the following structure:

{
  "1": { "topic": "", "description": "" },
  "2": { "topic": "", "description": "" },
  "3": { "topic": "", "description": "" },
  "4": { "topic": "", "description": "" },
  "5": { "topic": "", "description": "" }
}

Instructions:
1. Sequential Filling: Topics must be filled sequentially from "1" to "5". No entries should be skipped. If fewer than five topics are provided, the remaining entries must still be included in the structure but left empty.
2. Cohesive Story: Each podcast topic must relate directly to the input phrase and contribute to a larger cohesive narrative. Each topic must make sense as an individual episode but should also build upon the others.
3. Interconnected Themes: The topics should connect to each other, creating a bigger picture when viewed together, while each still provides value independently, influenced directly by the input phrase "{THEME}".
4. Structure Consistency: Ensure the output is strictly in the format provided, and no additional text, explanation, or formatting is included beyond the JSON structure.
`

// transcriptionPromptTemplate instructs the model to produce the two-speaker
// dialogue. The minimum round count is enforced by prompt text only.
const transcriptionPromptTemplate = `
Generate a long-form podcast discussion in {LANGUAGE} between two speakers about the provided topic "{TOPIC}". The output must be formatted strictly in JSON with the following structure:

{
  "rounds": [
    { "speaker0": "", "speaker1": "" },
    ...
  ]
}

Instructions:
1. Rounds Minimum: The conversation must include a minimum of 25 rounds. Each round must represent one exchange between "speaker0" and "speaker1". The conversation should be long, detailed, and thorough, never brief or shallow.
2. Speaker Labels: Use "speaker0" for one speaker and "speaker1" for the other. Alternate between the two speakers in each round and keep the label order consistent throughout.
3. Length and Depth: Each speaker must engage in detailed responses, adding new information, expanding on prior points, and exploring all facets of the provided topic "{TOPIC}".
4. Focus: The conversation must remain exclusively on the provided topic "{TOPIC}" in every round, with each speaker contributing new insights, ideas, and perspectives.
5. Structured Progression: Start with an introduction in the first few rounds, progress through different angles of the topic, and keep a logical, connected flow.
6. Natural Flow: The conversation must feel like two experts deeply engaged in the topic, with one speaker building on the previous speaker's point.
7. Conclude Thoughtfully: The final rounds must wrap up the discussion naturally, summarizing the key points covered.
8. Strict JSON Structure: The output must strictly adhere to the JSON structure provided, with no extra text, explanations, or formatting beyond the structure.
`

// BuildStructureMessages assembles the chat messages for the structure stage.
func BuildStructureMessages(language, theme string) []model.OpenAIChatMessage {
	system := strings.NewReplacer("{LANGUAGE}", language, "{THEME}", theme).Replace(structurePromptTemplate)
	return []model.OpenAIChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: theme},
	}
}

// BuildTranscriptionMessages assembles the chat messages for the
// transcription stage, discussing only the first outline topic.
func BuildTranscriptionMessages(language, topic string) []model.OpenAIChatMessage {
	system := strings.NewReplacer("{LANGUAGE}", language, "{TOPIC}", topic).Replace(transcriptionPromptTemplate)
	return []model.OpenAIChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: topic},
	}
}

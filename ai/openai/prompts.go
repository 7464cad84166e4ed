package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/topiary/ai"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {
            "type": "string"
          },
          "type": {
            "type": "string"
          },
          "description": {
            "type": "string"
          }
        },
        "required": ["name", "type", "description"],
        "additionalProperties": false
      }
    },
    "relationships": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source": {
            "type": "string"
          },
          "target": {
            "type": "string"
          },
          "description": {
            "type": "string"
          }
        },
        "required": ["source", "target", "description"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities", "relationships"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Extract the entities mentioned in the given text and the relationships between them, and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Entity names use the surface form from the text, e.g. "Admiral Nimitz", not "admiral".
- Type field must match exactly one of the listed values: %s.
- Each entity description is one sentence summarizing what the text says about it.
- Each relationship connects two entities from the "entities" array by name; source and target must match entity names exactly.
- Each relationship description is one declarative sentence stating the relationship.
- Include only entities and relationships that are explicitly stated or clearly implied by the text. Do not hallucinate.
- If nothing can be identified, return "entities": [] and "relationships": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Admiral Nimitz commanded the Pacific Fleet from Pearl Harbor after 1941."
Output:
{
  "entities": [
    {"name":"Admiral Nimitz","type":"person","description":"Admiral Nimitz commanded the Pacific Fleet."},
    {"name":"Pacific Fleet","type":"organization","description":"The Pacific Fleet was commanded by Admiral Nimitz."},
    {"name":"Pearl Harbor","type":"place","description":"Pearl Harbor was the base the Pacific Fleet was commanded from."}
  ],
  "relationships": [
    {"source":"Admiral Nimitz","target":"Pacific Fleet","description":"Admiral Nimitz commanded the Pacific Fleet."},
    {"source":"Pacific Fleet","target":"Pearl Harbor","description":"The Pacific Fleet was based at Pearl Harbor."}
  ]
}

Example (nothing to extract):
Input: "hmm ok"
Output:
{
  "entities": [],
  "relationships": []
}`

// buildExtractionPrompt creates the system prompt with entity types embedded.
func buildExtractionPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(ai.EntityTypes, ", "))
}

const answerPromptTemplate = `You answer questions using only the provided knowledge graph context.

The context is a list of known relationships between entities, each with a relevance score.
Base your answer strictly on these relationships. If the context does not contain enough
information to answer, say so plainly. Do not invent facts. Answer concisely in prose.`

// buildAnswerPrompt returns the system prompt for answer synthesis.
func buildAnswerPrompt() string {
	return answerPromptTemplate
}

package explain

import (
	"fmt"
	"strings"
)

// BuildPrompt asks for a strict JSON array: one object per predicted disease, or a
// single rejection object when the text does not describe symptoms.
func BuildPrompt(symptoms string, labels []string) string {
	return fmt.Sprintf(`You are a medical information assistant.

User Symptoms: %s
Predicted Diseases: %s

First decide whether the user symptoms are a medically meaningful description.

If they are NOT (random text, greetings, unrelated questions), respond with exactly this JSON array:
[{"symptoms": "<the user symptoms>", "response": "<one sentence asking the user to describe real symptoms>"}]

Otherwise respond with a JSON array containing one object per predicted disease, in the same order:
[
  {
    "Disease Name": "<disease>",
    "Description": "<short description>",
    "Treatment": "<common treatment>",
    "Prevention": "<prevention advice>"
  }
]

Rules:
- Output only the JSON array, with no text before or after it.
- Keep it medically correct and short.
- Do not add emojis.`, symptoms, strings.Join(labels, ", "))
}

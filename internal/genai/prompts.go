package genai

import (
	"fmt"
	"strings"
)

// GenerateInstruction builds the system instruction for creating a new
// flowchart from a prompt, constrained to the given shape set.
func GenerateInstruction(shapes []string) string {
	return fmt.Sprintf(`You are a STRICT flowchart generator.
Rules:
- Respond ONLY with valid JSON for a flowchart model.
- JSON MUST have "nodeDataArray" and "linkDataArray".
- Each node must include: { "key": int, "text": string, "loc": "x y", "shape": string }.
- Supported shapes: %s.
- Each link must include: { "from": key, "to": key, "text": optional label }.
- Do NOT include explanations or text.`, strings.Join(shapes, ", "))
}

// EditInstruction builds the system instruction for modifying an existing
// flowchart according to a user instruction.
func EditInstruction(shapes []string) string {
	return fmt.Sprintf(`You are a STRICT flowchart editor.
Rules:
- You will receive existing flowchart JSON and a user instruction.
- Modify ONLY according to the instruction.
- Keep nodeDataArray and linkDataArray intact unless instructed.
- Ensure every node has "key", "text", "loc", "shape".
- Supported shapes: %s.
- Return ONLY valid JSON.`, strings.Join(shapes, ", "))
}

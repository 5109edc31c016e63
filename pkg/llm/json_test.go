package llm

import (
	"testing"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	input := `{"name": "test", "value": 123}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_PlainArray(t *testing.T) {
	input := `[{"name": "test"}, {"name": "test2"}]`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_NestedArraysAndObjects(t *testing.T) {
	input := `{"items": [{"nested": {"array": [1, 2, 3]}}]}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_WithThinkTags(t *testing.T) {
	input := `<think>
Let me analyze this product row...
The width attribute looks numeric.
</think>
{"name": "WIDTH", "value": 600}`

	expected := `{"name": "WIDTH", "value": 600}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_MarkdownCodeBlock(t *testing.T) {
	input := "Here is the classification:\n```json\n{\"type\": \"number\", \"filterable\": true}\n```"

	expected := `{"type": "number", "filterable": true}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_WithTextBeforeAndAfter(t *testing.T) {
	input := `Here is the JSON response:
{"name": "test"}
Let me know if you need anything else.`

	expected := `{"name": "test"}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_BracketsInStrings(t *testing.T) {
	input := `{"message": "Use {braces} and [brackets] in text", "count": 1}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_EscapedQuotesInStrings(t *testing.T) {
	input := `{"message": "He said \"hello\"", "valid": true}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	input := `This is just plain text with no JSON.`
	_, err := ExtractJSON(input)
	if err == nil {
		t.Error("expected error for input with no JSON")
	}
}

func TestExtractJSON_InvalidJSON(t *testing.T) {
	input := `{"unclosed": "object"`
	_, err := ExtractJSON(input)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestExtractJSON_EmptyInput(t *testing.T) {
	input := ``
	_, err := ExtractJSON(input)
	if err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseJSONResponse_Object(t *testing.T) {
	type classification struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}

	input := `<think>reasoning</think>{"type": "number", "confidence": 0.9}`
	result, err := ParseJSONResponse[classification](input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Type != "number" {
		t.Errorf("expected type 'number', got %q", result.Type)
	}
	if result.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", result.Confidence)
	}
}

func TestParseJSONResponse_Array(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}

	input := `[{"name": "WIDTH"}, {"name": "HEIGHT"}]`
	result, err := ParseJSONResponse[[]item](input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 items, got %d", len(result))
	}
	if result[0].Name != "WIDTH" {
		t.Errorf("expected first name 'WIDTH', got %q", result[0].Name)
	}
}

func TestParseJSONResponse_TypeMismatch(t *testing.T) {
	type classification struct {
		Confidence float64 `json:"confidence"`
	}

	input := `{"confidence": "not-a-number"}`
	_, err := ParseJSONResponse[classification](input)
	if err == nil {
		t.Error("expected unmarshal error for type mismatch")
	}
}

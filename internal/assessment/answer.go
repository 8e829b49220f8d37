package assessment

import (
	"bytes"
	"encoding/json"
	"strings"
)

// AnswerKey holds a question's correct answer. Only single string answers
// can be normalized; any other JSON shape (multi-select arrays, numbers,
// null) decodes without error into a key that never matches.
type AnswerKey struct {
	text  string
	valid bool
	raw   json.RawMessage
}

// TextAnswer returns a key for a single string answer.
func TextAnswer(s string) AnswerKey {
	return AnswerKey{text: s, valid: true}
}

// Text returns the string answer and whether the key is normalizable.
func (k AnswerKey) Text() (string, bool) {
	return k.text, k.valid
}

// UnmarshalJSON accepts any JSON value.
func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*k = AnswerKey{text: s, valid: true}
		return nil
	}
	*k = AnswerKey{raw: append(json.RawMessage(nil), data...)}
	return nil
}

// MarshalJSON writes the original value back out.
func (k AnswerKey) MarshalJSON() ([]byte, error) {
	if k.valid {
		return json.Marshal(k.text)
	}
	if len(k.raw) == 0 {
		return []byte("null"), nil
	}
	return k.raw, nil
}

// Matches reports whether answer equals the key after trimming whitespace,
// ignoring case. An unnormalizable or blank key never matches.
func (k AnswerKey) Matches(answer string) bool {
	if !k.valid {
		return false
	}
	want := strings.TrimSpace(k.text)
	if want == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), want)
}

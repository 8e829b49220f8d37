package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/assessment-engine/internal/assessment"
)

const jsonRequest = `{
	"student_id": "stu-1",
	"test_id": "test-1",
	"questions": [
		{"id": 1, "difficulty_level": 5, "learning_objective": "fractions", "correct_answer": "a"},
		{"id": 2, "difficulty_level": 8, "learning_objective": "fractions", "correct_answer": "b"}
	],
	"responses": [
		{"question_id": 1, "answer": "a", "response_time_seconds": 20},
		{"question_id": 2, "answer": "b", "response_time_seconds": 25}
	]
}`

const yamlRequest = `
student_id: stu-1
test_id: test-1
questions:
  - id: 1
    difficulty_level: 5
    learning_objective: fractions
    correct_answer: a
  - id: 2
    difficulty_level: 8
    learning_objective: fractions
    correct_answer: b
responses:
  - question_id: 1
    answer: a
    response_time_seconds: 20
  - question_id: 2
    answer: b
    response_time_seconds: 25
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := runWithStderr(t, stdin, args...)
	return out, err
}

func runWithStderr(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestAnalyze_JSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := run(t, "", "analyze", "--file", writeFile(t, "req.json", jsonRequest), "--format", "json")
	require.NoError(t, err)
	fromYAML, err := run(t, "", "analyze", "--file", writeFile(t, "req.yaml", yamlRequest), "--format", "json")
	require.NoError(t, err)

	assert.JSONEq(t, fromJSON, fromYAML)

	var res assessment.Result
	require.NoError(t, json.Unmarshal([]byte(fromJSON), &res))
	require.Len(t, res.Competencies, 1)
	assert.Equal(t, 100, res.Competencies[0].CompetencyLevel)
	assert.Equal(t, 72, res.Competencies[0].ConfidenceScore)
	assert.Equal(t, 3, res.DifficultyAdjustment)
	assert.Equal(t, assessment.StateExhausted, res.State)
}

func TestAnalyze_TextFromStdinWithInsights(t *testing.T) {
	out, err := run(t, jsonRequest, "analyze", "-f", "-", "--insights")
	require.NoError(t, err)

	assert.Contains(t, out, "student: stu-1  test: test-1")
	assert.Contains(t, out, "fractions")
	assert.Contains(t, out, "difficulty adjustment: +3")
	assert.Contains(t, out, "next question: none (exhausted)")
	assert.Contains(t, out, "insight (rules): style=rapid predicted=100 readiness=advance")
}

func TestAnalyze_WarnsOnNumericYAMLAnswerKey(t *testing.T) {
	body := strings.Replace(yamlRequest, "correct_answer: a", "correct_answer: 4", 1)
	path := writeFile(t, "req.yaml", body)

	_, stderr, err := runWithStderr(t, "", "analyze", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "correct_answer is not a string")

	_, stderr, err = runWithStderr(t, "", "analyze", "--file", writeFile(t, "quoted.yaml", yamlRequest))
	require.NoError(t, err)
	assert.NotContains(t, stderr, "correct_answer is not a string")
}

func TestAnalyze_RejectsInvalidRequest(t *testing.T) {
	_, err := run(t, `{"questions": []}`, "analyze", "-f", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
}

func TestAnalyze_RejectsUnknownFormat(t *testing.T) {
	_, err := run(t, jsonRequest, "analyze", "-f", "-", "--format", "xml")
	require.Error(t, err)
}

func TestAnalyze_RequiresFile(t *testing.T) {
	_, err := run(t, "", "analyze")
	require.Error(t, err)
}

func TestSchema_PrintsSchema(t *testing.T) {
	out, err := run(t, "", "schema")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "AnalysisRequest", doc["title"])
}

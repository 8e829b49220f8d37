package analysis

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gokatarajesh/assessment-engine/internal/assessment"
)

//go:embed schema/request.schema.json
var requestSchemaJSON []byte

const requestSchemaURL = "schema://analysis-request.json"

var (
	compileOnce   sync.Once
	compiled      *jsonschema.Schema
	compileErr    error
	schemaPrinter = message.NewPrinter(language.English)
)

// RequestSchema returns the JSON schema that analysis requests must satisfy.
func RequestSchema() []byte {
	return append([]byte(nil), requestSchemaJSON...)
}

func requestSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(requestSchemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse request schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(requestSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add request schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(requestSchemaURL)
	})
	return compiled, compileErr
}

// DecodeRequest parses raw JSON into a request after validating it against
// the request schema. Caller mistakes are reported as *ValidationError.
func DecodeRequest(raw []byte) (assessment.Request, error) {
	var req assessment.Request

	schema, err := requestSchema()
	if err != nil {
		return req, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return req, &ValidationError{Message: "body is not valid JSON"}
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return req, toValidationError(ve)
		}
		return req, &ValidationError{Message: err.Error()}
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		return req, &ValidationError{Message: fmt.Sprintf("decode request: %v", err)}
	}
	return req, nil
}

// toValidationError reports the deepest first cause, which names the
// offending field.
func toValidationError(ve *jsonschema.ValidationError) *ValidationError {
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &ValidationError{
		Field:   "/" + strings.Join(leaf.InstanceLocation, "/"),
		Message: leaf.ErrorKind.LocalizedString(schemaPrinter),
	}
}

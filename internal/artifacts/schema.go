package artifacts

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed docs.schema.json
var docsSchemaJSON []byte

const docsSchemaURL = "https://textsearch.local/schema/text-search-docs.json"

var (
	docsSchemaOnce sync.Once
	docsSchema     *jsonschema.Schema
	docsSchemaErr  error
)

func compiledDocsSchema() (*jsonschema.Schema, error) {
	docsSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(docsSchemaJSON))
		if err != nil {
			docsSchemaErr = fmt.Errorf("artifacts: parse documents schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(docsSchemaURL, doc); err != nil {
			docsSchemaErr = fmt.Errorf("artifacts: add documents schema: %w", err)
			return
		}
		docsSchema, docsSchemaErr = compiler.Compile(docsSchemaURL)
	})
	return docsSchema, docsSchemaErr
}

// ValidateDocs checks a documents artifact against the documents schema.
func ValidateDocs(data []byte) error {
	schema, err := compiledDocsSchema()
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("artifacts: %s is not valid JSON", DocsFile)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("artifacts: decode %s: %w", DocsFile, err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("artifacts: %s: %w", DocsFile, err)
	}
	return nil
}

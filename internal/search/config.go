package search

// Field names understood by the index.
const (
	FieldID         = "id"
	FieldTitle      = "title"
	FieldContent    = "content"
	FieldSnippet    = "snippet"
	FieldSourcePath = "sourcePath"
	FieldMetaTitle  = "metaTitle"
	FieldType       = "type"
	FieldStoryID    = "storyId"
)

// TokenizeForward indexes every prefix of each term so partial words match.
const TokenizeForward = "forward"

// DefaultLimit caps the hits returned per field when a query sets no limit.
const DefaultLimit = 10

// Config describes index behavior.
type Config struct {
	// Fields lists the document fields that are tokenized and searchable.
	Fields []string `json:"fields"`
	// Store lists the document fields kept inline so hits can be rendered
	// without a second lookup. The id is always stored.
	Store []string `json:"store"`
	// Tokenize names the tokenization strategy. Only forward is supported.
	Tokenize string `json:"tokenize"`
}

// DefaultConfig indexes title and content and stores every display field.
func DefaultConfig() Config {
	return Config{
		Fields:   []string{FieldTitle, FieldContent},
		Store:    []string{FieldID, FieldTitle, FieldContent, FieldSnippet, FieldSourcePath, FieldMetaTitle, FieldType, FieldStoryID},
		Tokenize: TokenizeForward,
	}
}

// Query represents a search request against the index.
type Query struct {
	// Term is the free-text query to evaluate against indexed fields.
	Term string
	// Limit caps the hits per field. Zero selects DefaultLimit.
	Limit int
	// Suggest keeps documents that match only some of the query terms,
	// ranked after documents matching all of them.
	Suggest bool
	// Fields restricts the searched fields. Empty searches every indexed
	// field in configuration order.
	Fields []string
}

// Result captures the ranked hits for one field.
type Result struct {
	Field string
	Hits  []SearchDoc
}

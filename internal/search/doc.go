package search

import "strings"

// DocType classifies a source file.
type DocType string

const (
	TypeMDX   DocType = "mdx"
	TypeStory DocType = "story"
	TypeOther DocType = "other"
)

// SearchDoc is the unit of indexing and retrieval.
type SearchDoc struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	MetaTitle  string  `json:"metaTitle,omitempty"`
	Snippet    string  `json:"snippet"`
	SourcePath string  `json:"sourcePath"`
	Type       DocType `json:"type"`
	StoryID    string  `json:"storyId,omitempty"`
}

// Sanitized returns a copy of d with invalid UTF-8 in every string field
// replaced by U+FFFD, the form the document takes after a JSON round trip.
func (d SearchDoc) Sanitized() SearchDoc {
	clean := func(v string) string { return strings.ToValidUTF8(v, "\uFFFD") }
	return SearchDoc{
		ID:         clean(d.ID),
		Title:      clean(d.Title),
		Content:    clean(d.Content),
		MetaTitle:  clean(d.MetaTitle),
		Snippet:    clean(d.Snippet),
		SourcePath: clean(d.SourcePath),
		Type:       DocType(clean(string(d.Type))),
		StoryID:    clean(d.StoryID),
	}
}

// DisplayTitle returns the meta title when present, otherwise the title.
func (d SearchDoc) DisplayTitle() string {
	if d.MetaTitle != "" {
		return d.MetaTitle
	}
	return d.Title
}

// Field returns the value of the named field.
func (d SearchDoc) Field(name string) string {
	switch name {
	case FieldID:
		return d.ID
	case FieldTitle:
		return d.Title
	case FieldContent:
		return d.Content
	case FieldSnippet:
		return d.Snippet
	case FieldSourcePath:
		return d.SourcePath
	case FieldMetaTitle:
		return d.MetaTitle
	case FieldType:
		return string(d.Type)
	case FieldStoryID:
		return d.StoryID
	default:
		return ""
	}
}

// project returns a copy of d that keeps only the named fields and the id.
func (d SearchDoc) project(fields []string) SearchDoc {
	out := SearchDoc{ID: d.ID}
	for _, name := range fields {
		switch name {
		case FieldTitle:
			out.Title = d.Title
		case FieldContent:
			out.Content = d.Content
		case FieldSnippet:
			out.Snippet = d.Snippet
		case FieldSourcePath:
			out.SourcePath = d.SourcePath
		case FieldMetaTitle:
			out.MetaTitle = d.MetaTitle
		case FieldType:
			out.Type = d.Type
		case FieldStoryID:
			out.StoryID = d.StoryID
		}
	}
	return out
}

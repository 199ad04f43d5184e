package notion

// Parent points a new page or database at its container.
type Parent struct {
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

type PageRequest struct {
	Parent     Parent         `json:"parent"`
	Properties map[string]any `json:"properties"`
}

type Page struct {
	ID          string         `json:"id"`
	URL         string         `json:"url,omitempty"`
	CreatedTime string         `json:"created_time,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

type DatabaseRequest struct {
	Parent     Parent         `json:"parent"`
	Title      []RichText     `json:"title"`
	Properties map[string]any `json:"properties"`
}

type Database struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

type QueryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

type QueryResult struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type RichText struct {
	Type string `json:"type,omitempty"`
	Text Text   `json:"text"`
}

type Text struct {
	Content string `json:"content"`
}

// Property values.

func Title(s string) map[string]any {
	return map[string]any{"title": []RichText{{Text: Text{Content: s}}}}
}

func RichTextValue(s string) map[string]any {
	return map[string]any{"rich_text": []RichText{{Text: Text{Content: s}}}}
}

func Number[T int | float64](v T) map[string]any {
	return map[string]any{"number": v}
}

func Select(name string) map[string]any {
	return map[string]any{"select": map[string]string{"name": name}}
}

// Property schemas, for CreateDatabase.

type SelectOption struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func TitleSchema() map[string]any {
	return map[string]any{"title": struct{}{}}
}

func RichTextSchema() map[string]any {
	return map[string]any{"rich_text": struct{}{}}
}

func NumberSchema() map[string]any {
	return map[string]any{"number": map[string]string{"format": "number"}}
}

func SelectSchema(opts ...SelectOption) map[string]any {
	return map[string]any{"select": map[string]any{"options": opts}}
}

// PlainTitle returns the title text of a database row, or "".
func (p Page) PlainTitle() string {
	for _, v := range p.Properties {
		prop, ok := v.(map[string]any)
		if !ok || prop["type"] != "title" {
			continue
		}
		parts, _ := prop["title"].([]any)
		var out string
		for _, part := range parts {
			if m, ok := part.(map[string]any); ok {
				if s, ok := m["plain_text"].(string); ok {
					out += s
				}
			}
		}
		return out
	}
	return ""
}

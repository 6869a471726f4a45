package lexical

// SerializedState is the top-level shape of a serialized Lexical editor state.
type SerializedState struct {
	Root SerializedNode `json:"root"`
}

// SerializedNode is any node in serialized Lexical JSON.
type SerializedNode struct {
	Type     string           `json:"type"`
	Version  int              `json:"version"`
	Children []SerializedNode `json:"children,omitempty"`

	// Text specific
	Text   string      `json:"text,omitempty"`
	Format interface{} `json:"format,omitempty"` // int bitmask on text, alignment string on elements
	Style  string      `json:"style,omitempty"`
	Mode   string      `json:"mode,omitempty"`
	Detail int         `json:"detail,omitempty"`

	// Element specific
	Direction string `json:"direction,omitempty"`
	Indent    int    `json:"indent,omitempty"`

	// Link specific
	URL string `json:"url,omitempty"`

	// Heading and list specific
	ListType string `json:"listType,omitempty"` // check, bullet, number
	Start    int    `json:"start,omitempty"`
	Tag      string `json:"tag,omitempty"`

	// ListItem specific
	Checked bool `json:"checked,omitempty"`
	Value   int  `json:"value,omitempty"`
}

// textFormat reads the bitmask of a serialized text node. JSON numbers decode as float64.
func (n SerializedNode) textFormat() Format {
	switch f := n.Format.(type) {
	case float64:
		return Format(int(f))
	case int:
		return Format(f)
	}
	return 0
}

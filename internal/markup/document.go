package markup

import "fmt"

// Kind identifies how a span should be styled.
type Kind uint8

const (
	Plain Kind = iota
	Bold
	Italic
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the kind as its lowercase name.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Plain, Bold, Italic:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("markup: unknown kind %d", uint8(k))
}

// UnmarshalText decodes "plain", "bold" or "italic".
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "plain":
		*k = Plain
	case "bold":
		*k = Bold
	case "italic":
		*k = Italic
	default:
		return fmt.Errorf("markup: unknown kind %q", string(b))
	}
	return nil
}

// Span is a run of text within one line.
type Span struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Line holds the spans of one input line. Last is set only on the final line;
// renderers emit a break after every other line.
type Line struct {
	Spans []Span `json:"spans"`
	Last  bool   `json:"last,omitempty"`
}

// Document is the formatted form of a multi-line string.
type Document struct {
	Lines []Line `json:"lines"`
}

package domain

// OutlineNodeKind tags the level of an outline node.
type OutlineNodeKind int

const (
	OutlineSection OutlineNodeKind = iota + 1
	OutlineCategory
	// OutlineTopic covers both topics and their subtopic leaves.
	OutlineTopic
)

func (k OutlineNodeKind) String() string {
	switch k {
	case OutlineSection:
		return "section"
	case OutlineCategory:
		return "category"
	case OutlineTopic:
		return "topic"
	default:
		return "unknown"
	}
}

// OutlineNode is one node of the table of contents.
type OutlineNode struct {
	Kind     OutlineNodeKind `json:"kind"`
	Title    string          `json:"title"`
	Pages    []int           `json:"pages,omitempty"`
	Children []OutlineNode   `json:"children,omitempty"`
}

// OutlineRecord is a flattened outline entry with a non-empty page list.
type OutlineRecord struct {
	ID       int    `json:"id"`
	Section  string `json:"section,omitempty"`
	Category string `json:"category"`
	Topic    string `json:"topic,omitempty"`
	Subtopic string `json:"subtopic,omitempty"`
	Pages    []int  `json:"pages"`
}

// Title joins the non-empty levels of the record.
func (r OutlineRecord) Title() string {
	out := r.Category
	for _, part := range []string{r.Topic, r.Subtopic} {
		if part == "" {
			continue
		}
		out += " > " + part
	}
	return out
}

type OutlineMatch struct {
	RecordID int      `json:"record_id"`
	Category string   `json:"category"`
	Topic    string   `json:"topic,omitempty"`
	Subtopic string   `json:"subtopic,omitempty"`
	Pages    []int    `json:"pages"`
	Terms    []string `json:"terms,omitempty"`
}

// OutlineResult is the outcome of matching a question against the outline.
type OutlineResult struct {
	Pages   []int          `json:"pages"`
	Matches []OutlineMatch `json:"matches"`
}

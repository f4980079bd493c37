// Package outline turns the textbook table of contents into a page lookup
// that maps a question to the pages of the sections it talks about.
package outline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

const maxReportProblems = 20

// Tree is the parsed outline: a list of section nodes.
type Tree struct {
	Sections []domain.OutlineNode
}

// ParseReport counts what Parse kept and what it skipped.
type ParseReport struct {
	Sections   int      `json:"sections"`
	Categories int      `json:"categories"`
	Topics     int      `json:"topics"`
	Subtopics  int      `json:"subtopics"`
	Skipped    int      `json:"skipped"`
	Problems   []string `json:"problems,omitempty"`
}

func (r *ParseReport) skip(format string, args ...any) {
	r.Skipped++
	if len(r.Problems) < maxReportProblems {
		r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
	}
}

type rawSection struct {
	Section    *string           `json:"section"`
	Pages      json.RawMessage   `json:"pages"`
	Categories []json.RawMessage `json:"categories"`
}

type rawCategory struct {
	Category *string           `json:"category"`
	Pages    json.RawMessage   `json:"pages"`
	Topics   []json.RawMessage `json:"topics"`
}

type rawTopic struct {
	Topic     *string           `json:"topic"`
	Pages     json.RawMessage   `json:"pages"`
	Subtopics []json.RawMessage `json:"subtopics"`
}

type rawSubtopic struct {
	Subtopic *string         `json:"subtopic"`
	Pages    json.RawMessage `json:"pages"`
}

// Parse decodes the nested outline document. Malformed entries are skipped
// one by one and recorded in the report; only a document that is not JSON
// at all yields an empty tree with a single problem.
func Parse(raw []byte) (*Tree, ParseReport) {
	var report ParseReport
	tree := &Tree{}

	sections, err := topLevelSections(raw)
	if err != nil {
		report.skip("outline document: %v", err)
		return tree, report
	}

	for i, rs := range sections {
		var s rawSection
		if err := json.Unmarshal(rs, &s); err != nil {
			report.skip("section[%d]: %v", i, err)
			continue
		}
		// sections only group categories, so an untitled one is kept
		node := domain.OutlineNode{
			Kind:  domain.OutlineSection,
			Title: trimmed(s.Section),
			Pages: parsePages(s.Pages, &report, fmt.Sprintf("section[%d]", i)),
		}
		for j, rc := range s.Categories {
			if cat, ok := parseCategory(rc, &report, fmt.Sprintf("section[%d].category[%d]", i, j)); ok {
				node.Children = append(node.Children, cat)
			}
		}
		report.Sections++
		tree.Sections = append(tree.Sections, node)
	}
	return tree, report
}

// ParseYAML accepts the same structure authored as YAML.
func ParseYAML(raw []byte) (*Tree, ParseReport) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		var report ParseReport
		report.skip("outline yaml: %v", err)
		return &Tree{}, report
	}
	converted, err := json.Marshal(doc)
	if err != nil {
		var report ParseReport
		report.skip("outline yaml: %v", err)
		return &Tree{}, report
	}
	return Parse(converted)
}

func topLevelSections(raw []byte) ([]json.RawMessage, error) {
	trimmedRaw := bytes.TrimSpace(raw)
	if len(trimmedRaw) == 0 {
		return nil, nil
	}
	switch trimmedRaw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmedRaw, &list); err != nil {
			return nil, err
		}
		return list, nil
	case '{':
		var wrapper struct {
			Sections []json.RawMessage `json:"sections"`
		}
		if err := json.Unmarshal(trimmedRaw, &wrapper); err == nil && wrapper.Sections != nil {
			return wrapper.Sections, nil
		}
		return []json.RawMessage{trimmedRaw}, nil
	default:
		return nil, fmt.Errorf("expected array or object")
	}
}

func parseCategory(raw json.RawMessage, report *ParseReport, path string) (domain.OutlineNode, bool) {
	var c rawCategory
	if err := json.Unmarshal(raw, &c); err != nil {
		report.skip("%s: %v", path, err)
		return domain.OutlineNode{}, false
	}
	title := trimmed(c.Category)
	if title == "" {
		report.skip("%s: missing category title", path)
		return domain.OutlineNode{}, false
	}
	node := domain.OutlineNode{
		Kind:  domain.OutlineCategory,
		Title: title,
		Pages: parsePages(c.Pages, report, path),
	}
	for k, rt := range c.Topics {
		topicPath := fmt.Sprintf("%s.topic[%d]", path, k)
		var t rawTopic
		if err := json.Unmarshal(rt, &t); err != nil {
			report.skip("%s: %v", topicPath, err)
			continue
		}
		topicTitle := trimmed(t.Topic)
		if topicTitle == "" {
			report.skip("%s: missing topic title", topicPath)
			continue
		}
		topic := domain.OutlineNode{
			Kind:  domain.OutlineTopic,
			Title: topicTitle,
			Pages: parsePages(t.Pages, report, topicPath),
		}
		for m, rsub := range t.Subtopics {
			subPath := fmt.Sprintf("%s.subtopic[%d]", topicPath, m)
			var sub rawSubtopic
			if err := json.Unmarshal(rsub, &sub); err != nil {
				report.skip("%s: %v", subPath, err)
				continue
			}
			subTitle := trimmed(sub.Subtopic)
			if subTitle == "" {
				report.skip("%s: missing subtopic title", subPath)
				continue
			}
			topic.Children = append(topic.Children, domain.OutlineNode{
				Kind:  domain.OutlineTopic,
				Title: subTitle,
				Pages: parsePages(sub.Pages, report, subPath),
			})
			report.Subtopics++
		}
		node.Children = append(node.Children, topic)
		report.Topics++
	}
	report.Categories++
	return node, true
}

// parsePages accepts integers, integral floats, numeric strings and
// "a-b" range strings. Invalid items are dropped; the result is unique and
// ascending.
func parsePages(raw json.RawMessage, report *ParseReport, path string) []int {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		report.skip("%s.pages: not an array", path)
		return nil
	}

	seen := make(map[int]struct{}, len(items))
	add := func(n int) {
		if n >= 1 {
			seen[n] = struct{}{}
		}
	}
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			if v >= 1 && v == math.Trunc(v) && v <= math.MaxInt32 {
				add(int(v))
				continue
			}
			report.skip("%s.pages: invalid page %v", path, v)
		case string:
			from, to, ok := parsePageSpec(v)
			if !ok {
				report.skip("%s.pages: invalid page %q", path, v)
				continue
			}
			for n := from; n <= to; n++ {
				add(n)
			}
		default:
			report.skip("%s.pages: invalid page %v", path, v)
		}
	}
	return sortedKeys(seen)
}

const maxRangeSpan = 500

func parsePageSpec(s string) (int, int, bool) {
	s = strings.TrimSpace(s)
	if from, to, isRange := strings.Cut(s, "-"); isRange {
		a, errA := strconv.Atoi(strings.TrimSpace(from))
		b, errB := strconv.Atoi(strings.TrimSpace(to))
		if errA != nil || errB != nil || a < 1 || b < a || b-a > maxRangeSpan {
			return 0, 0, false
		}
		return a, b, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, 0, false
	}
	return n, n, true
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

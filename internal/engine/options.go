package engine

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

// Option is one answer choice. Label is a single uppercase letter; Text
// is the normalized body.
type Option struct {
	Label string
	Text  string
}

// OptionSet is an ordered set of parsed options, deduplicated preserving
// first-seen order.
type OptionSet []Option

// TextFor resolves a label to its option text.
func (s OptionSet) TextFor(label string) (string, bool) {
	for _, opt := range s {
		if opt.Label == label {
			return opt.Text, true
		}
	}
	return "", false
}

func (s OptionSet) Texts() []string {
	texts := make([]string, len(s))
	for i, opt := range s {
		texts[i] = opt.Text
	}
	return texts
}

// ExtractOptions parses answer options out of free text (a question or a
// standalone options block). Results are memoized by exact input text in
// a bounded cache; extraction itself is a pure function of its argument.
func (e *Engine) ExtractOptions(text string) OptionSet {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if set, ok := e.memo.get(text); ok {
		return set
	}
	set := extractOptions(text)
	e.memo.put(text, set)
	return set
}

// Label grammars: a parenthesized letter（A）/(A) with optional trailing
// punctuation, or a bare letter followed by required punctuation A. A、A:.
var (
	inlineLabelRe = regexp.MustCompile(`[（(]\s*([A-Z])\s*[）)]\s*[.、:．：]?\s*|([A-Z])\s*[.、:．：]\s*`)
	lineLabelRe   = regexp.MustCompile(`^\s*(?:([A-Z])\s*[.、:．：]|[（(]\s*([A-Z])\s*[）)]\s*[.、:．：]?)\s*(\S.*)$`)

	sentenceTailRe = regexp.MustCompile(`[。？！?!）)]`)
)

// Space-delimited fallback guards.
const (
	spaceFallbackMinRunes = 20
	spaceFallbackMaxRunes = 400
	spaceFallbackMinToks  = 3
	spaceFallbackMaxToks  = 12
	// Token lengths may stray at most this far from the mean before the
	// run is considered prose rather than an option list.
	spaceFallbackMaxDeviation = 8.0
)

func extractOptions(text string) OptionSet {
	if set := extractInlineLabeled(text); len(set) >= 2 {
		return set
	}
	if set := extractLineLabeled(text); len(set) >= 2 {
		return set
	}
	if set := extractSpaceDelimited(text); len(set) >= 2 {
		return set
	}
	return nil
}

func extractInlineLabeled(text string) OptionSet {
	matches := inlineLabelRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) < 2 {
		return nil
	}

	var set OptionSet
	seen := newOptionDedup()
	for i, m := range matches {
		label := submatch(text, m, 1)
		if label == "" {
			label = submatch(text, m, 2)
		}

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := normalizeText(trimOptionBody(text[m[1]:end]))
		if body == "" {
			continue
		}
		seen.add(&set, label, body)
	}
	return set
}

func extractLineLabeled(text string) OptionSet {
	var set OptionSet
	seen := newOptionDedup()
	for _, line := range strings.Split(text, "\n") {
		m := lineLabelRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label := m[1]
		if label == "" {
			label = m[2]
		}
		body := normalizeText(trimOptionBody(m[3]))
		if body == "" {
			continue
		}
		seen.add(&set, label, body)
	}
	return set
}

// extractSpaceDelimited handles a bare option run like
// "第一次世界大战 清朝灭亡 第一次鸦片战争 八国联军侵华战争", optionally
// preceded by the question sentence. Labels are assigned A, B, C… in
// order of appearance.
func extractSpaceDelimited(text string) OptionSet {
	runes := utf8.RuneCountInString(text)
	if runes < spaceFallbackMinRunes || runes > spaceFallbackMaxRunes {
		return nil
	}
	if strings.Contains(text, "\n") || !strings.Contains(text, " ") {
		return nil
	}

	tail := text
	if locs := sentenceTailRe.FindAllStringIndex(text, -1); len(locs) > 0 {
		tail = text[locs[len(locs)-1][1]:]
	}

	tokens := strings.Fields(tail)
	if len(tokens) < spaceFallbackMinToks || len(tokens) > spaceFallbackMaxToks {
		return nil
	}
	if !tokenLengthsUniform(tokens) {
		return nil
	}

	var set OptionSet
	seen := newOptionDedup()
	for _, tok := range tokens {
		body := normalizeText(tok)
		if body == "" {
			continue
		}
		label := string(rune('A' + len(set)))
		seen.add(&set, label, body)
	}
	if len(set) < 2 {
		return nil
	}
	return set
}

func tokenLengthsUniform(tokens []string) bool {
	total := 0
	lengths := make([]int, len(tokens))
	for i, tok := range tokens {
		n := utf8.RuneCountInString(tok)
		if n < 2 {
			return false
		}
		lengths[i] = n
		total += n
	}
	mean := float64(total) / float64(len(tokens))
	for _, n := range lengths {
		dev := float64(n) - mean
		if dev < 0 {
			dev = -dev
		}
		if dev > spaceFallbackMaxDeviation {
			return false
		}
	}
	return true
}

func trimOptionBody(body string) string {
	body = strings.TrimSpace(body)
	return strings.TrimRight(body, "，,。；;.")
}

func submatch(s string, m []int, group int) string {
	if m[2*group] < 0 {
		return ""
	}
	return s[m[2*group]:m[2*group+1]]
}

// optionDedup drops repeated labels and repeated bodies, keeping the
// first occurrence of each.
type optionDedup struct {
	labels map[string]bool
	bodies map[string]bool
}

func newOptionDedup() *optionDedup {
	return &optionDedup{labels: make(map[string]bool), bodies: make(map[string]bool)}
}

func (d *optionDedup) add(set *OptionSet, label, body string) {
	if (label != "" && d.labels[label]) || d.bodies[body] {
		return
	}
	if label != "" {
		d.labels[label] = true
	}
	d.bodies[body] = true
	*set = append(*set, Option{Label: label, Text: body})
}

// optionCache memoizes extraction results under a single mutex with FIFO
// eviction at a fixed capacity.
type optionCache struct {
	mu    sync.Mutex
	cap   int
	items map[string]OptionSet
	order []string
}

func newOptionCache(capacity int) *optionCache {
	return &optionCache{
		cap:   capacity,
		items: make(map[string]OptionSet, capacity),
	}
}

func (c *optionCache) get(key string) (OptionSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.items[key]
	return set, ok
}

func (c *optionCache) put(key string, set OptionSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		return
	}
	for len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[key] = set
	c.order = append(c.order, key)
}

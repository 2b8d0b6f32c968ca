package entity

// LookupParser selects the response-decoding scheme of an external
// question bank. The two public banks use incompatible envelopes, so the
// scheme is part of the provider config rather than sniffed.
type LookupParser string

const (
	// ParserYanxi: code == 0 → data.answer; otherwise data.question + data.answer.
	ParserYanxi LookupParser = "yanxi"
	// ParserGoti: code == 1 → data is the answer; otherwise msg is an error.
	ParserGoti LookupParser = "goti"
	// ParserGeneric: try answer, then data.answer, then data as a string.
	ParserGeneric LookupParser = "generic"
)

// LookupProvider describes one external question bank. Data values may
// contain ${title}, ${options} and ${type} placeholders substituted per
// query; GET providers send data as query parameters, POST providers as a
// JSON or form body depending on ContentType.
type LookupProvider struct {
	Name        string            `json:"name"`
	Homepage    string            `json:"homepage,omitempty"`
	URL         string            `json:"url"`
	Method      string            `json:"method"`
	ContentType string            `json:"contentType,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	Parser      LookupParser      `json:"parser,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
}

// IsEnabled treats an absent enabled flag as on, so hand-written provider
// files do not have to spell it out.
func (p *LookupProvider) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// LookupAnswer is one candidate produced by an external bank. Question is
// optional: some banks echo the matched title back.
type LookupAnswer struct {
	Provider string
	Question string
	Answer   string
}

package entity

type QuestionType string

// Question types understood by the normalization engine. Unknown inputs
// parse to TypeUnspecified rather than failing: the OCS client side does
// not always send a type.
const (
	TypeSingle      QuestionType = "single"     // 单选题
	TypeMultiple    QuestionType = "multiple"   // 多选题
	TypeJudgement   QuestionType = "judgement"  // 判断题
	TypeCompletion  QuestionType = "completion" // 填空题
	TypeUnspecified QuestionType = ""
)

// ParseQuestionType maps a raw client string onto a known type.
// Anything unrecognized becomes TypeUnspecified.
func ParseQuestionType(raw string) QuestionType {
	switch QuestionType(raw) {
	case TypeSingle, TypeMultiple, TypeJudgement, TypeCompletion:
		return QuestionType(raw)
	default:
		return TypeUnspecified
	}
}

func (qt QuestionType) Validate() error {
	switch qt {
	case TypeSingle, TypeMultiple, TypeJudgement, TypeCompletion, TypeUnspecified:
		return nil
	default:
		return ErrInvalidParameter
	}
}

// Label returns the Chinese display name used in bot replies and exports.
func (qt QuestionType) Label() string {
	switch qt {
	case TypeSingle:
		return "单选题"
	case TypeMultiple:
		return "多选题"
	case TypeJudgement:
		return "判断题"
	case TypeCompletion:
		return "填空题"
	default:
		return "未指定"
	}
}

// AnswerSource tells where a resolved answer came from.
type AnswerSource string

const (
	SourceCache    AnswerSource = "cache"
	SourceDatabase AnswerSource = "database"
	SourceAI       AnswerSource = "ai"
)

// SearchQuery is a single answer-resolution request.
type SearchQuery struct {
	Question string
	Type     QuestionType
	Options  string
	Context  string
}

// SearchResult is the resolved answer plus provenance.
type SearchResult struct {
	Question string
	Answer   string
	Source   AnswerSource
	Provider string
}

// SearchResponse is the OCS-compatible success envelope.
type SearchResponse struct {
	Code     int    `json:"code"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FailureResponse is the OCS-compatible failure envelope. Domain failures
// ship with HTTP 200 and code 0; only auth and rate limiting use 4xx.
type FailureResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

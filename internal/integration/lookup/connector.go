// Package lookup queries external question banks before any AI
// generation happens. Providers are tried in configuration order and the
// first usable answer wins.
package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/config"
	"github.com/edubrain/answer-backend/internal/entity"
	"github.com/edubrain/answer-backend/internal/integration/common"
	pkghttp "github.com/edubrain/answer-backend/pkg/http"
)

// notFoundPatterns marks answers that are really polite refusals. Banks
// tend to answer 200 with an apology instead of an error status.
var notFoundPatterns = []string{
	"非常抱歉",
	"题目搜索不到",
	"未找到",
	"没有找到",
	"搜索不到",
	"抱歉",
	"sorry",
	"not found",
	"no answer",
	"无法找到",
	"查询失败",
	"暂无答案",
}

type Connector struct {
	providers []providerClient
	logger    *zap.Logger
}

type providerClient struct {
	provider entity.LookupProvider
	client   *pkghttp.Connector
}

func NewConnector(cfg config.LookupConfig, providers []entity.LookupProvider, logger *zap.Logger) *Connector {
	clients := make([]providerClient, 0, len(providers))
	for _, provider := range providers {
		httpCfg := cfg.HTTPClientCfg
		httpCfg.Url = provider.URL
		httpCfg.RequestTimeout = cfg.Timeout

		clients = append(clients, providerClient{
			provider: provider,
			client:   common.NewBaseConnector(httpCfg, logger),
		})
	}

	return &Connector{
		providers: clients,
		logger:    logger,
	}
}

// Search queries every configured bank in order. A provider that fails,
// answers empty or answers with a refusal is skipped; the first valid
// answer is returned as is, unvalidated.
func (c *Connector) Search(ctx context.Context, query *entity.SearchQuery) (*entity.LookupAnswer, error) {
	if len(c.providers) == 0 {
		return nil, entity.ErrProviderDisabled
	}

	for i := range c.providers {
		pc := &c.providers[i]

		found, err := c.querySingle(ctx, pc, query)
		if err != nil {
			ctxzap.Warn(ctx, "lookup provider query failed",
				zap.String("provider", pc.provider.Name),
				zap.Error(err),
			)
			continue
		}

		if found == nil {
			continue
		}

		if isNotFoundAnswer(found.Answer) {
			ctxzap.Info(ctx, "provider returned a not-found answer, trying next",
				zap.String("provider", pc.provider.Name),
			)
			continue
		}

		ctxzap.Info(ctx, "found answer in external question bank",
			zap.String("provider", pc.provider.Name),
		)

		return found, nil
	}

	ctxzap.Info(ctx, "no external question bank returned a usable answer")

	return nil, entity.ErrAnswerNotFound
}

func (c *Connector) querySingle(ctx context.Context, pc *providerClient, query *entity.SearchQuery) (*entity.LookupAnswer, error) {
	data := substituteTemplate(pc.provider.Data, query)

	opts := make([]pkghttp.RequestOpt, 0, len(pc.provider.Headers))
	for key, value := range pc.provider.Headers {
		opts = append(opts, pkghttp.WithHeader(key, value))
	}

	var raw map[string]any

	switch strings.ToLower(pc.provider.Method) {
	case "get", "":
		for key, value := range data {
			opts = append(opts, pkghttp.WithQueryParam(key, value))
		}

		if err := pc.client.DoRequest(ctx, http.MethodGet, "", nil, &raw, opts...); err != nil {
			return nil, err
		}
	case "post":
		if pc.provider.ContentType == "form" {
			form := url.Values{}
			for key, value := range data {
				form.Set(key, value)
			}

			if err := pc.client.DoFormRequest(ctx, http.MethodPost, "", form, &raw, opts...); err != nil {
				return nil, err
			}
		} else {
			if err := pc.client.DoRequest(ctx, http.MethodPost, "", data, &raw, opts...); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", pc.provider.Method)
	}

	question, answer := parseEnvelope(pc.provider.Parser, raw)
	if answer == "" {
		return nil, nil
	}

	return &entity.LookupAnswer{
		Provider: pc.provider.Name,
		Question: question,
		Answer:   answer,
	}, nil
}

// substituteTemplate fills the ${title}, ${options} and ${type}
// placeholders of a provider's data template.
func substituteTemplate(template map[string]string, query *entity.SearchQuery) map[string]string {
	data := make(map[string]string, len(template))
	for key, value := range template {
		value = strings.ReplaceAll(value, "${title}", query.Question)
		value = strings.ReplaceAll(value, "${options}", query.Options)
		value = strings.ReplaceAll(value, "${type}", string(query.Type))
		data[key] = value
	}

	return data
}

func parseEnvelope(parser entity.LookupParser, raw map[string]any) (question, answer string) {
	switch parser {
	case entity.ParserYanxi:
		return parseYanxi(raw)
	case entity.ParserGoti:
		return parseGoti(raw)
	default:
		return parseGeneric(raw)
	}
}

// parseYanxi: code 0 carries the answer alone, any other code carries the
// matched question alongside it.
func parseYanxi(raw map[string]any) (string, string) {
	data, _ := raw["data"].(map[string]any)
	if data == nil {
		return "", ""
	}

	answer := stringField(data, "answer")
	if intField(raw, "code") == 0 {
		return "", answer
	}

	return stringField(data, "question"), answer
}

// parseGoti: code 1 means data holds the answer string, anything else is
// an error message in msg.
func parseGoti(raw map[string]any) (string, string) {
	if intField(raw, "code") != 1 {
		return "", ""
	}

	answer, _ := raw["data"].(string)

	return "", answer
}

// parseGeneric probes the common field layouts: a top-level answer, an
// answer nested under data, or data itself as the answer string.
func parseGeneric(raw map[string]any) (string, string) {
	if answer := stringField(raw, "answer"); answer != "" {
		return stringField(raw, "question"), answer
	}

	switch data := raw["data"].(type) {
	case map[string]any:
		return stringField(data, "question"), stringField(data, "answer")
	case string:
		return "", data
	}

	return "", ""
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}

	return -1
}

func isNotFoundAnswer(answer string) bool {
	if answer == "" {
		return true
	}

	lowered := strings.ToLower(strings.TrimSpace(answer))
	for _, pattern := range notFoundPatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}

	return false
}

package lang

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
)

// DefaultBingURL is the origin of the Bing translator.
const DefaultBingURL = "https://www.bing.com"

var bingTokenPattern = regexp.MustCompile(`IG:"([\w\d]+)"`)

// Bing codes that do not follow the region-suffix convention.
var bingAliases = map[string]Lang{
	"zh-CHS": ZhCN,
	"zh-CHT": ZhTW,
}

// Bing detects languages through the Bing translator's tdetect endpoint,
// authorised by the IG token embedded in the translator page.
type Bing struct {
	baseURL string
	client  HTTPClient
	flow    *tokenFlow
}

// NewBing creates a Bing detector. An empty baseURL means DefaultBingURL.
func NewBing(client HTTPClient, store storage.Store, logger *zap.Logger, baseURL string) *Bing {
	if baseURL == "" {
		baseURL = DefaultBingURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bing{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
	b.flow = &tokenFlow{
		name:   b.Name(),
		key:    storage.KeyBingToken,
		store:  store,
		logger: logger,
		scrape: b.scrapeToken,
		detect: b.detect,
	}
	return b
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) DetectLanguage(ctx context.Context, text string) (Lang, error) {
	return b.flow.run(ctx, text)
}

func (b *Bing) detect(ctx context.Context, token, text string) (Lang, error) {
	endpoint := fmt.Sprintf("%s/tdetect?&IG=%s&IID=translator.5037.1", b.baseURL, url.QueryEscape(token))
	resp, err := b.client.PostForm(ctx, endpoint, "&text="+url.QueryEscape(text))
	if err != nil {
		return "", err
	}
	return bingCodeToLang(strings.TrimSpace(resp.Text()))
}

// scrapeToken finds the IG token in the translator page, looking at inline
// scripts first and falling back to the whole document.
func (b *Bing) scrapeToken(ctx context.Context) (string, error) {
	resp, err := b.client.Get(ctx, b.baseURL+"/translator")
	if err != nil {
		return "", err
	}
	page := resp.Text()

	if doc, err := htmlquery.Parse(strings.NewReader(page)); err == nil {
		for _, script := range htmlquery.Find(doc, "//script") {
			if m := bingTokenPattern.FindStringSubmatch(htmlquery.InnerText(script)); m != nil {
				return m[1], nil
			}
		}
	}
	if m := bingTokenPattern.FindStringSubmatch(page); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: no IG in bing translator page", failure.ErrToken)
}

func bingCodeToLang(code string) (Lang, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty bing language code", failure.ErrParse)
	}
	if l, ok := bingAliases[code]; ok {
		return l, nil
	}
	l, err := FromCode(code)
	if err != nil {
		return "", fmt.Errorf("%w: bing code %q", failure.ErrParse, code)
	}
	return l, nil
}

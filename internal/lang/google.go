package lang

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultGoogleURL is the origin of Google Translate.
const DefaultGoogleURL = "https://translate.google.com"

var googleTokenPattern = regexp.MustCompile(`TKK='(\d+\.\d+)'|tkk:'(\d+\.\d+)'`)

const googleQuery = "/translate_a/single?client=webapp" +
	"&dt=at&dt=bd&dt=ex&dt=ld&dt=md&dt=qca&dt=rw&dt=rm&dt=ss&dt=t&pc=1&otf=1&ssel=0&tsel=0&kc=1" +
	"&sl=auto&tl=en&hl=en"

// Google detects languages through the Google Translate web endpoint. Requests
// are signed with a tk value derived from the page's TKK token.
type Google struct {
	baseURL string
	client  HTTPClient
	signer  *tkSigner
	flow    *tokenFlow
}

// NewGoogle creates a Google detector. An empty baseURL means DefaultGoogleURL.
func NewGoogle(client HTTPClient, store storage.Store, logger *zap.Logger, baseURL string) (*Google, error) {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	signer, err := newTKSigner()
	if err != nil {
		return nil, err
	}

	g := &Google{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		signer:  signer,
	}
	g.flow = &tokenFlow{
		name:   g.Name(),
		key:    storage.KeyGoogleToken,
		store:  store,
		logger: logger,
		scrape: g.scrapeToken,
		detect: g.detect,
	}
	return g, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) DetectLanguage(ctx context.Context, text string) (Lang, error) {
	return g.flow.run(ctx, text)
}

func (g *Google) detect(ctx context.Context, token, text string) (Lang, error) {
	tk, err := g.signer.Sign(text, token)
	if err != nil {
		return "", err
	}
	endpoint := g.baseURL + googleQuery + "&tk=" + url.QueryEscape(tk) + "&q=" + url.QueryEscape(text)

	resp, err := g.client.Get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	return googleSourceLang(resp.Body)
}

// googleSourceLang reads the detected source language, element [2] of the
// response array.
func googleSourceLang(body []byte) (Lang, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: google response is not JSON", failure.ErrParse)
	}
	code := gjson.GetBytes(body, "2")
	if code.Type != gjson.String {
		return "", fmt.Errorf("%w: google response has no source language", failure.ErrParse)
	}
	l, err := FromCode(code.String())
	if err != nil {
		return "", fmt.Errorf("%w: %w", failure.ErrParse, err)
	}
	return l, nil
}

func (g *Google) scrapeToken(ctx context.Context) (string, error) {
	resp, err := g.client.Get(ctx, g.baseURL)
	if err != nil {
		return "", err
	}
	page := resp.Text()

	var token string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(page)); err == nil {
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			token = matchTKK(s.Text())
			return token == ""
		})
	}
	if token == "" {
		token = matchTKK(page)
	}
	if token == "" {
		return "", fmt.Errorf("%w: no TKK in google translate page", failure.ErrToken)
	}
	return token, nil
}

func matchTKK(s string) string {
	m := googleTokenPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

package plugin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	PublishedVersionsURL = "https://dicthub.org/dicthub.versions.published.json"
	ChromeExtensionURL   = "https://chrome.google.com/webstore/detail/dicthub/cibocdpeaeganigafnnofchcliihpchn"
	FirefoxExtensionURL  = "https://addons.mozilla.org/en-US/firefox/addon/dicthub/"
)

// VersionStatus is the outcome of an extension version check.
type VersionStatus struct {
	Current      string `json:"current"`
	Published    string `json:"published"`
	HasNew       bool   `json:"hasNew"`
	ExtensionURL string `json:"extensionUrl"`
}

// VersionChecker compares the running version with the published one for a
// distribution channel ("chrome" or "firefox").
type VersionChecker struct {
	client  Fetcher
	store   storage.Store
	logger  *zap.Logger
	url     string
	channel string
	current string
	now     func() time.Time
}

func NewVersionChecker(client Fetcher, store storage.Store, logger *zap.Logger, channel, current string) *VersionChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel != "firefox" {
		channel = "chrome"
	}
	return &VersionChecker{
		client:  client,
		store:   store,
		logger:  logger,
		url:     PublishedVersionsURL,
		channel: channel,
		current: current,
		now:     time.Now,
	}
}

// WithURL overrides the published versions document location.
func (v *VersionChecker) WithURL(url string) *VersionChecker {
	v.url = url
	return v
}

// ExtensionURL is the store page for the checker's channel.
func (v *VersionChecker) ExtensionURL() string {
	if v.channel == "firefox" {
		return FirefoxExtensionURL
	}
	return ChromeExtensionURL
}

// Published fetches the published version for the channel.
func (v *VersionChecker) Published(ctx context.Context) (string, error) {
	resp, err := v.client.Get(ctx, v.url)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(resp.Body) {
		return "", fmt.Errorf("%w: published versions document", failure.ErrParse)
	}
	res := gjson.GetBytes(resp.Body, v.channel)
	if !res.Exists() || res.String() == "" {
		return "", fmt.Errorf("%w: no %s version published", failure.ErrParse, v.channel)
	}
	return res.String(), nil
}

// Check fetches the published version and records the check time.
func (v *VersionChecker) Check(ctx context.Context) (VersionStatus, error) {
	published, err := v.Published(ctx)
	if err != nil {
		return VersionStatus{}, fmt.Errorf("check extension version: %w", err)
	}
	if err := writeMillis(ctx, v.store, storage.KeyLastExtensionVersionCheckTime, v.now()); err != nil {
		v.logger.Warn("Failed to store extension check time", zap.Error(err))
	}

	hasNew, err := HasNewVersion(published, v.current)
	if err != nil {
		return VersionStatus{}, err
	}
	return VersionStatus{
		Current:      v.current,
		Published:    published,
		HasNew:       hasNew,
		ExtensionURL: v.ExtensionURL(),
	}, nil
}

// LastCheckTime returns when Check last succeeded, or the zero time.
func (v *VersionChecker) LastCheckTime(ctx context.Context) (time.Time, error) {
	return readMillis(ctx, v.store, storage.KeyLastExtensionVersionCheckTime)
}

// HasNewVersion reports whether published is newer than current. Both must
// be major.minor.patch.
func HasNewVersion(published, current string) (bool, error) {
	if published == current {
		return false, nil
	}
	p, err := parseVersion(published)
	if err != nil {
		return false, err
	}
	c, err := parseVersion(current)
	if err != nil {
		return false, err
	}
	for n := range p {
		if p[n] != c[n] {
			return p[n] > c[n], nil
		}
	}
	return false, nil
}

func parseVersion(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return out, fmt.Errorf("%w: version %q is not major.minor.patch", failure.ErrParse, s)
	}
	for n, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return out, fmt.Errorf("%w: version %q is not major.minor.patch", failure.ErrParse, s)
		}
		out[n] = v
	}
	return out, nil
}

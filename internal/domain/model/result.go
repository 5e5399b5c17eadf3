package model

import (
	"github.com/bytedance/sonic"
)

// FailureMarker is the CSS class a provider puts on its HTML to report that
// the lookup produced no translation.
const FailureMarker = "translation-failure"

// TranslationResult is one provider's answer to one query.
type TranslationResult struct {
	PluginID    string `json:"pluginId"`
	Query       Query  `json:"query"`
	Success     bool   `json:"success"`
	HTMLContent string `json:"htmlContent"`
}

// NewTranslationResult creates a successful result.
func NewTranslationResult(pluginID string, query Query, html string) TranslationResult {
	return TranslationResult{
		PluginID:    pluginID,
		Query:       query,
		Success:     true,
		HTMLContent: html,
	}
}

// UnmarshalJSON treats a missing success field as true.
func (r *TranslationResult) UnmarshalJSON(data []byte) error {
	type wire struct {
		PluginID    string `json:"pluginId"`
		Query       Query  `json:"query"`
		Success     *bool  `json:"success"`
		HTMLContent string `json:"htmlContent"`
	}
	var w wire
	if err := sonic.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = TranslationResult{
		PluginID:    w.PluginID,
		Query:       w.Query,
		Success:     w.Success == nil || *w.Success,
		HTMLContent: w.HTMLContent,
	}
	return nil
}

// ProviderMeta is what a loaded provider reports about itself.
type ProviderMeta struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	Author      string `json:"author,omitempty"`
	AuthorURL   string `json:"authorUrl,omitempty"`
}

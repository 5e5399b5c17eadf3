// Package lang holds the supported language set and the detectors that
// classify selected text.
//
// Bing and Google detectors scrape a session token from the provider's web
// page, cache it in the store and retry once with a fresh token when the
// cached one is rejected. Composite races several detectors and keeps the
// first answer:
//
//	detector := lang.NewComposite([]lang.Detector{bing, google}, lang.WithLogger(logger))
//	l, err := detector.DetectLanguage(ctx, "hola")
package lang

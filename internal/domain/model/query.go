package model

import (
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/lang"
	"github.com/GriffinCanCode/dicthub/internal/shared/utils"
)

// Query is one user submission. ID is set by the host so results can be
// attributed to the query that produced them.
type Query struct {
	ID   string    `json:"id,omitempty"`
	Text string    `json:"text"`
	From lang.Lang `json:"from"`
	To   lang.Lang `json:"to"`
}

// NewQuery validates text and both language codes.
func NewQuery(text, from, to string) (Query, error) {
	if err := utils.ValidateQueryText(text); err != nil {
		return Query{}, err
	}
	f, err := lang.FromCode(from)
	if err != nil {
		return Query{}, fmt.Errorf("from: %w", err)
	}
	t, err := lang.FromCode(to)
	if err != nil {
		return Query{}, fmt.Errorf("to: %w", err)
	}
	return Query{Text: text, From: f, To: t}, nil
}

// Validate checks a query that arrived over the wire.
func (q Query) Validate() error {
	if err := utils.ValidateQueryText(q.Text); err != nil {
		return err
	}
	if !q.From.Valid() || !q.To.Valid() {
		return fmt.Errorf("query languages %q→%q are not supported", q.From, q.To)
	}
	return nil
}

// WithID returns a copy of q tagged with id.
func (q Query) WithID(id string) Query {
	q.ID = id
	return q
}

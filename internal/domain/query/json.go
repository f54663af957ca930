package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/msm"
)

type templateDoc struct {
	Query   queryDoc              `json:"query"`
	Suggest map[string]suggestDoc `json:"suggest"`
}

type queryDoc struct {
	Match map[string]matchDoc `json:"match"`
}

type matchDoc struct {
	Query              string `json:"query"`
	MinimumShouldMatch string `json:"minimum_should_match,omitempty"`
}

type suggestDoc struct {
	Prefix     string        `json:"prefix"`
	Completion completionDoc `json:"completion"`
}

type completionDoc struct {
	Field          string    `json:"field"`
	Fuzzy          *fuzzyDoc `json:"fuzzy,omitempty"`
	Size           int       `json:"size,omitempty"`
	SkipDuplicates bool      `json:"skip_duplicates"`
}

type fuzzyDoc struct {
	Fuzziness json.RawMessage `json:"fuzziness"`
}

// ParseTemplate decodes a JSON template in the catalog's query format.
// The placeholder must be the whole value of exactly two slots: the match
// query text and the completion prefix. It must not appear anywhere else.
// Unknown keys are rejected.
func ParseTemplate(data []byte) (Template, error) {
	var doc templateDoc
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Template{}, fmt.Errorf("%w: %w", domain.ErrInvalidTemplate, err)
	}

	if len(doc.Query.Match) != 1 {
		return Template{}, fmt.Errorf("%w: query.match must name exactly one field", domain.ErrInvalidTemplate)
	}
	if len(doc.Suggest) != 1 {
		return Template{}, fmt.Errorf("%w: suggest must contain exactly one entry", domain.ErrInvalidTemplate)
	}

	opts := DefaultOptions()
	opts.MinimumShouldMatch = msm.Policy{}
	opts.Fuzziness = 0
	opts.Size = DefaultSize

	for field, m := range doc.Query.Match {
		if err := inputSlot("query.match."+field+".query", m.Query); err != nil {
			return Template{}, err
		}
		if err := fixedSlot("match field", field); err != nil {
			return Template{}, err
		}
		if err := fixedSlot("minimum_should_match", m.MinimumShouldMatch); err != nil {
			return Template{}, err
		}
		policy, err := msm.Parse(m.MinimumShouldMatch)
		if err != nil {
			return Template{}, fmt.Errorf("%w: %w", domain.ErrInvalidTemplate, err)
		}
		opts.Field = field
		opts.MinimumShouldMatch = policy
	}

	for name, s := range doc.Suggest {
		if err := inputSlot("suggest."+name+".prefix", s.Prefix); err != nil {
			return Template{}, err
		}
		if err := fixedSlot("suggest name", name); err != nil {
			return Template{}, err
		}
		if err := fixedSlot("completion field", s.Completion.Field); err != nil {
			return Template{}, err
		}
		opts.SuggestName = name
		opts.CompletionField = s.Completion.Field
		opts.SkipDuplicates = s.Completion.SkipDuplicates
		if s.Completion.Size != 0 {
			opts.Size = s.Completion.Size
		}
		if s.Completion.Fuzzy != nil {
			f, err := parseFuzziness(s.Completion.Fuzzy.Fuzziness)
			if err != nil {
				return Template{}, err
			}
			opts.Fuzziness = f
		}
	}

	return NewTemplate(opts)
}

func inputSlot(path, v string) error {
	switch {
	case v == Placeholder:
		return nil
	case strings.Contains(v, Placeholder):
		return fmt.Errorf("%w: %s must be exactly %s", domain.ErrInvalidTemplate, path, Placeholder)
	default:
		return fmt.Errorf("%w: %s is missing the %s placeholder", domain.ErrInvalidTemplate, path, Placeholder)
	}
}

func fixedSlot(what, v string) error {
	if strings.Contains(v, Placeholder) {
		return fmt.Errorf("%w: placeholder not allowed in %s", domain.ErrInvalidTemplate, what)
	}
	return nil
}

// parseFuzziness accepts 0, 1, 2 as a number or string, and "AUTO".
func parseFuzziness(raw json.RawMessage) (int, error) {
	s := strings.Trim(string(raw), `"`)
	if strings.EqualFold(s, "auto") {
		return MaxFuzziness, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > MaxFuzziness {
		return 0, fmt.Errorf("%w: fuzziness %s must be 0, 1, 2 or AUTO", domain.ErrInvalidTemplate, raw)
	}
	return n, nil
}

// MarshalJSON renders the template in the catalog's query format with
// placeholders in both input slots.
func (t Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.doc(Placeholder))
}

// Render returns the indented request body for raw, as sent to the catalog.
func (t Template) Render(raw string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.doc(raw)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (t Template) doc(value string) templateDoc {
	fuzz, _ := json.Marshal(t.opts.Fuzziness)
	return templateDoc{
		Query: queryDoc{Match: map[string]matchDoc{
			t.opts.Field: {Query: value, MinimumShouldMatch: t.opts.MinimumShouldMatch.String()},
		}},
		Suggest: map[string]suggestDoc{
			t.opts.SuggestName: {
				Prefix: value,
				Completion: completionDoc{
					Field:          t.opts.CompletionField,
					Fuzzy:          &fuzzyDoc{Fuzziness: fuzz},
					Size:           t.opts.Size,
					SkipDuplicates: t.opts.SkipDuplicates,
				},
			},
		},
	}
}

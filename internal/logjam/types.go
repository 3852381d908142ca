package logjam

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Option is a selectable filter entry. A nil Value means "no filter".
type Option struct {
	Text  string  `json:"text"`
	Value *string `json:"value"`
}

// NewOption returns an option whose value equals its text.
func NewOption(text string) Option {
	v := text
	return Option{Text: text, Value: &v}
}

// Placeholder returns the "no filter" option shown before any server data.
func Placeholder(text string) Option {
	return Option{Text: text}
}

// IsPlaceholder reports whether the option carries no filter value.
func (o Option) IsPlaceholder() bool {
	return o.Value == nil
}

// ValueString returns the filter value or "" for the placeholder.
func (o Option) ValueString() string {
	if o.Value == nil {
		return ""
	}
	return *o.Value
}

// Clone returns a copy that does not share the value pointer.
func (o Option) Clone() Option {
	if o.Value == nil {
		return Option{Text: o.Text}
	}
	v := *o.Value
	return Option{Text: o.Text, Value: &v}
}

// UnmarshalJSON accepts either a bare string or a {text, value} object.
func (o *Option) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*o = NewOption(s)
		return nil
	}
	var raw struct {
		Text  string  `json:"text"`
		Value *string `json:"value"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("decode option: %w", err)
	}
	o.Text = raw.Text
	o.Value = raw.Value
	if o.Text == "" && o.Value != nil {
		o.Text = *o.Value
	}
	return nil
}

// OptionList decodes a server option array, skipping null entries.
type OptionList []Option

// UnmarshalJSON drops JSON nulls so they never become ghost placeholders.
func (l *OptionList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(OptionList, 0, len(raw))
	for _, entry := range raw {
		if bytes.Equal(bytes.TrimSpace(entry), []byte("null")) {
			continue
		}
		var opt Option
		if err := opt.UnmarshalJSON(entry); err != nil {
			return err
		}
		out = append(out, opt)
	}
	*l = out
	return nil
}

// ChartDescriptor is one server-provided pie: Values[i] belongs to Labels[i].
type ChartDescriptor struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Validate checks that labels and values are parallel.
func (d ChartDescriptor) Validate() error {
	if len(d.Labels) != len(d.Values) {
		return fmt.Errorf("chart %q has %d labels but %d values", d.Title, len(d.Labels), len(d.Values))
	}
	return nil
}

// Clone returns a deep copy of the descriptor.
func (d ChartDescriptor) Clone() ChartDescriptor {
	out := ChartDescriptor{Title: d.Title}
	if d.Labels != nil {
		out.Labels = append([]string(nil), d.Labels...)
	}
	if d.Values != nil {
		out.Values = append([]float64(nil), d.Values...)
	}
	return out
}

// MatchRequest is the /matchData payload. Nil filters are sent as JSON null.
type MatchRequest struct {
	LogText   string  `json:"logText"`
	SGVersion *string `json:"sgVersion"`
	Platform  *string `json:"platform"`
}

// APIError reports a non-success HTTP status from the backend.
type APIError struct {
	Path       string
	StatusCode int
	StatusText string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s returned status %d %s", e.Path, e.StatusCode, e.StatusText)
}

// statusText extracts the reason phrase from resp.Status, falling back to
// the canonical text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// internal/models/payload.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var ErrRecordNotObject = errors.New("record is not a JSON object")

// Record is one row of a tabular payload. Key order follows the source document.
type Record struct {
	fields *orderedmap.OrderedMap[string, interface{}]
}

// NewRecord builds a record from alternating key/value arguments.
func NewRecord(kv ...interface{}) Record {
	r := Record{fields: orderedmap.New[string, interface{}]()}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return r
}

// Set replaces the value of an existing key in place or appends a new one.
func (r *Record) Set(key string, value interface{}) {
	if r.fields == nil {
		r.fields = orderedmap.New[string, interface{}]()
	}
	r.fields.Set(key, value)
}

func (r Record) Keys() []string {
	if r.fields == nil {
		return []string{}
	}
	out := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func (r Record) Get(key string) (interface{}, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

func (r Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Text returns the value as display text, or "" when absent or null.
func (r Record) Text(key string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Number parses the value as a number, tolerating thousands separators.
func (r Record) Number(key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		return ParseNumber(t)
	}
	return 0, false
}

// ParseNumber reads "1,234" or " 56.7 " style cells.
func ParseNumber(s string) (float64, bool) {
	clean := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if clean == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// UnmarshalJSON keeps numbers as json.Number so cells render as written.
func (r *Record) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrRecordNotObject
	}

	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(trimmed); err != nil {
		return err
	}

	r.fields = orderedmap.New[string, interface{}]()
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		dec := json.NewDecoder(bytes.NewReader(pair.Value))
		dec.UseNumber()
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("record field %q: %w", pair.Key, err)
		}
		r.fields.Set(pair.Key, value)
	}
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// TabularPayload is a validated table for one source and month.
type TabularPayload struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// InsightSection is one titled excerpt of an analysis document.
type InsightSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// InsightPayload is a validated analysis document for the current month.
type InsightPayload struct {
	Sections []InsightSection `json:"sections"`
}

// Payload holds exactly one of the two variants.
type Payload struct {
	Tabular *TabularPayload `json:"tabular,omitempty"`
	Insight *InsightPayload `json:"insight,omitempty"`
}

func (p *Payload) Kind() SourceKind {
	if p != nil && p.Insight != nil {
		return SourceKindInsight
	}
	return SourceKindTabular
}

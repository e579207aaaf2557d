// Package jsonx holds the JSON conventions shared by the local store and the
// REST client: the codec, identifiers that may arrive as numbers, and
// ISO-8601 timestamps.
package jsonx

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"
)

// TimeLayout ISO-8601 with millisecond precision, always rendered in UTC ("Z").
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

func Marshal(v any) ([]byte, error) {
	return codec.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return codec.Unmarshal(data, v)
}

func NewDecoder(r io.Reader) *jsoniter.Decoder {
	return codec.NewDecoder(r)
}

func NewEncoder(w io.Writer) *jsoniter.Encoder {
	return codec.NewEncoder(w)
}

// ID is an identifier that json-server style backends emit either as a string
// or as a number. It is always kept and re-encoded as a string.
type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(id))), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case data[0] == '"':
		var s string
		if err := codec.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("id must be a string or a number, got %s", data)
	}
	*id = ID(data)
	return nil
}

// FormatTime renders t in TimeLayout; the zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts RFC 3339 first and falls back to dateparse for the
// looser formats other clients write. An empty string is the zero time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q: %w", s, err)
	}
	return t, nil
}

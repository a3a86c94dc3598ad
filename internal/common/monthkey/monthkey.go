// Package monthkey handles "YYYY-MM" month identifiers and month ranges.
package monthkey

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var ErrInvalidMonth = errors.New("INVALID_MONTH")

var pattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Key is a validated "YYYY-MM" month. String order equals chronological order.
type Key string

func Parse(s string) (Key, error) {
	if !pattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q (expected YYYY-MM)", ErrInvalidMonth, s)
	}
	return Key(s), nil
}

func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

func Valid(s string) bool {
	return pattern.MatchString(s)
}

func New(year, month int) Key {
	return Key(fmt.Sprintf("%04d-%02d", year, month))
}

func (k Key) String() string {
	return string(k)
}

func (k Key) Year() int {
	y, _ := strconv.Atoi(string(k[:4]))
	return y
}

// Number is the calendar month, 1-12.
func (k Key) Number() int {
	m, _ := strconv.Atoi(string(k[5:]))
	return m
}

func (k Key) Previous() Key {
	if k.Number() == 1 {
		return New(k.Year()-1, 12)
	}
	return New(k.Year(), k.Number()-1)
}

func (k Key) Before(other Key) bool {
	return k < other
}

// Range returns count months ending at start, newest first.
func Range(start Key, count int) []Key {
	if count < 1 {
		count = 1
	}
	out := make([]Key, 0, count)
	cur := start
	for i := 0; i < count; i++ {
		out = append(out, cur)
		cur = cur.Previous()
	}
	return out
}

func Strings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

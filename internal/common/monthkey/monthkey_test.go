package monthkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "2025-09"},
		{name: "january", input: "2025-01"},
		{name: "december", input: "1999-12"},
		{name: "month zero", input: "2025-00", wantErr: true},
		{name: "month thirteen", input: "2025-13", wantErr: true},
		{name: "single digit month", input: "2025-9", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "trailing text", input: "2025-09x", wantErr: true},
		{name: "full date", input: "2025-09-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidMonth))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, k.String())
		})
	}
}

func TestKey_Previous(t *testing.T) {
	assert.Equal(t, Key("2025-08"), MustParse("2025-09").Previous())
	assert.Equal(t, Key("2024-12"), MustParse("2025-01").Previous())
	assert.Equal(t, Key("2025-09"), MustParse("2025-10").Previous())
}

func TestRange(t *testing.T) {
	tests := []struct {
		name  string
		start string
		count int
		want  []string
	}{
		{name: "single month", start: "2025-09", count: 1, want: []string{"2025-09"}},
		{name: "two months", start: "2025-09", count: 2, want: []string{"2025-09", "2025-08"}},
		{name: "year rollover", start: "2025-01", count: 2, want: []string{"2025-01", "2024-12"}},
		{
			name:  "six months",
			start: "2025-09",
			count: 6,
			want:  []string{"2025-09", "2025-08", "2025-07", "2025-06", "2025-05", "2025-04"},
		},
		{name: "non-positive count clamps to one", start: "2025-03", count: 0, want: []string{"2025-03"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Strings(Range(MustParse(tt.start), tt.count))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRange_StrictlyDescending(t *testing.T) {
	for _, start := range []string{"2025-01", "2024-06", "2000-12"} {
		keys := Range(MustParse(start), 14)
		require.Len(t, keys, 14)
		assert.Equal(t, Key(start), keys[0])
		for i := 1; i < len(keys); i++ {
			assert.True(t, keys[i].Before(keys[i-1]), "%s should precede %s", keys[i], keys[i-1])
		}
	}
}

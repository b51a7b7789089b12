package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{in: "", want: Heads},
		{in: "heads", want: Heads},
		{in: "HEAD", want: Heads},
		{in: " latest ", want: Latest},
		{in: "20240101120000", want: Target("20240101120000")},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "base", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTarget)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetVersion(t *testing.T) {
	v, ok := Target("42").Version()
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)

	_, ok = Heads.Version()
	assert.False(t, ok)
	_, ok = Latest.Version()
	assert.False(t, ok)
	_, ok = Target("nope").Version()
	assert.False(t, ok)
}

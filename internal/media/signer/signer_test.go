package signer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		secret string
		want   string
	}{
		{
			name:   "documented example",
			params: map[string]string{"timestamp": "1315060510", "public_id": "sample_image"},
			secret: "abcd",
			want:   "b4ad47fb4e25c7bf5f92a20089f9db59bc302313",
		},
		{
			name:   "empty values are not signed",
			params: map[string]string{"public_id": "snappy/posts/alice/p1", "timestamp": "1700000000", "invalidate": ""},
			secret: "s3cr3t",
			want:   "cde162fd9916b2acaf645587654209bbffbc52f6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sign(tt.params, tt.secret))
		})
	}
}

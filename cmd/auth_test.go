package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAuthCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{
			name:  "bare code",
			input: "4/0AX4XfWh-abc\n",
			want:  "4/0AX4XfWh-abc",
		},
		{
			name:  "redirect URL",
			input: "http://localhost:8080/oauth/callback?state=xyz&code=4%2F0AX4XfWh-abc&scope=calendar",
			want:  "4/0AX4XfWh-abc",
		},
		{
			name:    "empty",
			input:   "  \n",
			wantErr: "empty",
		},
		{
			name:    "denied",
			input:   "http://localhost:8080/oauth/callback?error=access_denied",
			wantErr: "access_denied",
		},
		{
			name:    "URL without code",
			input:   "http://localhost:8080/oauth/callback?state=xyz",
			wantErr: "no code parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractAuthCode(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantMeta map[string]any
		wantBody string
		wantErr  bool
	}{
		{
			name:     "frontmatter and body",
			input:    "---\nSubject: Hello\n---\nBody text\n",
			wantMeta: map[string]any{"Subject": "Hello"},
			wantBody: "Body text\n",
		},
		{
			name:     "windows line endings",
			input:    "---\r\nSubject: Hello\r\n---\r\nBody\r\n",
			wantMeta: map[string]any{"Subject": "Hello"},
			wantBody: "Body\r\n",
		},
		{
			name:     "no frontmatter",
			input:    "# Title\n\nBody",
			wantMeta: map[string]any{},
			wantBody: "# Title\n\nBody",
		},
		{
			name:     "empty frontmatter",
			input:    "---\n \n---\nBody",
			wantMeta: map[string]any{},
			wantBody: "Body",
		},
		{
			name:    "missing closing delimiter",
			input:   "---\nSubject: Hello\nBody",
			wantErr: true,
		},
		{
			name:    "nothing after opening delimiter",
			input:   "---\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			input:   "---\nSubject: [unclosed\n---\nBody",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseTemplate([]byte(tt.input))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFrontmatter)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantMeta, got.Metadata)
			require.Equal(t, tt.wantBody, got.Body)
		})
	}
}

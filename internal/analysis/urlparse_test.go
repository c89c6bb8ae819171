package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.RepositoryRef
	}{
		{"https", "https://github.com/acme/old-app", domain.RepositoryRef{Owner: "acme", Name: "old-app"}},
		{"git suffix", "https://github.com/acme/old-app.git", domain.RepositoryRef{Owner: "acme", Name: "old-app"}},
		{"no scheme", "github.com/acme/old-app", domain.RepositoryRef{Owner: "acme", Name: "old-app"}},
		{"deep path", "https://github.com/acme/old-app/tree/main/src", domain.RepositoryRef{Owner: "acme", Name: "old-app"}},
		{"case kept", "https://github.com/Acme/Old-App", domain.RepositoryRef{Owner: "Acme", Name: "Old-App"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepoURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Owner+"/"+tt.want.Name, got.FullName())
		})
	}
}

func TestParseRepoURL_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"not a url",
		"https://gitlab.com/acme/old-app",
		"https://github.com/acme",
		"https://github.com/acme/",
		"https://github.com/acme/.git",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseRepoURL(in)
			assert.ErrorIs(t, err, port.ErrInvalidURL)
		})
	}
}

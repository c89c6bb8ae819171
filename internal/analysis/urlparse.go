package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

var githubURLPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`)

// ParseRepoURL extracts owner and repository name from a GitHub URL.
// A trailing ".git" on the repository segment is dropped.
func ParseRepoURL(raw string) (domain.RepositoryRef, error) {
	m := githubURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return domain.RepositoryRef{}, fmt.Errorf("%w: %q", port.ErrInvalidURL, raw)
	}
	name := strings.TrimSuffix(m[2], ".git")
	if name == "" {
		return domain.RepositoryRef{}, fmt.Errorf("%w: %q", port.ErrInvalidURL, raw)
	}
	return domain.RepositoryRef{Owner: m[1], Name: name}, nil
}

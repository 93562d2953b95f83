package index

import (
	"strings"

	"github.com/unilink/scholarmatch/internal/domain"
)

// Eligible reports whether a profile may be embedded and indexed. Profiles
// failing the gate are never written: a near-empty vector sits close to
// everything and poisons search quality for the whole corpus.
func Eligible(p domain.Profile) bool {
	if p == nil || strings.TrimSpace(p.ProfileID()) == "" {
		return false
	}
	if strings.TrimSpace(domain.DisplayName(p)) == "" {
		return false
	}
	if !domain.HasRealInterests(p) {
		return false
	}

	switch v := p.(type) {
	case *domain.Academician:
		return !isDefaultAvatar(v.AvatarURL)
	case *domain.Postgraduate:
		return !isDefaultAvatar(v.AvatarURL)
	case *domain.Undergraduate:
		return !isDefaultAvatar(v.AvatarURL) && v.GPA > 0
	case *domain.Program:
		return true
	default:
		return false
	}
}

func isDefaultAvatar(url string) bool {
	u := strings.TrimSpace(url)
	return u == "" || strings.HasSuffix(u, domain.DefaultAvatar)
}

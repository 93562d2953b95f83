package domain

import "strings"

// Kind discriminates the profile variants.
type Kind string

// Profile kinds.
const (
	KindAcademician   Kind = "academician"
	KindPostgraduate  Kind = "postgraduate"
	KindUndergraduate Kind = "undergraduate"
	KindProgram       Kind = "program"
)

// DefaultAvatar is the placeholder avatar assigned to freshly created accounts.
// A profile still carrying it has never been completed by its owner.
const DefaultAvatar = "default_avatar.png"

// Profile is the sealed union of matchable subjects. The CRUD layer owns
// profile persistence; the engine only reads them.
type Profile interface {
	ProfileID() string
	ProfileKind() Kind
	sealed()
}

// Academician is a supervising academic staff profile.
type Academician struct {
	ID           string
	Name         string
	Biography    string
	Position     string
	Institution  string
	AvatarURL    string
	Expertise    []string // taxonomy triplet keys, e.g. "cs-ai-nlp"
	Publications []string // recent publication titles
}

func (a *Academician) ProfileID() string { return a.ID }

func (a *Academician) ProfileKind() Kind { return KindAcademician }

func (a *Academician) sealed() {}

// Postgraduate is a research student profile.
type Postgraduate struct {
	ID           string
	Name         string
	Biography    string
	Institution  string
	AvatarURL    string
	Interests    []string
	Publications []string
}

func (p *Postgraduate) ProfileID() string { return p.ID }

func (p *Postgraduate) ProfileKind() Kind { return KindPostgraduate }

func (p *Postgraduate) sealed() {}

// Undergraduate is a coursework student profile.
type Undergraduate struct {
	ID          string
	Name        string
	Biography   string
	Institution string
	AvatarURL   string
	Interests   []string
	GPA         float64
}

func (u *Undergraduate) ProfileID() string { return u.ID }

func (u *Undergraduate) ProfileKind() Kind { return KindUndergraduate }

func (u *Undergraduate) sealed() {}

// Program is a postgraduate program offering.
type Program struct {
	ID          string
	Name        string
	Description string
	Institution string
	Faculty     string
	Level       string
	Fields      []string
}

func (p *Program) ProfileID() string { return p.ID }

func (p *Program) ProfileKind() Kind { return KindProgram }

func (p *Program) sealed() {}

// PrimaryInterests returns the variant's primary research-interest field:
// expertise for academicians, interests for students, fields for programs.
func PrimaryInterests(p Profile) []string {
	switch v := p.(type) {
	case *Academician:
		return v.Expertise
	case *Postgraduate:
		return v.Interests
	case *Undergraduate:
		return v.Interests
	case *Program:
		return v.Fields
	default:
		return nil
	}
}

// DisplayName returns the human-readable name of any profile variant.
func DisplayName(p Profile) string {
	switch v := p.(type) {
	case *Academician:
		return v.Name
	case *Postgraduate:
		return v.Name
	case *Undergraduate:
		return v.Name
	case *Program:
		return v.Name
	default:
		return ""
	}
}

// HasRealInterests reports whether the primary interest field carries signal.
// Placeholder serializations left behind by the CRUD layer ("[]", "null")
// count as empty.
func HasRealInterests(p Profile) bool {
	interests := PrimaryInterests(p)
	for _, it := range interests {
		s := strings.TrimSpace(it)
		if s == "" || s == "[]" || s == "null" {
			continue
		}
		return true
	}
	return false
}

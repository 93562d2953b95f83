package index

import (
	"testing"

	"github.com/unilink/scholarmatch/internal/domain"
)

func TestEligible(t *testing.T) {
	cases := []struct {
		name    string
		profile domain.Profile
		want    bool
	}{
		{
			"complete academician",
			eligibleAcademician(),
			true,
		},
		{
			"missing id",
			&domain.Academician{Name: "X", AvatarURL: "u.jpg", Expertise: []string{"a"}},
			false,
		},
		{
			"missing name",
			&domain.Academician{ID: "a1", AvatarURL: "u.jpg", Expertise: []string{"a"}},
			false,
		},
		{
			"empty interests",
			&domain.Academician{ID: "a1", Name: "X", AvatarURL: "u.jpg"},
			false,
		},
		{
			"placeholder interests",
			&domain.Academician{ID: "a1", Name: "X", AvatarURL: "u.jpg", Expertise: []string{"[]"}},
			false,
		},
		{
			"default avatar academician",
			&domain.Academician{ID: "a1", Name: "X", AvatarURL: "https://cdn/default_avatar.png", Expertise: []string{"a"}},
			false,
		},
		{
			"undergrad without gpa",
			&domain.Undergraduate{ID: "u1", Name: "Y", AvatarURL: "y.jpg", Interests: []string{"a"}},
			false,
		},
		{
			"undergrad with gpa",
			&domain.Undergraduate{ID: "u1", Name: "Y", AvatarURL: "y.jpg", Interests: []string{"a"}, GPA: 3.4},
			true,
		},
		{
			"program needs no avatar",
			&domain.Program{ID: "p1", Name: "MSc", Fields: []string{"a"}},
			true,
		},
		{
			"nil profile",
			nil,
			false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Eligible(tc.profile); got != tc.want {
				t.Fatalf("Eligible = %v, want %v", got, tc.want)
			}
		})
	}
}

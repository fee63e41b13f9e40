package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseExclusionSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{name: "empty", csv: "", want: nil},
		{name: "single", csv: "/api/auth/login", want: []string{"/api/auth/login"}},
		{name: "trimmed", csv: " /a , /b ", want: []string{"/a", "/b"}},
		{name: "empty entries dropped", csv: "/a,,  ,/b,", want: []string{"/a", "/b"}},
		{name: "duplicates collapsed", csv: "/a,/b,/a", want: []string{"/a", "/b"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			set := ParseExclusionSet(tt.csv)
			assert.Equal(t, tt.want, set.Paths())
			assert.Equal(t, len(tt.want), set.Len())
		})
	}
}

func TestExclusionSet_IsExcluded(t *testing.T) {
	t.Parallel()

	set := ParseExclusionSet("/api/auth/login,/api/auth/signup,/health")

	tests := []struct {
		path string
		want bool
	}{
		{path: "/api/auth/login", want: true},
		{path: "/health", want: true},
		{path: "/api/auth/login/", want: false},
		{path: "/Api/auth/login", want: false},
		{path: "/api/auth", want: false},
		{path: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, set.IsExcluded(tt.path))
		})
	}

	var nilSet *ExclusionSet
	assert.False(t, nilSet.IsExcluded("/health"))
	assert.Zero(t, nilSet.Len())
}

package tesseract

import (
	"reflect"
	"testing"
)

// TestSplitLangs verifies the "+"-joined language string is split cleanly
// with eng as the fallback.
func TestSplitLangs(t *testing.T) {
	tests := []struct {
		name  string
		langs string
		want  []string
	}{
		{name: "single", langs: "eng", want: []string{"eng"}},
		{name: "joined", langs: "eng+chi_tra", want: []string{"eng", "chi_tra"}},
		{name: "whitespace", langs: " eng + deu ", want: []string{"eng", "deu"}},
		{name: "empty", langs: "", want: []string{"eng"}},
		{name: "only separators", langs: "++", want: []string{"eng"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLangs(tt.langs)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitLangs(%q) = %v, want %v", tt.langs, got, tt.want)
			}
		})
	}
}

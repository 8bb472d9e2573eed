package archive_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/teamsbackup/pkg/service/archive"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Project", "Project"},
		{"spaces", "Jane Doe", "Jane_Doe"},
		{"reserved characters", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"control characters", "tab\there\nnew", "tab_here_new"},
		{"unicode is kept", "プロジェクト会議", "プロジェクト会議"},
		{"empty", "", archive.UnknownFileName},
		{"dots only", "..", archive.UnknownFileName},
		{"dot in name", "v1.2", "v1.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, archive.SanitizeFileName(tt.input)).Equal(tt.want)
		})
	}

	t.Run("long names are truncated on a rune boundary", func(t *testing.T) {
		got := archive.SanitizeFileName(strings.Repeat("あ", 100))
		gt.Bool(t, len(got) <= 200).True()
		gt.Value(t, got).Equal(strings.Repeat("あ", 66))
	})
}

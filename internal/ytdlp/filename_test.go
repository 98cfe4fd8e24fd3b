package ytdlp

import (
	"strings"
	"testing"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "My Video", "My_Video"},
		{"unsafe chars stripped", `Best <Video>: "2024" | huh?`, "Best_Video_2024_huh"},
		{"path separators", "a/b\\c", "abc"},
		{"collapse whitespace", "a   b\t\nc", "a_b_c"},
		{"collapse underscores", "a _ _ b", "a_b"},
		{"shell metacharacters", "pay $5 & win 100%!", "pay_5_win_100"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.title); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSanitizeTitleTruncation(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := SanitizeTitle(long)
	if len(got) != 80 {
		t.Errorf("len(SanitizeTitle(long)) = %d, want 80", len(got))
	}
}

func TestSanitizeTitleIdempotent(t *testing.T) {
	titles := []string{
		"My Video",
		`weird <>:"/\|?*#%&{}$!'@=+ title`,
		"  spaced   out  ",
		strings.Repeat("x y", 100),
	}
	for _, title := range titles {
		once := SanitizeTitle(title)
		twice := SanitizeTitle(once)
		if once != twice {
			t.Errorf("SanitizeTitle not idempotent for %q: %q != %q", title, once, twice)
		}
	}
}

func TestSanitizeTitleNoUnsafeOutput(t *testing.T) {
	got := SanitizeTitle(`../../etc/passwd <script>alert("x")</script>`)
	if strings.ContainsAny(got, `<>:"/\|?*`) {
		t.Errorf("sanitized title still contains unsafe characters: %q", got)
	}
	if strings.Contains(got, "/") || strings.Contains(got, "\\") {
		t.Errorf("sanitized title contains separators: %q", got)
	}
}

func TestBuildFilename(t *testing.T) {
	if got := BuildFilename("My Video", "dQw4w9WgXcQ", false); got != "My_Video_dQw4w9WgXcQ.mp4" {
		t.Errorf("video filename = %q", got)
	}
	if got := BuildFilename("My Song", "dQw4w9WgXcQ", true); got != "My_Song_dQw4w9WgXcQ.mp3" {
		t.Errorf("audio filename = %q", got)
	}
}

func TestContainsTraversal(t *testing.T) {
	bad := []string{"../x.mp4", "a/b.mp4", `a\b.mp4`, "..", "x/../y.mp4"}
	for _, name := range bad {
		if !ContainsTraversal(name) {
			t.Errorf("ContainsTraversal(%q) = false, want true", name)
		}
	}
	if ContainsTraversal("Plain_Video_dQw4w9WgXcQ.mp4") {
		t.Error("plain filename flagged as traversal")
	}
}

func TestSafeAttachmentName(t *testing.T) {
	if got := SafeAttachmentName(`vid "x".mp4`); strings.ContainsAny(got, `" `) {
		t.Errorf("SafeAttachmentName left unsafe characters: %q", got)
	}
}

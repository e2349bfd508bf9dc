package app

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestFitCell(t *testing.T) {
	if got := fitCell("abc", 5); got != "abc  " {
		t.Fatalf("pad: %q", got)
	}
	got := fitCell("abcdefgh", 5)
	if runewidth.StringWidth(got) != 5 || !strings.HasSuffix(got, ellipsis) {
		t.Fatalf("truncate: %q", got)
	}
	if got := fitCell("a\nb", 3); got != "a b" {
		t.Fatalf("newline: %q", got)
	}
	if fitCell("abc", 0) != "" {
		t.Fatalf("zero width should be empty")
	}
}

func TestFitColumnsShrinksWidest(t *testing.T) {
	got := fitColumns([]int{10, 30, 10}, 40)
	if sum(got)+2 > 40 {
		t.Fatalf("columns still too wide: %v", got)
	}
	if got[0] != 10 || got[2] != 10 {
		t.Fatalf("narrow columns should be untouched: %v", got)
	}
}

func TestVisibleWindow(t *testing.T) {
	cases := []struct {
		n, cursor, height int
		start, end        int
	}{
		{5, 0, 10, 0, 5},
		{20, 0, 5, 0, 5},
		{20, 10, 5, 8, 13},
		{20, 19, 5, 15, 20},
	}
	for _, tc := range cases {
		start, end := visibleWindow(tc.n, tc.cursor, tc.height)
		if start != tc.start || end != tc.end {
			t.Fatalf("visibleWindow(%d,%d,%d)=(%d,%d) want (%d,%d)", tc.n, tc.cursor, tc.height, start, end, tc.start, tc.end)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	if got := formatBytes(512); got != "512 B" {
		t.Fatalf("got %q", got)
	}
	if got := formatBytes(1536); got != "1.5 KB" {
		t.Fatalf("got %q", got)
	}
}

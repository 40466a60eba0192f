package utils

import "testing"

func TestPrettyParams(t *testing.T) {
	if s := PrettyParams("health", 20, "food", 17.5, "running", true); s != "[health=20 food=17.5 running=true]" {
		t.Fatalf("unexpected output %q", s)
	}
	if s := PrettyParams(); s != "[]" {
		t.Fatalf("expected empty brackets, got %q", s)
	}
	if s := PrettyParams("a", 1, "dangling"); s != "[a=1]" {
		t.Fatalf("a trailing key must be ignored, got %q", s)
	}
}

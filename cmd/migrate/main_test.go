package main

import "testing"

func TestEffectiveConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	if got := effectiveConfigPath(""); got != "assets/local.yaml" {
		t.Fatalf("unexpected default: %s", got)
	}

	t.Setenv("CONFIG_PATH", "/etc/nanasync.yaml")
	if got := effectiveConfigPath(""); got != "/etc/nanasync.yaml" {
		t.Fatalf("expected env path, got %s", got)
	}
	if got := effectiveConfigPath("custom.yaml"); got != "custom.yaml" {
		t.Fatalf("expected flag path, got %s", got)
	}
}

func TestIntArg(t *testing.T) {
	t.Parallel()

	if n, err := intArg([]string{"steps", "-2"}, "steps"); err != nil || n != -2 {
		t.Fatalf("unexpected result: %d, %v", n, err)
	}
	if _, err := intArg([]string{"steps"}, "steps"); err == nil {
		t.Fatalf("expected error for missing argument")
	}
	if _, err := intArg([]string{"force", "x"}, "force"); err == nil {
		t.Fatalf("expected error for non numeric argument")
	}
}

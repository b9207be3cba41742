package credential

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
	"testing/iotest"
)

var generatedUsernamePattern = regexp.MustCompile(`^[a-z0-9]{1,16}[1-9][0-9]{3}$`)

func TestNormalizeUsernameBase(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "accents", in: "José Núñez", want: "josenunez"},
		{name: "symbols", in: "  Ana-María O'Neil! ", want: "anamariaoneil"},
		{name: "digits kept", in: "Agent 007", want: "agent007"},
		{name: "truncated", in: "Maximiliano Fernández de la Vega", want: "maximilianoferna"},
		{name: "empty", in: "", want: "empleado"},
		{name: "only symbols", in: "¡¿***?!", want: "empleado"},
		{name: "non latin", in: "山田太郎", want: "empleado"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeUsernameBase(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestGenerator_GenerateUsername_Format(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(nil)
	for i := 0; i < 200; i++ {
		username, err := gen.GenerateUsername("José Núñez")
		if err != nil {
			t.Fatalf("GenerateUsername returned error: %v", err)
		}
		if !strings.HasPrefix(username, "josenunez") {
			t.Fatalf("expected prefix josenunez, got %q", username)
		}
		if !generatedUsernamePattern.MatchString(username) {
			t.Fatalf("unexpected username format %q", username)
		}
	}
}

func TestGenerator_GenerateUsername_DeterministicSource(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(bytes.NewReader(make([]byte, 64)))
	username, err := gen.GenerateUsername("")
	if err != nil {
		t.Fatalf("GenerateUsername returned error: %v", err)
	}
	if username != "empleado1000" {
		t.Fatalf("expected empleado1000, got %q", username)
	}
}

func TestGenerator_GenerateUsername_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	gen := NewGenerator(iotest.ErrReader(boom))
	if _, err := gen.GenerateUsername("Ana"); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestGenerator_GenerateTemporaryPassword(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(nil)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		password, err := gen.GenerateTemporaryPassword()
		if err != nil {
			t.Fatalf("GenerateTemporaryPassword returned error: %v", err)
		}
		if !strings.HasPrefix(password, temporaryPasswordPrefix) {
			t.Fatalf("expected prefix %q, got %q", temporaryPasswordPrefix, password)
		}
		body := strings.TrimPrefix(password, temporaryPasswordPrefix)
		if len(body) != temporaryPasswordLength {
			t.Fatalf("expected %d random characters, got %q", temporaryPasswordLength, body)
		}
		for _, r := range body {
			if !strings.ContainsRune(temporaryPasswordAlphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, password)
			}
		}
		if _, dup := seen[password]; dup {
			t.Fatalf("duplicate temporary password %q", password)
		}
		seen[password] = struct{}{}
	}
}

func TestTemporaryPasswordAlphabet_Size(t *testing.T) {
	t.Parallel()

	if len(temporaryPasswordAlphabet) != 56 {
		t.Fatalf("expected 56 symbols, got %d", len(temporaryPasswordAlphabet))
	}
	for _, ambiguous := range "lIoO01" {
		if strings.ContainsRune(temporaryPasswordAlphabet, ambiguous) {
			t.Fatalf("alphabet must not contain %q", ambiguous)
		}
	}
}

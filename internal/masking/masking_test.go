package masking

import "testing"

func TestMaskEqualsForm(t *testing.T) {
	in := "export API_KEY=sk-abc123xyz"
	got := Mask(in)
	if got != "export API_KEY=***MASKED***" {
		t.Fatalf("got %q", got)
	}
}

func TestMaskColonForm(t *testing.T) {
	in := "password: hunter2"
	got := Mask(in)
	if got != "password: ***MASKED***" {
		t.Fatalf("got %q", got)
	}
}

func TestMaskJSONForm(t *testing.T) {
	in := `{"token": "abc.def.ghi"}`
	got := Mask(in)
	if got != `{"token": "***MASKED***"}` {
		t.Fatalf("got %q", got)
	}
}

func TestMaskLeavesUnrelatedTextAlone(t *testing.T) {
	in := "the quick brown fox jumps over the lazy dog"
	if got := Mask(in); got != in {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}

func TestMaskIsCaseInsensitive(t *testing.T) {
	in := "Secret=topvalue"
	got := Mask(in)
	if got != "Secret=***MASKED***" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeForSubprocessStripsMetacharacters(t *testing.T) {
	in := "rm -rf /; echo `whoami` $(cat /etc/passwd) ${HOME} | tee out > /dev/null < in\nnext"
	got := SanitizeForSubprocess(in)
	if !LooksSanitized(got) {
		t.Fatalf("expected sanitized output, got %q", got)
	}
}

func TestSanitizeForSubprocessPreservesPlainText(t *testing.T) {
	in := "implement the login handler and add tests"
	if got := SanitizeForSubprocess(in); got != in {
		t.Fatalf("expected plain text unchanged, got %q", got)
	}
}

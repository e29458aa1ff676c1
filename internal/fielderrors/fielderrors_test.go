package fielderrors

import "testing"

func TestDecode_ListAndStringValues(t *testing.T) {
	t.Parallel()

	m, err := Decode([]byte(`{"email": ["Invalid email"], "non_field_errors": "Bad login"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := m.Joined("email"); got != "Invalid email" {
		t.Fatalf("email = %q, want %q", got, "Invalid email")
	}
	if got := m.Joined(NonField); got != "Bad login" {
		t.Fatalf("non_field_errors = %q, want %q", got, "Bad login")
	}
	if len(m) != 2 {
		t.Fatalf("len = %d, want 2", len(m))
	}
}

func TestDecode_DropsNonMessageValues(t *testing.T) {
	t.Parallel()

	m, err := Decode([]byte(`{"email": ["Invalid email"], "detail": {"nested": true}, "count": 3}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(m) != 1 {
		t.Fatalf("len = %d, want 1: %v", len(m), m)
	}
	if _, ok := m["email"]; !ok {
		t.Fatal("email entry missing")
	}
}

func TestDecode_RejectsNonObjectPayload(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`"plain text"`)); err == nil {
		t.Fatal("expected decode error for non-object payload")
	}
}

func TestMap_JoinedConcatenatesMessages(t *testing.T) {
	t.Parallel()

	m := New("password", "This field may not be blank.")
	m.Add("password", "Too short.")
	if got := m.Joined("password"); got != "This field may not be blank. Too short." {
		t.Fatalf("Joined = %q", got)
	}
}

func TestMap_ErrorIsStableAcrossFields(t *testing.T) {
	t.Parallel()

	m := Map{
		"email":  {"Invalid email"},
		NonField: {"Bad login"},
	}
	want := "email: Invalid email; non_field_errors: Bad login"
	if got := m.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

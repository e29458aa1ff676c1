package authn

import "testing"

func TestSanitizeNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace", in: "   ", want: ""},
		{name: "root", in: "/", want: ""},
		{name: "ok_path", in: "/services", want: "/services"},
		{name: "ok_path_query", in: "/services?status=draft", want: "/services?status=draft"},
		{name: "ok_root_query", in: "/?foo=bar", want: "/?foo=bar"},
		{name: "absolute_url", in: "https://evil.example/", want: ""},
		{name: "protocol_relative", in: "//evil.example/", want: ""},
		{name: "triple_slash", in: "///evil.example/", want: ""},
		{name: "backslash", in: "/\\evil.example/", want: ""},
		{name: "encoded_slash", in: "/%2f%2fevil.example/", want: ""},
		{name: "encoded_backslash", in: "/%5cevil.example/", want: ""},
		{name: "login_path", in: "/login", want: ""},
		{name: "login_subpath", in: "/login/reset", want: ""},
		{name: "newline", in: "/\n/evil", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeNext(tt.in); got != tt.want {
				t.Fatalf("SanitizeNext(%q)=%q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTokenHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{name: "empty", in: "", want: "", wantOK: false},
		{name: "token", in: "Token abc123", want: "abc123", wantOK: true},
		{name: "lowercase_scheme", in: "token abc123", want: "abc123", wantOK: true},
		{name: "padded", in: "  Token abc123  ", want: "abc123", wantOK: true},
		{name: "bearer", in: "Bearer abc123", want: "", wantOK: false},
		{name: "missing_key", in: "Token", want: "", wantOK: false},
		{name: "blank_key", in: "Token   ", want: "", wantOK: false},
		{name: "key_with_space", in: "Token abc 123", want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseTokenHeader(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("ParseTokenHeader(%q)=(%q, %v); want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

package compression_test

import (
	"strings"
	"testing"

	"assetpress/internal/compression"
)

func TestTokenAndTagResolveToSameFormat(t *testing.T) {
	cases := []struct {
		token  string
		tag    string
		want   compression.Format
		suffix string
	}{
		{token: "gzip", tag: "BuildCompressionGzip", want: compression.FormatGzip, suffix: ".gz"},
		{token: "brotli", tag: "BuildCompressionBrotli", want: compression.FormatBrotli, suffix: ".br"},
	}
	for _, tc := range cases {
		fromToken, err := compression.ParseToken(tc.token)
		if err != nil {
			t.Fatalf("ParseToken(%q): %v", tc.token, err)
		}
		fromTag, err := compression.ParseTag(tc.tag)
		if err != nil {
			t.Fatalf("ParseTag(%q): %v", tc.tag, err)
		}
		if fromToken != tc.want || fromTag != tc.want {
			t.Fatalf("token %q -> %v, tag %q -> %v, want %v", tc.token, fromToken, tc.tag, fromTag, tc.want)
		}
		if tc.want.Suffix() != tc.suffix {
			t.Fatalf("suffix for %v = %q, want %q", tc.want, tc.want.Suffix(), tc.suffix)
		}
	}
}

func TestParseTokenRejectsTagAndViceVersa(t *testing.T) {
	if _, err := compression.ParseToken("BuildCompressionGzip"); err == nil {
		t.Fatal("expected tag to be rejected as a token")
	}
	if _, err := compression.ParseTag("gzip"); err == nil {
		t.Fatal("expected token to be rejected as a tag")
	}
	if _, err := compression.ParseTag("BuildCompressionZstd"); err == nil {
		t.Fatal("expected unknown tag to fail")
	}
}

func TestParseListDedupsAndPreservesOrder(t *testing.T) {
	got, err := compression.ParseList(" brotli ; gzip;;Brotli ")
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if len(got) != 2 || got[0] != compression.FormatBrotli || got[1] != compression.FormatGzip {
		t.Fatalf("unexpected list: %v", got)
	}
	if compression.FormatList(got) != "brotli;gzip" {
		t.Fatalf("unexpected round trip: %q", compression.FormatList(got))
	}
}

func TestParseListEmpty(t *testing.T) {
	got, err := compression.ParseList("")
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestParseListReportsEveryUnknownToken(t *testing.T) {
	got, err := compression.ParseList("gzip;zstd;lz4")
	if err == nil {
		t.Fatal("expected error for unknown tokens")
	}
	if !strings.Contains(err.Error(), "zstd") || !strings.Contains(err.Error(), "lz4") {
		t.Fatalf("error should name every unknown token: %v", err)
	}
	if len(got) != 1 || got[0] != compression.FormatGzip {
		t.Fatalf("known tokens should still be returned, got %v", got)
	}
}

func TestFromSuffix(t *testing.T) {
	cases := map[string]struct {
		format compression.Format
		ok     bool
	}{
		"site/app.js.gz":   {compression.FormatGzip, true},
		`site\app.css.br`:  {compression.FormatBrotli, true},
		"site/APP.JS.GZ":   {compression.FormatGzip, true},
		"site/app.js":      {0, false},
		"site/archive.tgz": {0, false},
		"README":           {0, false},
	}
	for name, want := range cases {
		got, ok := compression.FromSuffix(name)
		if ok != want.ok || got != want.format {
			t.Fatalf("FromSuffix(%q) = %v, %v; want %v, %v", name, got, ok, want.format, want.ok)
		}
	}
	if compression.TrimSuffix("a/b.js.br") != "a/b.js" {
		t.Fatalf("TrimSuffix did not strip suffix")
	}
	if compression.TrimSuffix("a/b.js") != "a/b.js" {
		t.Fatalf("TrimSuffix changed a plain name")
	}
}

func TestInvalidFormatString(t *testing.T) {
	var zero compression.Format
	if zero.Valid() {
		t.Fatal("zero format must be invalid")
	}
	if zero.String() != "unknown(0)" {
		t.Fatalf("unexpected string: %q", zero.String())
	}
	if _, err := zero.MarshalText(); err == nil {
		t.Fatal("expected marshal error for zero format")
	}
}

func TestUnmarshalTextAcceptsTokenOrTag(t *testing.T) {
	var f compression.Format
	if err := f.UnmarshalText([]byte("BuildCompressionBrotli")); err != nil {
		t.Fatalf("UnmarshalText tag: %v", err)
	}
	if f != compression.FormatBrotli {
		t.Fatalf("got %v", f)
	}
	if err := f.UnmarshalText([]byte("gzip")); err != nil {
		t.Fatalf("UnmarshalText token: %v", err)
	}
	if f != compression.FormatGzip {
		t.Fatalf("got %v", f)
	}
	if err := f.UnmarshalText([]byte("deflate")); err == nil {
		t.Fatal("expected error for unknown value")
	}
}

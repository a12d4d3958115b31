package compression

import (
	"fmt"
	"path"
	"strings"
)

// Format identifies a precompression scheme. The zero value is not a valid
// format.
type Format uint8

const (
	FormatGzip Format = iota + 1
	FormatBrotli
)

type formatInfo struct {
	token           string
	tag             string
	suffix          string
	contentEncoding string
}

// formats is ordered by Format value; index 0 is unused.
var formats = [...]formatInfo{
	{},
	FormatGzip:   {token: "gzip", tag: "BuildCompressionGzip", suffix: ".gz", contentEncoding: "gzip"},
	FormatBrotli: {token: "brotli", tag: "BuildCompressionBrotli", suffix: ".br", contentEncoding: "br"},
}

// ListSeparator delimits tokens in a format list.
const ListSeparator = ";"

// All returns every known format in table order.
func All() []Format {
	out := make([]Format, 0, len(formats)-1)
	for i := 1; i < len(formats); i++ {
		out = append(out, Format(i))
	}
	return out
}

// Valid reports whether f is a member of the enumeration.
func (f Format) Valid() bool {
	return f > 0 && int(f) < len(formats)
}

func (f Format) info() formatInfo {
	if !f.Valid() {
		return formatInfo{}
	}
	return formats[f]
}

// Token returns the format-list token ("gzip").
func (f Format) Token() string { return f.info().token }

// Tag returns the explicit-request tag ("BuildCompressionGzip").
func (f Format) Tag() string { return f.info().tag }

// Suffix returns the extension appended to the original file name (".gz").
func (f Format) Suffix() string { return f.info().suffix }

// ContentEncoding returns the HTTP Content-Encoding value the artifact serves as.
func (f Format) ContentEncoding() string { return f.info().contentEncoding }

// String returns the human-readable name of a format.
func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
	return f.Token()
}

// MarshalText encodes the format as its token.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("marshal format: invalid value %d", uint8(f))
	}
	return []byte(f.Token()), nil
}

// UnmarshalText accepts either a token or a tag.
func (f *Format) UnmarshalText(text []byte) error {
	value := string(text)
	if parsed, err := ParseToken(value); err == nil {
		*f = parsed
		return nil
	}
	parsed, err := ParseTag(value)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseToken resolves a format-list token. Matching ignores case and
// surrounding whitespace.
func ParseToken(token string) (Format, error) {
	trimmed := strings.TrimSpace(token)
	for _, f := range All() {
		if strings.EqualFold(trimmed, f.Token()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown compression format %q", token)
}

// ParseTag resolves an explicit-request tag such as "BuildCompressionBrotli".
func ParseTag(tag string) (Format, error) {
	trimmed := strings.TrimSpace(tag)
	for _, f := range All() {
		if strings.EqualFold(trimmed, f.Tag()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown compression tag %q", tag)
}

// ParseList splits a `;`-delimited token list. Empty entries are ignored and
// repeated formats keep their first position. Every unknown token is reported
// in the returned error.
func ParseList(list string) ([]Format, error) {
	var (
		out     []Format
		unknown []string
	)
	seen := make(map[Format]struct{})
	for _, part := range strings.Split(list, ListSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := ParseToken(part)
		if err != nil {
			unknown = append(unknown, part)
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if len(unknown) > 0 {
		return out, fmt.Errorf("unknown compression format(s): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// FormatList renders formats back into the `;`-delimited token form.
func FormatList(list []Format) string {
	tokens := make([]string, 0, len(list))
	for _, f := range list {
		tokens = append(tokens, f.Token())
	}
	return strings.Join(tokens, ListSeparator)
}

// FromSuffix infers the format of an artifact path from its extension.
func FromSuffix(name string) (Format, bool) {
	ext := path.Ext(strings.ReplaceAll(name, "\\", "/"))
	if ext == "" {
		return 0, false
	}
	for _, f := range All() {
		if strings.EqualFold(ext, f.Suffix()) {
			return f, true
		}
	}
	return 0, false
}

// TrimSuffix removes the format suffix from name, returning name unchanged
// when it does not carry one.
func TrimSuffix(name string) string {
	f, ok := FromSuffix(name)
	if !ok {
		return name
	}
	return name[:len(name)-len(f.Suffix())]
}

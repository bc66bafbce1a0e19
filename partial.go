package liveedit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// errTruncated marks a value cut off by the end of the input. The value
// returned alongside it, if any, holds everything decoded up to that point.
var errTruncated = errors.New("truncated")

// partialString is a string value whose closing quote has not arrived yet.
type partialString string

// DecodePartial turns any prefix of the serialized response arguments into a
// best-effort structured value. It reports false while nothing usable has
// been decoded, or when the text is not a response object at all.
//
// Truncated explanation and content strings are surfaced with the text
// received so far. A truncated path is left empty until it is complete.
func DecodePartial(raw string) (ResponseArguments, bool) {
	p := &partialParser{s: raw}
	p.skipSpace()
	if p.eof() {
		return ResponseArguments{}, false
	}

	v, err := p.value()
	if err != nil && !errors.Is(err, errTruncated) {
		log.Debug("partial decode failed at offset %d: %v", p.pos, err)
		return ResponseArguments{}, false
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return ResponseArguments{}, false
	}
	return argumentsFromObject(obj), true
}

func argumentsFromObject(obj map[string]any) ResponseArguments {
	var args ResponseArguments

	if text, ok := stringValue(obj["explanation"]); ok {
		args.Explanation = text
		args.HasExplanation = true
	}

	items, ok := obj["edits"].([]any)
	if !ok {
		items, _ = obj["files"].([]any)
	}

	for _, item := range items {
		var edit FileEdit
		if fields, ok := item.(map[string]any); ok {
			if path, ok := fields["path"].(string); ok {
				edit.Path = path
			}
			if content, ok := stringValue(fields["content"]); ok {
				edit.Content = content
			}
		}
		// Keep malformed items so indexes stay stable.
		args.Edits = append(args.Edits, edit)
	}
	return args
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case partialString:
		return string(s), true
	}
	return "", false
}

type partialParser struct {
	s   string
	pos int
}

func (p *partialParser) eof() bool { return p.pos >= len(p.s) }

func (p *partialParser) skipSpace() {
	for !p.eof() {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *partialParser) syntaxError(what string) error {
	return fmt.Errorf("invalid character at offset %d: %s", p.pos, what)
}

func (p *partialParser) value() (any, error) {
	p.skipSpace()
	if p.eof() {
		return nil, errTruncated
	}

	switch c := p.s[p.pos]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		return p.str()
	case c == 't':
		return p.literal("true", true)
	case c == 'f':
		return p.literal("false", false)
	case c == 'n':
		return p.literal("null", nil)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return nil, p.syntaxError(fmt.Sprintf("unexpected %q", c))
	}
}

func (p *partialParser) object() (any, error) {
	p.pos++ // '{'
	obj := map[string]any{}

	for {
		p.skipSpace()
		if p.eof() {
			return obj, errTruncated
		}
		if p.s[p.pos] == '}' {
			p.pos++
			return obj, nil
		}
		if p.s[p.pos] != '"' {
			return nil, p.syntaxError("expected object key")
		}

		rawKey, err := p.str()
		if err != nil {
			// A key is useless until it is complete.
			return obj, err
		}
		key := rawKey.(string)

		p.skipSpace()
		if p.eof() {
			return obj, errTruncated
		}
		if p.s[p.pos] != ':' {
			return nil, p.syntaxError("expected ':' after object key")
		}
		p.pos++

		v, err := p.value()
		if err != nil {
			if errors.Is(err, errTruncated) && v != nil {
				obj[key] = v
			}
			return obj, err
		}
		obj[key] = v

		p.skipSpace()
		if p.eof() {
			return obj, errTruncated
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, p.syntaxError("expected ',' or '}' in object")
		}
	}
}

func (p *partialParser) array() (any, error) {
	p.pos++ // '['
	items := []any{}

	for {
		p.skipSpace()
		if p.eof() {
			return items, errTruncated
		}
		if p.s[p.pos] == ']' {
			p.pos++
			return items, nil
		}

		v, err := p.value()
		if err != nil {
			if errors.Is(err, errTruncated) && v != nil {
				items = append(items, v)
			}
			return items, err
		}
		items = append(items, v)

		p.skipSpace()
		if p.eof() {
			return items, errTruncated
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return items, nil
		default:
			return nil, p.syntaxError("expected ',' or ']' in array")
		}
	}
}

// str decodes a string starting at the opening quote. On truncation it
// returns the decoded prefix as a partialString; an escape sequence cut off
// by the end of input is dropped.
func (p *partialParser) str() (any, error) {
	p.pos++ // '"'
	var b strings.Builder

	for {
		if p.eof() {
			return partialString(b.String()), errTruncated
		}

		c := p.s[p.pos]
		switch {
		case c == '"':
			p.pos++
			return b.String(), nil
		case c == '\\':
			r, n, err := p.escape()
			if err != nil {
				if errors.Is(err, errTruncated) {
					return partialString(b.String()), err
				}
				return nil, err
			}
			b.WriteRune(r)
			p.pos += n
		default:
			r, size := utf8.DecodeRuneInString(p.s[p.pos:])
			if r == utf8.RuneError && size == 1 && !utf8.FullRuneInString(p.s[p.pos:]) {
				// Multi-byte rune split across fragments.
				return partialString(b.String()), errTruncated
			}
			b.WriteRune(r)
			p.pos += size
		}
	}
}

// escape decodes the escape sequence at p.pos and returns the rune and the
// number of input bytes it spans.
func (p *partialParser) escape() (rune, int, error) {
	rest := p.s[p.pos:]
	if len(rest) < 2 {
		return 0, 0, errTruncated
	}

	switch rest[1] {
	case '"':
		return '"', 2, nil
	case '\\':
		return '\\', 2, nil
	case '/':
		return '/', 2, nil
	case 'b':
		return '\b', 2, nil
	case 'f':
		return '\f', 2, nil
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case 'u':
		r, err := hexRune(rest[2:])
		if err != nil {
			return 0, 0, err
		}
		if !utf16.IsSurrogate(r) {
			return r, 6, nil
		}

		low := rest[6:]
		if len(low) < 6 && strings.HasPrefix(`\u`, low[:min(len(low), 2)]) {
			// The low half of the pair may still be on its way.
			return 0, 0, errTruncated
		}
		if strings.HasPrefix(low, `\u`) {
			r2, err := hexRune(low[2:])
			if err != nil {
				return 0, 0, err
			}
			if combined := utf16.DecodeRune(r, r2); combined != utf8.RuneError {
				return combined, 12, nil
			}
		}
		return utf8.RuneError, 6, nil
	default:
		return 0, 0, p.syntaxError(fmt.Sprintf("invalid escape %q", rest[:2]))
	}
}

func hexRune(s string) (rune, error) {
	if len(s) < 4 {
		for i := 0; i < len(s); i++ {
			if !isHex(s[i]) {
				return 0, fmt.Errorf("invalid unicode escape %q", s)
			}
		}
		return 0, errTruncated
	}
	v, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid unicode escape %q", s[:4])
	}
	return rune(v), nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (p *partialParser) literal(word string, v any) (any, error) {
	rest := p.s[p.pos:]
	if strings.HasPrefix(rest, word) {
		p.pos += len(word)
		return v, nil
	}
	if len(rest) < len(word) && strings.HasPrefix(word, rest) {
		p.pos = len(p.s)
		return nil, errTruncated
	}
	return nil, p.syntaxError("invalid literal")
}

func (p *partialParser) number() (any, error) {
	start := p.pos
	for !p.eof() && strings.IndexByte("+-0123456789.eE", p.s[p.pos]) >= 0 {
		p.pos++
	}
	if p.eof() {
		// More digits may follow.
		return nil, errTruncated
	}
	f, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return nil, p.syntaxError("invalid number")
	}
	return f, nil
}

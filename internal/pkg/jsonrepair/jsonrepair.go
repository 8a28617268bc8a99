// Package jsonrepair decodes the loosely formed JSON objects that language models emit.
//
// Decode accepts, on top of standard JSON:
//   - a surrounding markdown code fence and any prose before the first '{'
//     or after the matching '}'
//   - trailing commas in objects and arrays
//   - single-quoted strings and unquoted object keys
//   - Python literals True, False and None
//   - raw control characters (newlines, tabs) inside strings
//   - // line and /* block */ comments
//
// DecodePartial additionally repairs input that stops early: an unterminated
// string is closed with what was read, open arrays and objects are closed, and
// a member whose key or value was cut off is dropped.
//
// Failure modes: ErrEmpty for blank input, ErrNoObject when no '{' exists, and
// *SyntaxError for anything else. A SyntaxError caused by input ending early
// matches ErrTruncated with errors.Is.
package jsonrepair

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var (
	ErrEmpty     = errors.New("empty input")
	ErrNoObject  = errors.New("no JSON object found")
	ErrTruncated = errors.New("unexpected end of input")
)

// SyntaxError reports where decoding stopped. Offset counts bytes from the first '{'.
type SyntaxError struct {
	Offset int
	Msg    string
	err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.err }

// Decode parses the first JSON object found in text.
func Decode(text string) (map[string]any, error) {
	return decode(text, false)
}

// DecodePartial parses the first JSON object in text, closing whatever was left open.
func DecodePartial(text string) (map[string]any, error) {
	return decode(text, true)
}

func decode(text string, repair bool) (map[string]any, error) {
	body := stripFences(text)
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmpty
	}
	start := strings.IndexByte(body, '{')
	if start < 0 {
		return nil, ErrNoObject
	}

	p := &parser{src: body[start:], repair: repair}
	obj, err := p.parseObject()
	if errors.Is(err, errCut) {
		return obj, nil
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// errCut marks a value that ran into the end of input in repair mode.
var errCut = errors.New("cut")

type parser struct {
	src    string
	pos    int
	repair bool
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) syntaxErr(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) truncatedErr() error {
	return &SyntaxError{Offset: len(p.src), Msg: ErrTruncated.Error(), err: ErrTruncated}
}

// cut is returned whenever input ends inside a value.
func (p *parser) cut() error {
	if p.repair {
		return errCut
	}
	return p.truncatedErr()
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '/' && strings.HasPrefix(p.src[p.pos:], "//"):
			if nl := strings.IndexByte(p.src[p.pos:], '\n'); nl >= 0 {
				p.pos += nl + 1
			} else {
				p.pos = len(p.src)
			}
		case c == '/' && strings.HasPrefix(p.src[p.pos:], "/*"):
			if end := strings.Index(p.src[p.pos+2:], "*/"); end >= 0 {
				p.pos += end + 4
			} else {
				p.pos = len(p.src)
			}
		default:
			return
		}
	}
}

func (p *parser) parseValue() (any, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.cut()
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"' || c == '\'':
		return p.parseString()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseLiteral()
	}
}

// parseObject expects p.pos at '{'.
func (p *parser) parseObject() (map[string]any, error) {
	p.pos++
	obj := map[string]any{}
	for {
		p.skipSpace()
		if p.eof() {
			return obj, p.cut()
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return obj, nil
		}

		key, err := p.parseKey()
		if err != nil {
			return obj, err
		}

		p.skipSpace()
		if p.eof() {
			return obj, p.cut()
		}
		if p.src[p.pos] != ':' {
			return nil, p.syntaxErr("expected ':' after object key %q", key)
		}
		p.pos++

		value, err := p.parseValue()
		if errors.Is(err, errCut) {
			if value != nil {
				obj[key] = value
			}
			return obj, err
		}
		if err != nil {
			return nil, err
		}
		obj[key] = value

		p.skipSpace()
		if p.eof() {
			return obj, p.cut()
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, p.syntaxErr("expected ',' or '}' in object")
		}
	}
}

// parseArray expects p.pos at '['.
func (p *parser) parseArray() ([]any, error) {
	p.pos++
	arr := []any{}
	for {
		p.skipSpace()
		if p.eof() {
			return arr, p.cut()
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return arr, nil
		}

		value, err := p.parseValue()
		if errors.Is(err, errCut) {
			if value != nil {
				arr = append(arr, value)
			}
			return arr, err
		}
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)

		p.skipSpace()
		if p.eof() {
			return arr, p.cut()
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, p.syntaxErr("expected ',' or ']' in array")
		}
	}
}

// parseKey reads a quoted or bare object key. A key cut by end of input is
// reported as errCut so the caller drops the member.
func (p *parser) parseKey() (string, error) {
	c := p.src[p.pos]
	if c == '"' || c == '\'' {
		key, err := p.parseString()
		if errors.Is(err, errCut) {
			return "", err
		}
		return key, err
	}

	start := p.pos
	for !p.eof() && isBareKeyByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.syntaxErr("invalid character %q looking for object key", c)
	}
	if p.eof() {
		return "", p.cut()
	}
	return p.src[start:p.pos], nil
}

func isBareKeyByte(c byte) bool {
	return c == '_' || c == '$' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// parseString expects p.pos at the opening quote. In repair mode an
// unterminated string returns what was read together with errCut.
func (p *parser) parseString() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			if p.repair {
				return b.String(), errCut
			}
			return "", p.truncatedErr()
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.readEscape(&b); err != nil {
				if errors.Is(err, errCut) {
					return b.String(), err
				}
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *parser) readEscape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.eof() {
		return p.cut()
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '"', '\'', '\\', '/':
		b.WriteByte(c)
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'u':
		r, err := p.readHex4()
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) && strings.HasPrefix(p.src[p.pos:], `\u`) {
			save := p.pos
			p.pos += 2
			low, err := p.readHex4()
			if err == nil {
				if combined := utf16.DecodeRune(r, low); combined != utf8.RuneError {
					b.WriteRune(combined)
					return nil
				}
			}
			p.pos = save
		}
		b.WriteRune(r)
	default:
		// unknown escapes keep the escaped character
		b.WriteByte(c)
	}
	return nil
}

func (p *parser) readHex4() (rune, error) {
	if p.pos+4 > len(p.src) {
		p.pos = len(p.src)
		return 0, p.cut()
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, p.syntaxErr("invalid \\u escape")
	}
	p.pos += 4
	return rune(v), nil
}

func (p *parser) parseNumber() (any, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for !p.eof() {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			p.pos++
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if p.eof() {
			return nil, p.cut()
		}
		return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("invalid number %q", text)}
	}
	return f, nil
}

var literals = []struct {
	word  string
	value any
}{
	{"true", true},
	{"false", false},
	{"null", nil},
	{"True", true},
	{"False", false},
	{"None", nil},
}

func (p *parser) parseLiteral() (any, error) {
	rest := p.src[p.pos:]
	for _, lit := range literals {
		if strings.HasPrefix(rest, lit.word) {
			p.pos += len(lit.word)
			return lit.value, nil
		}
	}
	for _, lit := range literals {
		if len(rest) < len(lit.word) && strings.HasPrefix(lit.word, rest) {
			p.pos = len(p.src)
			return nil, p.cut()
		}
	}
	return nil, p.syntaxErr("invalid character %q looking for value", p.src[p.pos])
}

package decode

import (
	"fmt"
	"regexp"
	"strings"
)

// scriptSpan matches embedded script markup anywhere in the payload,
// including across newlines. The upstream occasionally injects tracking
// scripts ahead of the data literal.
var scriptSpan = regexp.MustCompile(`(?s)<script.*?</script>`)

// Decode turns a raw upstream payload into its ordered records.
//
// The payload, after script markup is stripped, must be a literal list of
// flat mappings with quoted string keys and string/number values, e.g.:
//
//	[{'Timelogged': '05/29/2025 12:00:00 AM', 'BF2_CO': '23.4'}, ...]
//
// This is the upstream's literal dialect, not JSON: single quotes are the
// norm and the grammar is deliberately strict. Any malformed value fails
// the whole decode — no partial results are ever returned.
//
// Parameters:
//   - raw: Raw payload string from the upstream API
//
// Returns:
//   - []Record: One record per mapping, in payload order
//   - error: ErrMalformedPayload (wrapped with position detail) on any
//     syntax error
func Decode(raw string) ([]Record, error) {
	cleaned := strings.TrimSpace(scriptSpan.ReplaceAllString(raw, ""))

	p := &parser{input: cleaned}
	records, err := p.parseList()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, p.errorf("trailing data after list")
	}

	return records, nil
}

// parser is a single-pass recursive-descent parser over the cleaned payload.
type parser struct {
	input string
	pos   int
}

// errorf wraps a syntax error with the sentinel and the byte offset.
func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrMalformedPayload, fmt.Sprintf(format, args...), p.pos)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// peek returns the current byte, or 0 at end of input.
func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// expect consumes the given byte or fails.
func (p *parser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", string(c))
	}
	p.pos++
	return nil
}

// parseList parses the top-level list of mappings.
func (p *parser) parseList() ([]Record, error) {
	p.skipSpace()
	if err := p.expect('['); err != nil {
		return nil, err
	}

	var records []Record
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return records, nil
	}

	for {
		rec, err := p.parseMapping()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			// Trailing comma before the closing bracket is accepted;
			// the upstream emitter produces it on some days.
			if p.peek() == ']' {
				p.pos++
				return records, nil
			}
		case ']':
			p.pos++
			return records, nil
		default:
			return nil, p.errorf("expected ',' or ']' after mapping")
		}
	}
}

// parseMapping parses one flat {key: value, ...} mapping.
func (p *parser) parseMapping() (Record, error) {
	rec := NewRecord()

	p.skipSpace()
	if err := p.expect('{'); err != nil {
		return rec, err
	}

	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return rec, nil
	}

	for {
		p.skipSpace()
		key, err := p.parseString()
		if err != nil {
			return rec, err
		}

		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return rec, err
		}

		p.skipSpace()
		value, err := p.parseValue()
		if err != nil {
			return rec, err
		}
		rec.Set(key, value)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				return rec, nil
			}
		case '}':
			p.pos++
			return rec, nil
		default:
			return rec, p.errorf("expected ',' or '}' after value")
		}
	}
}

// parseValue parses a scalar: quoted string, number, or bare literal.
// Values are carried as strings; numeric interpretation happens later in
// classification, where coercion failures drop the field rather than the
// payload.
func (p *parser) parseValue() (string, error) {
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '-' || c == '+' || (c >= '0' && c <= '9') || c == '.':
		return p.parseNumber()
	default:
		return p.parseBareLiteral()
	}
}

// parseString parses a single- or double-quoted string with backslash escapes.
func (p *parser) parseString() (string, error) {
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", p.errorf("expected quoted string")
	}
	p.pos++

	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return "", p.errorf("unterminated escape")
			}
			esc := p.input[p.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(esc)
			default:
				return "", p.errorf("unsupported escape %q", string(esc))
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}

	return "", p.errorf("unterminated string")
}

// parseNumber parses an integer or float literal and returns its exact text.
func (p *parser) parseNumber() (string, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}

	digits, dot, exp := 0, false, false
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c >= '0' && c <= '9':
			digits++
			p.pos++
		case c == '.' && !dot && !exp:
			dot = true
			p.pos++
		case (c == 'e' || c == 'E') && digits > 0 && !exp:
			exp = true
			digits = 0
			p.pos++
			if n := p.peek(); n == '-' || n == '+' {
				p.pos++
			}
		default:
			goto done
		}
	}
done:
	if digits == 0 {
		return "", p.errorf("malformed number")
	}
	return p.input[start:p.pos], nil
}

// parseBareLiteral accepts the upstream's non-string scalars: None for a
// missing value (carried as empty, which coercion treats as absent) and
// True/False (carried as 1/0, matching the upstream's numeric view of
// booleans). Anything else is a syntax error.
func (p *parser) parseBareLiteral() (string, error) {
	rest := p.input[p.pos:]
	switch {
	case strings.HasPrefix(rest, "None"):
		p.pos += len("None")
		return "", nil
	case strings.HasPrefix(rest, "True"):
		p.pos += len("True")
		return "1", nil
	case strings.HasPrefix(rest, "False"):
		p.pos += len("False")
		return "0", nil
	default:
		return "", p.errorf("unexpected value")
	}
}

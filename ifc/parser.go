package ifc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	keywordISO    = "ISO-10303-21"
	keywordEndISO = "END-ISO-10303-21"
	keywordHeader = "HEADER"
	keywordData   = "DATA"
	keywordEndSec = "ENDSEC"
	keywordSchema = "FILE_SCHEMA"
)

// SyntaxError describes malformed STEP input.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Parse parses an ISO 10303-21 physical file into a Model.
func Parse(data []byte) (*Model, error) {
	tokens, err := tokenize(data)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, size: len(data)}
	return p.parse()
}

type parser struct {
	tokens []token
	pos    int
	size   int
}

func (p *parser) parse() (*Model, error) {
	if err := p.expectKeyword(keywordISO); err != nil {
		return nil, err
	}
	if err := p.expect(semicolonToken); err != nil {
		return nil, err
	}

	model := newModel()
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if tok.code != keywordToken {
			return nil, p.errorAt(tok, "expected section keyword, got %q", tok.text)
		}
		switch strings.ToUpper(tok.text) {
		case keywordHeader:
			if err := p.expect(semicolonToken); err != nil {
				return nil, err
			}
			if err := p.parseHeader(model); err != nil {
				return nil, err
			}
		case keywordData:
			// DATA may carry section parameters in edition 3 files.
			if p.peek(openToken) {
				if _, err := p.parseList(); err != nil {
					return nil, err
				}
			}
			if err := p.expect(semicolonToken); err != nil {
				return nil, err
			}
			if err := p.parseData(model); err != nil {
				return nil, err
			}
		case keywordEndISO:
			if err := p.expect(semicolonToken); err != nil {
				return nil, err
			}
			model.index()
			return model, nil
		default:
			return nil, p.errorAt(tok, "unexpected section %q", tok.text)
		}
	}
}

func (p *parser) parseHeader(model *Model) error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		if tok.code != keywordToken {
			return p.errorAt(tok, "expected header entity, got %q", tok.text)
		}
		name := strings.ToUpper(tok.text)
		if name == keywordEndSec {
			return p.expect(semicolonToken)
		}
		params, err := p.parseList()
		if err != nil {
			return err
		}
		if err := p.expect(semicolonToken); err != nil {
			return err
		}
		if name == keywordSchema && len(params.List) > 0 {
			schemas := params.List[0]
			if schemas.Kind == KindList && len(schemas.List) > 0 && schemas.List[0].Kind == KindString {
				model.Schema = schemas.List[0].Str
			}
		}
	}
}

func (p *parser) parseData(model *Model) error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok.code {
		case keywordToken:
			if strings.ToUpper(tok.text) != keywordEndSec {
				return p.errorAt(tok, "unexpected keyword %q in DATA section", tok.text)
			}
			return p.expect(semicolonToken)
		case referenceToken:
		default:
			return p.errorAt(tok, "expected instance name, got %q", tok.text)
		}

		id, err := strconv.Atoi(tok.text[1:])
		if err != nil {
			return p.errorAt(tok, "invalid instance name %q", tok.text)
		}
		if err := p.expect(assignToken); err != nil {
			return err
		}
		typeTok, err := p.next()
		if err != nil {
			return err
		}
		if typeTok.code != keywordToken {
			if typeTok.code == openToken {
				return p.errorAt(typeTok, "complex entity instance #%d is not supported", id)
			}
			return p.errorAt(typeTok, "expected entity type for #%d, got %q", id, typeTok.text)
		}
		params, err := p.parseList()
		if err != nil {
			return err
		}
		if err := p.expect(semicolonToken); err != nil {
			return err
		}
		if _, exists := model.entities[id]; exists {
			return p.errorAt(tok, "duplicate instance #%d", id)
		}
		model.entities[id] = &Entity{
			ID:     id,
			Type:   EntityType(strings.ToUpper(typeTok.text)),
			Params: params.List,
		}
	}
}

// parseList parses a parenthesised, comma-separated parameter list.
func (p *parser) parseList() (Value, error) {
	if err := p.expect(openToken); err != nil {
		return Value{}, err
	}
	list := Value{Kind: KindList}
	if p.peek(closeToken) {
		p.pos++
		return list, nil
	}
	for {
		item, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		list.List = append(list.List, item)

		tok, err := p.next()
		if err != nil {
			return Value{}, err
		}
		switch tok.code {
		case commaToken:
			continue
		case closeToken:
			return list, nil
		default:
			return Value{}, p.errorAt(tok, "expected ',' or ')', got %q", tok.text)
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	if p.peek(openToken) {
		return p.parseList()
	}
	tok, err := p.next()
	if err != nil {
		return Value{}, err
	}
	switch tok.code {
	case nullToken:
		return Value{Kind: KindNull}, nil
	case derivedToken:
		return Value{Kind: KindDerived}, nil
	case stringToken:
		text, err := decodeString(tok.text[1 : len(tok.text)-1])
		if err != nil {
			return Value{}, p.errorAt(tok, "%v", err)
		}
		return Value{Kind: KindString, Str: text}, nil
	case binaryToken:
		return Value{Kind: KindString, Str: tok.text[1 : len(tok.text)-1]}, nil
	case referenceToken:
		id, err := strconv.Atoi(tok.text[1:])
		if err != nil {
			return Value{}, p.errorAt(tok, "invalid reference %q", tok.text)
		}
		return Value{Kind: KindRef, Ref: id}, nil
	case enumToken:
		return Value{Kind: KindEnum, Str: strings.ToUpper(tok.text[1 : len(tok.text)-1])}, nil
	case numberToken:
		return p.parseNumber(tok)
	case keywordToken:
		inner, err := p.parseList()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTyped, Str: strings.ToUpper(tok.text), List: inner.List}, nil
	default:
		return Value{}, p.errorAt(tok, "unexpected %q", tok.text)
	}
}

func (p *parser) parseNumber(tok token) (Value, error) {
	if !strings.ContainsAny(tok.text, ".eE") {
		i, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return Value{}, p.errorAt(tok, "invalid integer %q", tok.text)
		}
		return Value{Kind: KindInteger, Int: i}, nil
	}
	// "1.E3" and "0." are valid STEP reals; ParseFloat accepts both.
	f, err := strconv.ParseFloat(tok.text, 64)
	if err != nil {
		return Value{}, p.errorAt(tok, "invalid real %q", tok.text)
	}
	return Value{Kind: KindReal, Real: f}, nil
}

func (p *parser) next() (token, error) {
	if p.pos >= len(p.tokens) {
		return token{}, &SyntaxError{Offset: p.size, Msg: "unexpected end of input"}
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

func (p *parser) peek(code int) bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos].code == code
}

func (p *parser) expect(code int) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.code != code {
		return p.errorAt(tok, "expected %s, got %q", tokenName(code), tok.text)
	}
	return nil
}

func (p *parser) expectKeyword(keyword string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.code != keywordToken || strings.ToUpper(tok.text) != keyword {
		return p.errorAt(tok, "expected %s, got %q", keyword, tok.text)
	}
	return nil
}

func (p *parser) errorAt(tok token, format string, args ...any) error {
	return &SyntaxError{Offset: tok.offset, Msg: fmt.Sprintf(format, args...)}
}

func tokenName(code int) string {
	switch code {
	case openToken:
		return "'('"
	case closeToken:
		return "')'"
	case commaToken:
		return "','"
	case semicolonToken:
		return "';'"
	case assignToken:
		return "'='"
	default:
		return "token"
	}
}

// decodeString resolves STEP string escapes: '' for a quote, \\ for a
// backslash, \S\c for an ISO 8859-1 upper half character, \X\hh for an
// ISO 8859-1 byte, and \X2\...\X0\ and \X4\...\X0\ for UTF-16 and UCS-4
// hex runs. \P.\ code page directives are dropped. Raw bytes outside ASCII
// are kept when the string is valid UTF-8 and read as ISO 8859-1 otherwise.
func decodeString(raw string) (string, error) {
	latin1 := !utf8.ValidString(raw)
	if !latin1 && !strings.ContainsAny(raw, `'\`) {
		return raw, nil
	}
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\'' && i+1 < len(raw) && raw[i+1] == '\'':
			sb.WriteByte('\'')
			i++
		case c == '\\' && strings.HasPrefix(raw[i:], `\\`):
			sb.WriteByte('\\')
			i++
		case c == '\\' && strings.HasPrefix(raw[i:], `\X2\`):
			end := strings.Index(raw[i+4:], `\X0\`)
			if end < 0 {
				return "", fmt.Errorf("unterminated \\X2\\ escape")
			}
			runes, err := decodeHexRun(raw[i+4:i+4+end], 4)
			if err != nil {
				return "", err
			}
			u16 := make([]uint16, len(runes))
			for j, r := range runes {
				u16[j] = uint16(r)
			}
			sb.WriteString(string(utf16.Decode(u16)))
			i += 4 + end + 3
		case c == '\\' && strings.HasPrefix(raw[i:], `\X4\`):
			end := strings.Index(raw[i+4:], `\X0\`)
			if end < 0 {
				return "", fmt.Errorf("unterminated \\X4\\ escape")
			}
			runes, err := decodeHexRun(raw[i+4:i+4+end], 8)
			if err != nil {
				return "", err
			}
			for _, r := range runes {
				sb.WriteRune(rune(r))
			}
			i += 4 + end + 3
		case c == '\\' && strings.HasPrefix(raw[i:], `\X\`) && i+5 <= len(raw):
			b, err := strconv.ParseUint(raw[i+3:i+5], 16, 8)
			if err != nil {
				return "", fmt.Errorf("invalid \\X\\ escape %q", raw[i:i+5])
			}
			sb.WriteRune(rune(b))
			i += 4
		case c == '\\' && strings.HasPrefix(raw[i:], `\S\`) && i+3 < len(raw):
			sb.WriteRune(rune(raw[i+3]&0x7f) + 0x80)
			if raw[i+3] == '\'' && i+4 < len(raw) && raw[i+4] == '\'' {
				i++
			}
			i += 3
		case c == '\\' && i+3 < len(raw) && raw[i+1] == 'P' && raw[i+3] == '\\':
			i += 3
		case c >= utf8.RuneSelf && latin1:
			sb.WriteRune(rune(c))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

func decodeHexRun(hex string, width int) ([]uint32, error) {
	if len(hex)%width != 0 {
		return nil, fmt.Errorf("invalid hex escape length %d", len(hex))
	}
	out := make([]uint32, 0, len(hex)/width)
	for i := 0; i < len(hex); i += width {
		v, err := strconv.ParseUint(hex[i:i+width], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid hex escape %q", hex[i:i+width])
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

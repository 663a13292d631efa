package ifc

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken = iota
	commentToken
	stringToken
	binaryToken
	referenceToken
	enumToken
	numberToken
	keywordToken
	openToken
	closeToken
	commaToken
	semicolonToken
	assignToken
	nullToken
	derivedToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
var commentMatcher = parsly.NewToken(commentToken, "Comment", matcher.NewSeqBlock("/*", "*/"))
var stringMatcher = parsly.NewToken(stringToken, "String", &stringMatch{})
var binaryMatcher = parsly.NewToken(binaryToken, "Binary", matcher.NewBlock('"', '"', '\\'))
var referenceMatcher = parsly.NewToken(referenceToken, "Reference", &referenceMatch{})
var enumMatcher = parsly.NewToken(enumToken, "Enumeration", &enumMatch{})
var numberMatcher = parsly.NewToken(numberToken, "Number", &numberMatch{})
var keywordMatcher = parsly.NewToken(keywordToken, "Keyword", &keywordMatch{})
var openMatcher = parsly.NewToken(openToken, "(", matcher.NewByte('('))
var closeMatcher = parsly.NewToken(closeToken, ")", matcher.NewByte(')'))
var commaMatcher = parsly.NewToken(commaToken, ",", matcher.NewByte(','))
var semicolonMatcher = parsly.NewToken(semicolonToken, ";", matcher.NewByte(';'))
var assignMatcher = parsly.NewToken(assignToken, "=", matcher.NewByte('='))
var nullMatcher = parsly.NewToken(nullToken, "$", matcher.NewByte('$'))
var derivedMatcher = parsly.NewToken(derivedToken, "*", matcher.NewByte('*'))

var allMatchers = []*parsly.Token{
	commentMatcher,
	stringMatcher,
	binaryMatcher,
	referenceMatcher,
	enumMatcher,
	numberMatcher,
	keywordMatcher,
	openMatcher,
	closeMatcher,
	commaMatcher,
	semicolonMatcher,
	assignMatcher,
	nullMatcher,
	derivedMatcher,
}

// token is a lexed STEP token. Text is the raw source text.
type token struct {
	code   int
	text   string
	offset int
}

// tokenize splits a STEP physical file into tokens, dropping whitespace and
// comments.
func tokenize(input []byte) ([]token, error) {
	cursor := parsly.NewCursor("", input, 0)
	tokens := make([]token, 0, len(input)/4)
	for {
		matched := cursor.MatchAfterOptional(whitespaceMatcher, allMatchers...)
		switch matched.Code {
		case parsly.EOF:
			return tokens, nil
		case parsly.Invalid:
			return nil, &SyntaxError{Offset: cursor.Pos, Msg: "unexpected character"}
		case commentToken:
			continue
		}
		tokens = append(tokens, token{
			code:   matched.Code,
			text:   matched.Text(cursor),
			offset: matched.Offset,
		})
	}
}

// stringMatch matches a single-quoted STEP string where '' is an escaped quote.
type stringMatch struct{}

func (s *stringMatch) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || input[pos] != '\'' {
		return 0
	}
	for i := pos + 1; i < cursor.InputSize; i++ {
		if input[i] != '\'' {
			continue
		}
		if i+1 < cursor.InputSize && input[i+1] == '\'' {
			i++
			continue
		}
		return i - pos + 1
	}
	return 0
}

// referenceMatch matches an entity instance name such as #42.
type referenceMatch struct{}

func (r *referenceMatch) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || input[pos] != '#' {
		return 0
	}
	end := pos + 1
	for end < cursor.InputSize && isDigit(input[end]) {
		end++
	}
	if end == pos+1 {
		return 0
	}
	return end - pos
}

// enumMatch matches an enumeration or boolean such as .T. or .ELEMENT.
type enumMatch struct{}

func (e *enumMatch) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || input[pos] != '.' {
		return 0
	}
	end := pos + 1
	for end < cursor.InputSize && isKeywordPart(input[end]) {
		end++
	}
	if end == pos+1 || end >= cursor.InputSize || input[end] != '.' {
		return 0
	}
	return end - pos + 1
}

// numberMatch matches STEP integers and reals: -12, 3.5, 0., 1.E-3.
type numberMatch struct{}

func (n *numberMatch) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	size := cursor.InputSize
	pos := cursor.Pos
	end := pos
	if end < size && (input[end] == '+' || input[end] == '-') {
		end++
	}
	digits := end
	for end < size && isDigit(input[end]) {
		end++
	}
	if end == digits {
		return 0
	}
	if end < size && input[end] == '.' {
		end++
		for end < size && isDigit(input[end]) {
			end++
		}
	}
	if end < size && (input[end] == 'E' || input[end] == 'e') {
		exp := end + 1
		if exp < size && (input[exp] == '+' || input[exp] == '-') {
			exp++
		}
		expDigits := exp
		for exp < size && isDigit(input[exp]) {
			exp++
		}
		if exp > expDigits {
			end = exp
		}
	}
	return end - pos
}

// keywordMatch matches entity and section keywords, including the
// hyphenated ISO-10303-21 markers.
type keywordMatch struct{}

func (k *keywordMatch) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || !isLetter(input[pos]) {
		return 0
	}
	end := pos + 1
	for end < cursor.InputSize && (isKeywordPart(input[end]) || input[end] == '-') {
		end++
	}
	return end - pos
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isKeywordPart(b byte) bool {
	return isLetter(b) || isDigit(b)
}

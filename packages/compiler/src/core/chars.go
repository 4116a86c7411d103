package core

// Character code constants used by the tokenizer, the clause parsers and the
// interpolation scanner.
const (
	CharEOF        = 0
	CharTAB        = 9
	CharLF         = 10
	CharCR         = 13
	CharSPACE      = 32
	CharBANG       = 33
	CharDQ         = 34
	CharDollar     = 36
	CharAMPERSAND  = 38
	CharSQ         = 39
	CharLPAREN     = 40
	CharRPAREN     = 41
	CharCOMMA      = 44
	CharMINUS      = 45
	CharPERIOD     = 46
	CharSLASH      = 47
	CharCOLON      = 58
	CharSEMICOLON  = 59
	CharLT         = 60
	CharEQ         = 61
	CharGT         = 62
	CharQUESTION   = 63
	CharLBRACKET   = 91
	CharBACKSLASH  = 92
	CharRBRACKET   = 93
	CharUnderscore = 95
	CharLBRACE     = 123
	CharPIPE       = 124
	CharRBRACE     = 125

	Char0 = 48
	Char9 = 57

	CharA      = 65
	CharZ      = 90
	CharLowerA = 97
	CharLowerZ = 122
)

// IsWhitespace checks if a character code represents markup whitespace
func IsWhitespace(code int) bool {
	return code == CharSPACE || code == CharTAB || code == CharLF || code == CharCR || code == 12
}

// IsDigit checks if a character code represents a digit
func IsDigit(code int) bool {
	return Char0 <= code && code <= Char9
}

// IsAsciiLetter checks if a character code represents an ASCII letter
func IsAsciiLetter(code int) bool {
	return (code >= CharLowerA && code <= CharLowerZ) || (code >= CharA && code <= CharZ)
}

// IsNameStart checks if a character code may start a tag or attribute name.
// Bytes above 0x7f are accepted so that non-ASCII names survive untouched.
func IsNameStart(code int) bool {
	return IsAsciiLetter(code) || code == CharUnderscore || code == CharCOLON || code >= 0x80
}

// IsNameChar checks if a character code may continue a tag or attribute name
func IsNameChar(code int) bool {
	return IsNameStart(code) || IsDigit(code) || code == CharMINUS || code == CharPERIOD
}

// IsIdentifierStart checks if a character code may start a variable name
func IsIdentifierStart(code int) bool {
	return IsAsciiLetter(code) || code == CharUnderscore
}

// IsIdentifierPart checks if a character code may continue a variable name
func IsIdentifierPart(code int) bool {
	return IsIdentifierStart(code) || IsDigit(code)
}

// IsIdentifier checks if the whole string is a valid variable name
func IsIdentifier(s string) bool {
	if s == "" || !IsIdentifierStart(int(s[0])) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsIdentifierPart(int(s[i])) {
			return false
		}
	}
	return true
}

// IsQuote checks if a character code represents an attribute quote character
func IsQuote(code int) bool {
	return code == CharSQ || code == CharDQ
}

// Package token defines the lexical tokens produced by internal/lexer, per
// spec.md §3 ("Token: (kind, lexeme slice, line, column)").
package token

import "fmt"

// Kind identifies a lexical token category.
type Kind int

const (
	EOF Kind = iota
	Error

	Ident
	Integer
	Float
	Char

	// String literal pieces. A plain string with no interpolation lexes as a
	// single String token. An interpolated string lexes as StringStart,
	// (Ident/expr tokens for the embedded expression), StringMid* , StringEnd.
	String
	StringStart
	StringMid
	StringEnd
	RawString

	// Operators
	Plus
	Minus
	Star
	Slash
	Percent
	EqEq
	NotEq
	Less
	LessEq
	Greater
	GreaterEq
	PlusPlus
	MinusMinus
	Assign
	FatArrow // =>

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Colon
	Dot
	DotDot

	// Keywords
	KwType
	KwEnum
	KwFunc
	KwDef
	KwRet
	KwSpawn
	KwView
	KwMod
	KwOpt
	KwID
	KwKey
	KwIf
	KwElse
	KwLoop
	KwIn
	KwMatch
	KwCase
	KwDefault
	KwImport
	KwExport
	KwExtern
	KwPack
	KwPub
	KwPriv
	KwTrue
	KwFalse
	KwNone
	KwAnd
	KwOr
	KwNot
	KwIs
)

var keywords = map[string]Kind{
	"type":    KwType,
	"enum":    KwEnum,
	"func":    KwFunc,
	"def":     KwDef,
	"ret":     KwRet,
	"spawn":   KwSpawn,
	"view":    KwView,
	"mod":     KwMod,
	"opt":     KwOpt,
	"id":      KwID,
	"key":     KwKey,
	"if":      KwIf,
	"else":    KwElse,
	"loop":    KwLoop,
	"in":      KwIn,
	"match":   KwMatch,
	"case":    KwCase,
	"default": KwDefault,
	"import":  KwImport,
	"export":  KwExport,
	"extern":  KwExtern,
	"pack":    KwPack,
	"pub":     KwPub,
	"priv":    KwPriv,
	"true":    KwTrue,
	"false":   KwFalse,
	"none":    KwNone,
	"and":     KwAnd,
	"or":      KwOr,
	"not":     KwNot,
	"is":      KwIs,
}

// Lookup returns the keyword Kind for s, or (Ident, false) if s is not a
// keyword.
func Lookup(s string) (Kind, bool) {
	k, ok := keywords[s]
	if !ok {
		return Ident, false
	}
	return k, true
}

var names = map[Kind]string{
	EOF: "EOF", Error: "ERROR", Ident: "IDENT", Integer: "INTEGER", Float: "FLOAT",
	Char: "CHAR", String: "STRING", StringStart: "STRING_START", StringMid: "STRING_MID",
	StringEnd: "STRING_END", RawString: "RAW_STRING",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	EqEq: "==", NotEq: "!=", Less: "<", LessEq: "<=", Greater: ">", GreaterEq: ">=",
	PlusPlus: "++", MinusMinus: "--", Assign: "=", FatArrow: "=>",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Comma: ",", Colon: ":", Dot: ".", DotDot: "..",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	for s, kw := range keywords {
		if kw == k {
			return s
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pos is a 1-based line/column location within one source file.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Token is one lexical token. Lexeme is a string built by the lexer (an
// escape-processed copy for string segments, and an arena-interned string
// for identifiers when the lexer has an arena); it does not alias the
// source text.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Pos
}

// Comment is a retained line or block comment, delivered to the
// pretty-printer but never to the parser (spec.md §4.1).
type Comment struct {
	Text  string
	Pos   Pos
	Block bool
}

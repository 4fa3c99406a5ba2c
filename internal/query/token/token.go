// Package token defines the lexical tokens of the corpus query language
// described in spec.md §4.7.
package token

// Type identifies the kind of a lexical token.
type Type int

const (
	ILLEGAL Type = iota
	EOF

	IDENT    // column_name, alias, relation name
	VARIABLE // ?v
	INT      // 42
	STRING   // "quoted string"
	DATE     // 2023-01-15 or 2023-01-15T00:00:00

	COMMA     // ,
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	DOT       // .
	STAR      // *
	MINUS     // - (order-by descending prefix)

	keyword_beg
	FROM
	AS
	SELECT
	WHERE
	JOIN
	ON
	ORDER
	BY
	LIMIT
	GRANULARITY
	DOCUMENT
	SENTENCE
	AND
	OR
	NOT
	CONTAINS
	NER
	POS
	DEP
	HYPERNYM
	DATE_KW
	COUNT
	UNIQUE
	DOCUMENTS
	SNIPPET
	TITLE
	TIMESTAMP
	METADATA
	WINDOW
	CONTAINED_BY
	INTERSECT
	PROXIMITY
	BEFORE
	AFTER
	EQUAL
	INNER
	LEFT
	RIGHT
	keyword_end
)

var names = map[Type]string{
	ILLEGAL:       "ILLEGAL",
	EOF:           "EOF",
	IDENT:         "IDENT",
	VARIABLE:      "VARIABLE",
	INT:           "INT",
	STRING:        "STRING",
	DATE:          "DATE",
	COMMA:         ",",
	LPAREN:        "(",
	RPAREN:        ")",
	LBRACKET:      "[",
	RBRACKET:      "]",
	DOT:           ".",
	STAR:          "*",
	MINUS:         "-",
	FROM:          "FROM",
	AS:            "AS",
	SELECT:        "SELECT",
	WHERE:         "WHERE",
	JOIN:          "JOIN",
	ON:            "ON",
	ORDER:         "ORDER",
	BY:            "BY",
	LIMIT:         "LIMIT",
	GRANULARITY:   "GRANULARITY",
	DOCUMENT:      "DOCUMENT",
	SENTENCE:      "SENTENCE",
	AND:           "AND",
	OR:            "OR",
	NOT:           "NOT",
	CONTAINS:      "CONTAINS",
	NER:           "NER",
	POS:           "POS",
	DEP:           "DEP",
	HYPERNYM:      "HYPERNYM",
	DATE_KW:       "DATE",
	COUNT:         "COUNT",
	UNIQUE:        "UNIQUE",
	DOCUMENTS:     "DOCUMENTS",
	SNIPPET:       "SNIPPET",
	TITLE:         "TITLE",
	TIMESTAMP:     "TIMESTAMP",
	METADATA:      "METADATA",
	WINDOW:        "WINDOW",
	CONTAINED_BY:  "CONTAINED_BY",
	INTERSECT:     "INTERSECT",
	PROXIMITY:     "PROXIMITY",
	BEFORE:        "BEFORE",
	AFTER:         "AFTER",
	EQUAL:         "EQUAL",
	INNER:         "INNER",
	LEFT:          "LEFT",
	RIGHT:         "RIGHT",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// keywords maps the upper-cased literal form of every reserved word to
// its token type, used by LookupIdent to distinguish keywords from
// plain identifiers.
var keywords = map[string]Type{
	"FROM":          FROM,
	"AS":            AS,
	"SELECT":        SELECT,
	"WHERE":         WHERE,
	"JOIN":          JOIN,
	"ON":            ON,
	"ORDER":         ORDER,
	"BY":            BY,
	"LIMIT":         LIMIT,
	"GRANULARITY":   GRANULARITY,
	"DOCUMENT":      DOCUMENT,
	"SENTENCE":      SENTENCE,
	"AND":           AND,
	"OR":            OR,
	"NOT":           NOT,
	"CONTAINS":      CONTAINS,
	"NER":           NER,
	"POS":           POS,
	"DEP":           DEP,
	"HYPERNYM":      HYPERNYM,
	"DATE":          DATE_KW,
	"COUNT":         COUNT,
	"UNIQUE":        UNIQUE,
	"DOCUMENTS":     DOCUMENTS,
	"SNIPPET":       SNIPPET,
	"TITLE":         TITLE,
	"TIMESTAMP":     TIMESTAMP,
	"METADATA":      METADATA,
	"WINDOW":        WINDOW,
	"CONTAINED_BY":  CONTAINED_BY,
	"INTERSECT":     INTERSECT,
	"PROXIMITY":     PROXIMITY,
	"BEFORE":        BEFORE,
	"AFTER":         AFTER,
	"EQUAL":         EQUAL,
	"INNER":         INNER,
	"LEFT":          LEFT,
	"RIGHT":         RIGHT,
}

// LookupIdent reports the keyword Type for an upper-cased identifier,
// or IDENT if it is not reserved.
func LookupIdent(upper string) Type {
	if t, ok := keywords[upper]; ok {
		return t
	}
	return IDENT
}

// Token is one scanned lexical unit.
type Token struct {
	Type    Type
	Literal string
	Offset  int
}

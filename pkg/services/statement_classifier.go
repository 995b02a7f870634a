package services

import (
	"strings"

	"github.com/mekanixms/sqlite-mcp-server/pkg/errors"
)

// StatementType represents the family of a SQL statement.
type StatementType int

const (
	StatementTypeOther   StatementType = iota // Unrecognized or empty
	StatementTypeDQL                          // SELECT, WITH, VALUES
	StatementTypeDML                          // INSERT, UPDATE, DELETE, REPLACE
	StatementTypeDDL                          // CREATE, DROP, ALTER
	StatementTypeTCL                          // BEGIN, COMMIT, ROLLBACK, SAVEPOINT
	StatementTypeUtility                      // PRAGMA, EXPLAIN, VACUUM, ATTACH
)

// String returns the string representation of the statement type.
func (st StatementType) String() string {
	switch st {
	case StatementTypeDQL:
		return "DQL"
	case StatementTypeDML:
		return "DML"
	case StatementTypeDDL:
		return "DDL"
	case StatementTypeTCL:
		return "TCL"
	case StatementTypeUtility:
		return "UTILITY"
	default:
		return "OTHER"
	}
}

// StatementKind decides which execution path a statement may take.
type StatementKind int

const (
	// StatementKindRejected statements are never executed.
	StatementKindRejected StatementKind = iota
	// StatementKindRead statements run on the read-only path.
	StatementKindRead
	// StatementKindWrite statements run on the mutating path.
	StatementKindWrite
)

// String returns the string representation of the statement kind.
func (k StatementKind) String() string {
	switch k {
	case StatementKindRead:
		return "read"
	case StatementKindWrite:
		return "write"
	default:
		return "rejected"
	}
}

// StatementInfo is the result of classifying one statement.
type StatementInfo struct {
	Kind    StatementKind
	Type    StatementType
	Keyword string
	// Multiple is set when text follows a top-level semicolon.
	Multiple bool
}

var keywordTypes = map[string]StatementType{
	"SELECT":    StatementTypeDQL,
	"WITH":      StatementTypeDQL,
	"VALUES":    StatementTypeDQL,
	"INSERT":    StatementTypeDML,
	"UPDATE":    StatementTypeDML,
	"DELETE":    StatementTypeDML,
	"REPLACE":   StatementTypeDML,
	"CREATE":    StatementTypeDDL,
	"DROP":      StatementTypeDDL,
	"ALTER":     StatementTypeDDL,
	"BEGIN":     StatementTypeTCL,
	"COMMIT":    StatementTypeTCL,
	"END":       StatementTypeTCL,
	"ROLLBACK":  StatementTypeTCL,
	"SAVEPOINT": StatementTypeTCL,
	"RELEASE":   StatementTypeTCL,
	"PRAGMA":    StatementTypeUtility,
	"EXPLAIN":   StatementTypeUtility,
	"VACUUM":    StatementTypeUtility,
	"ANALYZE":   StatementTypeUtility,
	"REINDEX":   StatementTypeUtility,
	"ATTACH":    StatementTypeUtility,
	"DETACH":    StatementTypeUtility,
}

// StatementClassifier routes SQL text to the read path, the write path, or
// rejects it. Only SELECT reads; only INSERT, UPDATE and DELETE write.
type StatementClassifier struct{}

// NewStatementClassifier creates a new statement classifier.
func NewStatementClassifier() *StatementClassifier {
	return &StatementClassifier{}
}

// Analyze classifies sql without returning an error.
func (c *StatementClassifier) Analyze(sql string) StatementInfo {
	res := scanStatement(sql)
	info := StatementInfo{
		Keyword:  res.keyword,
		Type:     keywordTypes[res.keyword],
		Multiple: res.trailing,
	}
	if info.Multiple {
		return info
	}
	switch res.keyword {
	case "SELECT":
		info.Kind = StatementKindRead
	case "INSERT", "UPDATE", "DELETE":
		info.Kind = StatementKindWrite
	}
	return info
}

// Classify returns the statement kind, or an UNSUPPORTED_STATEMENT error for
// anything that is neither a single SELECT nor a single INSERT, UPDATE or
// DELETE.
func (c *StatementClassifier) Classify(sql string) (StatementKind, error) {
	info := c.Analyze(sql)
	switch {
	case info.Multiple:
		return StatementKindRejected, errors.ErrUnsupportedStatement.
			WithDetail("reason", "multiple statements are not allowed")
	case info.Keyword == "":
		return StatementKindRejected, errors.ErrUnsupportedStatement.
			WithDetail("reason", "no statement keyword found")
	case info.Kind == StatementKindRejected:
		return StatementKindRejected, errors.ErrUnsupportedStatement.
			WithDetail("keyword", info.Keyword).
			WithDetail("statement_type", info.Type.String())
	}
	return info.Kind, nil
}

// Validate checks that parentheses and quotes are balanced. Quotes inside
// comments are ignored.
func (c *StatementClassifier) Validate(sql string) error {
	res := scanStatement(sql)
	if res.openQuote != 0 {
		return errors.ErrSyntax.WithDetail("reason", "unterminated "+quoteName(res.openQuote))
	}
	if res.unbalancedParens {
		return errors.ErrSyntax.WithDetail("reason", "unbalanced parentheses")
	}
	return nil
}

func quoteName(q byte) string {
	switch q {
	case '\'':
		return "string literal"
	case '[':
		return "bracketed identifier"
	default:
		return "quoted identifier"
	}
}

type scanResult struct {
	keyword          string
	trailing         bool
	unbalancedParens bool
	openQuote        byte
}

// scanStatement walks sql once, skipping string literals, quoted identifiers
// and comments.
func scanStatement(sql string) scanResult {
	var res scanResult

	start := skipTrivia(sql, 0)
	end := start
	for end < len(sql) && isWordChar(sql[end]) {
		end++
	}
	res.keyword = strings.ToUpper(sql[start:end])

	depth := 0
	for i := start; i < len(sql); {
		ch := sql[i]
		switch {
		case isCommentStart(sql, i):
			i = skipComment(sql, i)
			continue
		case ch == '\'' || ch == '"' || ch == '`' || ch == '[':
			closing := ch
			if ch == '[' {
				closing = ']'
			}
			n := strings.IndexByte(sql[i+1:], closing)
			if n < 0 {
				res.openQuote = ch
				return res
			}
			// A doubled quote inside a literal reopens immediately, which
			// this loop handles as a new literal.
			i += n + 2
			continue
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth < 0 {
				res.unbalancedParens = true
			}
		case ch == ';':
			if skipTrivia(sql, i+1) < len(sql) {
				res.trailing = true
			}
		}
		i++
	}
	if depth != 0 {
		res.unbalancedParens = true
	}
	return res
}

// skipTrivia returns the index of the first byte at or after i that is not
// whitespace or part of a comment.
func skipTrivia(sql string, i int) int {
	for i < len(sql) {
		switch {
		case sql[i] == ' ', sql[i] == '\t', sql[i] == '\n', sql[i] == '\r', sql[i] == '\f', sql[i] == '\v':
			i++
		case isCommentStart(sql, i):
			i = skipComment(sql, i)
		default:
			return i
		}
	}
	return i
}

func isCommentStart(sql string, i int) bool {
	if i+1 >= len(sql) {
		return false
	}
	return (sql[i] == '-' && sql[i+1] == '-') || (sql[i] == '/' && sql[i+1] == '*')
}

// skipComment returns the index just past the comment starting at i. An
// unterminated block comment runs to the end of the text.
func skipComment(sql string, i int) int {
	if sql[i] == '-' {
		n := strings.IndexByte(sql[i:], '\n')
		if n < 0 {
			return len(sql)
		}
		return i + n + 1
	}
	n := strings.Index(sql[i+2:], "*/")
	if n < 0 {
		return len(sql)
	}
	return i + 2 + n + 2
}

func isWordChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

package testdb

import "strings"

// isTransactionControl reports whether any statement in sql would end the
// outer transaction. Comments are ignored and semicolons inside quoted
// strings, quoted identifiers and dollar-quoted bodies do not split
// statements.
func isTransactionControl(sql string) bool {
	for _, stmt := range splitStatements(sql) {
		if endsTransaction(strings.Fields(strings.ToUpper(stmt))) {
			return true
		}
	}
	return false
}

func endsTransaction(words []string) bool {
	if len(words) == 0 {
		return false
	}

	switch words[0] {
	case "COMMIT", "END", "ABORT":
		// COMMIT PREPARED acts on another transaction
		return len(words) < 2 || words[1] != "PREPARED"
	case "ROLLBACK":
		rest := words[1:]
		if len(rest) > 0 && (rest[0] == "WORK" || rest[0] == "TRANSACTION") {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return true
		}
		// ROLLBACK TO [SAVEPOINT] name stays inside the transaction
		return rest[0] != "TO" && rest[0] != "PREPARED"
	case "PREPARE":
		return len(words) > 1 && words[1] == "TRANSACTION"
	}
	return false
}

// splitStatements splits sql on top-level semicolons and drops comments.
func splitStatements(sql string) []string {
	var (
		stmts []string
		cur   strings.Builder
	)

	for i := 0; i < len(sql); {
		switch c := sql[i]; {
		case strings.HasPrefix(sql[i:], "--"):
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			cur.WriteByte(' ')
		case strings.HasPrefix(sql[i:], "/*"):
			i = skipBlockComment(sql, i)
			cur.WriteByte(' ')
		case c == '\'' || c == '"':
			backslash := c == '\'' && i > 0 && (sql[i-1] == 'E' || sql[i-1] == 'e')
			end := closingQuote(sql, i+1, c, backslash)
			cur.WriteString(sql[i:end])
			i = end
		case c == '$':
			tag, ok := dollarTag(sql[i:])
			if !ok {
				cur.WriteByte(c)
				i++
				continue
			}
			end := len(sql)
			if n := strings.Index(sql[i+len(tag):], tag); n >= 0 {
				end = i + len(tag) + n + len(tag)
			}
			cur.WriteString(sql[i:end])
			i = end
		case c == ';':
			stmts = append(stmts, cur.String())
			cur.Reset()
			i++
		default:
			cur.WriteByte(c)
			i++
		}
	}
	return append(stmts, cur.String())
}

// skipBlockComment returns the index just past the comment opening at start.
// PostgreSQL block comments nest.
func skipBlockComment(sql string, start int) int {
	depth := 0
	i := start
	for i < len(sql) {
		switch {
		case strings.HasPrefix(sql[i:], "/*"):
			depth++
			i += 2
		case strings.HasPrefix(sql[i:], "*/"):
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return i
}

// closingQuote returns the index just past the quote that closes a literal
// whose body starts at start. A doubled quote is an escaped quote.
func closingQuote(sql string, start int, quote byte, backslash bool) int {
	for i := start; i < len(sql); i++ {
		switch {
		case backslash && sql[i] == '\\':
			i++
		case sql[i] == quote:
			if i+1 < len(sql) && sql[i+1] == quote {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(sql)
}

// dollarTag returns the $tag$ opening a dollar-quoted string at the start of
// s. Positional parameters such as $1 are not tags.
func dollarTag(s string) (string, bool) {
	i := 1
	for i < len(s) {
		c := s[i]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && i > 1) {
			break
		}
		i++
	}
	if i < len(s) && s[i] == '$' {
		return s[:i+1], true
	}
	return "", false
}

package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds an ILIKE pattern matching term as a literal substring.
// Use it with `ILIKE ? ESCAPE '\'`.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

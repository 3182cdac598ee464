package db

import "strings"

// qualify prefixes every column with alias.
func qualify(alias string, columns ...string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes the LIKE wildcards in s so that it matches literally under
// ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

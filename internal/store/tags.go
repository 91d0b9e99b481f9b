package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"
)

// validTagChar returns true if the character is allowed in a tag.
// Allowed: lowercase letters (any script), digits, hyphens, underscores.
func validTagChar(r rune) bool {
	return (unicode.IsLetter(r) && !unicode.IsUpper(r)) || unicode.IsDigit(r) || r == '-' || r == '_'
}

// NormalizeTag lowercases a tag and collapses separators to single hyphens.
// Invalid chars are dropped. Returns empty string if nothing is left.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}

	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(tag) {
		if validTagChar(r) {
			b.WriteRune(r)
			prevHyphen = (r == '-')
		} else if r == ' ' || r == '.' || r == '/' {
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-_")
}

// normalizeTags returns the distinct non-empty normalized tags, sorted.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// tagTable names the join table and owner column for a tagged entity.
type tagTable struct {
	table  string
	column string
}

var (
	itemTags     = tagTable{"item_tags", "item_id"}
	documentTags = tagTable{"document_tags", "document_id"}
)

func (tt tagTable) replace(ctx context.Context, tx *sqlx.Tx, ownerID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", tt.table, tt.column), ownerID); err != nil {
		return fmt.Errorf("clear %s: %w", tt.table, err)
	}
	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (%s, tag) VALUES (?, ?)", tt.table, tt.column),
			ownerID, tag,
		); err != nil {
			return fmt.Errorf("insert %s: %w", tt.table, err)
		}
	}
	return nil
}

// load returns tags grouped by owner. An empty ownerID loads every owner.
func (tt tagTable) load(ctx context.Context, db sqlx.QueryerContext, ownerID string) (map[string][]string, error) {
	var rows []struct {
		Owner string `db:"owner"`
		Tag   string `db:"tag"`
	}
	query := fmt.Sprintf("SELECT %s AS owner, tag FROM %s", tt.column, tt.table)
	args := []any{}
	if ownerID != "" {
		query += fmt.Sprintf(" WHERE %s = ?", tt.column)
		args = append(args, ownerID)
	}
	query += " ORDER BY tag"
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load %s: %w", tt.table, err)
	}
	out := make(map[string][]string)
	for _, r := range rows {
		out[r.Owner] = append(out[r.Owner], r.Tag)
	}
	return out, nil
}

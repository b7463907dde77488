package postgres

import (
	"fmt"
	"strings"

	"digiarchive/internal/search"
)

// compilePredicate walks the backend-agnostic predicate and emits a WHERE
// clause over `documents d LEFT JOIN folders f ON f.id = d.folder_id`,
// together with its ordered arguments. The index backend compiles the same
// predicate independently; both must keep matching semantics aligned with
// search.Tokenize and search.Score.
func compilePredicate(p search.Predicate) (string, []any) {
	var clauses []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, c := range p.Conds {
		switch c := c.(type) {
		case search.TextCond:
			for _, tok := range c.Tokens {
				like := "%" + tok + "%"
				ph := arg(like)
				clauses = append(clauses, fmt.Sprintf(`(d.title ILIKE %[1]s
					OR d.reference_number ILIKE %[1]s
					OR d.description ILIKE %[1]s
					OR COALESCE(d.content_text, '') ILIKE %[1]s
					OR COALESCE(f.name, '') ILIKE %[1]s
					OR EXISTS (
						SELECT 1 FROM document_tags dt
						JOIN tags t ON t.id = dt.tag_id
						WHERE dt.document_id = d.id AND t.name ILIKE %[1]s
					))`, ph))
			}
		case search.DepartmentCond:
			clauses = append(clauses, fmt.Sprintf("d.department_id = %s", arg(c.ID)))
		case search.FolderCond:
			clauses = append(clauses, fmt.Sprintf("d.folder_id = %s", arg(c.ID)))
		case search.TagCond:
			phs := make([]string, len(c.IDs))
			for i, id := range c.IDs {
				phs[i] = arg(id)
			}
			clauses = append(clauses, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM document_tags dt WHERE dt.document_id = d.id AND dt.tag_id IN (%s))",
				strings.Join(phs, ", ")))
		case search.TypeCond:
			clauses = append(clauses, fmt.Sprintf("d.document_type = %s", arg(string(c.Type))))
		case search.DateCond:
			if c.From != nil {
				clauses = append(clauses, fmt.Sprintf("d.doc_date >= %s", arg(*c.From)))
			}
			if c.To != nil {
				clauses = append(clauses, fmt.Sprintf("d.doc_date <= %s", arg(*c.To)))
			}
		case search.OCRCond:
			clauses = append(clauses, fmt.Sprintf("d.is_ocr_processed = %s", arg(c.Processed)))
		case search.UploaderCond:
			clauses = append(clauses, fmt.Sprintf("d.uploaded_by = %s", arg(c.ID)))
		}
	}

	if len(clauses) == 0 {
		return "TRUE", args
	}
	return strings.Join(clauses, " AND "), args
}

// compileSort emits the ORDER BY expression for a sort. NULLS LAST is forced
// for the date key in both directions so the relational ordering matches the
// index backend, which always sorts missing dates last.
func compileSort(s search.Sort) string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	switch s.Key {
	case search.SortDate:
		return fmt.Sprintf("d.doc_date %s NULLS LAST, d.id DESC", dir)
	case search.SortTitle:
		// COLLATE "C" pins the comparison to byte order so the relational
		// ordering matches the index backend, which sorts lowercased titles
		// bytewise.
		return fmt.Sprintf(`LOWER(d.title) COLLATE "C" %s, d.id DESC`, dir)
	default:
		return fmt.Sprintf("d.created_at %s, d.id DESC", dir)
	}
}

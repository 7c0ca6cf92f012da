// internal/core/entity_link.go
package core

import (
	"fmt"
	"strings"
)

const (
	entityLinkPrefix    = "<#E"
	entityLinkSuffix    = ">"
	entityLinkSeparator = "::"
	tableEntity         = "table"
	columnsField        = "columns"
)

// EntityLink references a table, or a single column of a table, in the catalog.
type EntityLink struct {
	TableFQN string
	Column   string // empty for table-level links
}

// NewTableLink builds a table-level link.
func NewTableLink(tableFQN string) EntityLink {
	return EntityLink{TableFQN: tableFQN}
}

// NewColumnLink builds a column-level link for column of tableFQN.
func NewColumnLink(tableFQN, column string) EntityLink {
	return EntityLink{TableFQN: tableFQN, Column: column}
}

// IsColumn reports whether the link is column-level.
func (l EntityLink) IsColumn() bool {
	return l.Column != ""
}

// Target is the fully-qualified name the link points at: "T" or "T.C".
func (l EntityLink) Target() string {
	if l.IsColumn() {
		return l.TableFQN + "." + l.Column
	}
	return l.TableFQN
}

// String renders the link in the catalog's wire form,
// e.g. <#E::table::svc.db.schema.orders::columns::id>.
func (l EntityLink) String() string {
	parts := []string{entityLinkPrefix, tableEntity, l.TableFQN}
	if l.IsColumn() {
		parts = append(parts, columnsField, l.Column)
	}
	return strings.Join(parts, entityLinkSeparator) + entityLinkSuffix
}

// ParseEntityLink is the inverse of EntityLink.String.
func ParseEntityLink(raw string) (EntityLink, error) {
	if !strings.HasPrefix(raw, entityLinkPrefix+entityLinkSeparator) || !strings.HasSuffix(raw, entityLinkSuffix) {
		return EntityLink{}, fmt.Errorf("%w: malformed entity link '%s'", ErrBadRequest, raw)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(raw, entityLinkPrefix+entityLinkSeparator), entityLinkSuffix)
	parts := strings.Split(body, entityLinkSeparator)

	switch {
	case len(parts) == 2 && parts[0] == tableEntity && parts[1] != "":
		return NewTableLink(parts[1]), nil
	case len(parts) == 4 && parts[0] == tableEntity && parts[1] != "" && parts[2] == columnsField && parts[3] != "":
		return NewColumnLink(parts[1], parts[3]), nil
	}
	return EntityLink{}, fmt.Errorf("%w: unsupported entity link '%s'", ErrBadRequest, raw)
}

package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Default display values used when an identity field is absent.
const (
	DefaultName  = "Unknown"
	DefaultField = "N/A"
)

// Identity holds optional display metadata for a node. The zero value
// means "no identity on file".
type Identity struct {
	Name  string
	Job   string
	Email string
	Phone string
}

// IsZero reports whether no identity data is present.
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// WithDefaults fills absent fields with the display defaults.
func (i Identity) WithDefaults() Identity {
	if i.Name == "" {
		i.Name = DefaultName
	}
	if i.Job == "" {
		i.Job = DefaultField
	}
	if i.Email == "" {
		i.Email = DefaultField
	}
	if i.Phone == "" {
		i.Phone = DefaultField
	}
	return i
}

// Directory maps node ids to display identities.
type Directory map[string]Identity

// Lookup returns the identity for id and whether one is on file.
func (d Directory) Lookup(id string) (Identity, bool) {
	if d == nil {
		return Identity{}, false
	}
	ident, ok := d[id]
	return ident, ok
}

// ReadDirectory parses an identity CSV with the header
// id,name,job,email,phone. Rows with an empty id are rejected; extra
// columns are ignored.
func ReadDirectory(r io.Reader) (Directory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Directory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	idCol, ok := col["id"]
	if !ok {
		return nil, fmt.Errorf("%w: missing id column", ErrMalformedIdentity)
	}

	pick := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	dir := make(Directory)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read identity row: %w", err)
		}
		if idCol >= len(row) || strings.TrimSpace(row[idCol]) == "" {
			return nil, fmt.Errorf("%w: empty id", ErrMalformedIdentity)
		}
		dir[strings.TrimSpace(row[idCol])] = Identity{
			Name:  pick(row, "name"),
			Job:   pick(row, "job"),
			Email: pick(row, "email"),
			Phone: pick(row, "phone"),
		}
	}
	return dir, nil
}

// Package schema maps bank export headers onto canonical field roles.
package schema

import "strings"

// Role is a canonical column role.
type Role string

const (
	RoleDate        Role = "date"
	RoleAmount      Role = "amount"
	RoleDescription Role = "description"
	RoleBalance     Role = "balance"
)

// Roles lists every role in binding order.
var Roles = []Role{RoleDate, RoleAmount, RoleDescription, RoleBalance}

// RequiredRoles must all be bound before rows can be ingested.
var RequiredRoles = []Role{RoleDate, RoleAmount, RoleDescription}

// Table maps each role to its recognized header spellings.
// Matching is exact, so callers list every casing they expect.
type Table map[Role][]string

// DefaultTable returns the built-in header spellings (Polish, English, German).
func DefaultTable() Table {
	return Table{
		RoleDate: {
			"data", "Data", "DATA",
			"date", "Date", "DATE",
			"Data operacji", "Data transakcji", "Data księgowania", "Data waluty",
			"Posting Date", "Transaction Date",
			"Datum", "Buchungstag",
		},
		RoleAmount: {
			"kwota", "Kwota", "KWOTA",
			"amount", "Amount", "AMOUNT",
			"Kwota operacji", "Kwota transakcji",
			"Betrag",
		},
		RoleDescription: {
			"opis", "Opis", "OPIS",
			"description", "Description", "DESCRIPTION",
			"Opis operacji", "Tytuł", "tytuł", "Tytul",
			"Details", "Beschreibung", "Verwendungszweck",
		},
		RoleBalance: {
			"saldo", "Saldo", "SALDO",
			"balance", "Balance", "BALANCE",
			"Saldo po operacji", "Saldo po transakcji",
			"Kontostand",
		},
	}
}

// Extend returns a copy of t with extra spellings appended per role.
func (t Table) Extend(extra map[Role][]string) Table {
	out := make(Table, len(t))
	for role, names := range t {
		out[role] = append([]string(nil), names...)
	}
	for role, names := range extra {
		out[role] = append(out[role], names...)
	}
	return out
}

// Mapping is the result of header detection.
type Mapping struct {
	Columns map[Role]string // role -> header as it appears in the file
	Matched []string        // headers bound to some role, in input order
}

// Has reports whether role is bound.
func (m Mapping) Has(role Role) bool {
	_, ok := m.Columns[role]
	return ok
}

// Missing returns the required roles that are not bound.
func (m Mapping) Missing() []Role {
	var missing []Role
	for _, r := range RequiredRoles {
		if !m.Has(r) {
			missing = append(missing, r)
		}
	}
	return missing
}

// Detect binds headers to roles. The first header matching a role wins,
// and a header binds to at most one role.
func Detect(headers []string, table Table) Mapping {
	lookup := make([]map[string]bool, len(Roles))
	for i, role := range Roles {
		set := make(map[string]bool, len(table[role]))
		for _, name := range table[role] {
			set[name] = true
		}
		lookup[i] = set
	}

	m := Mapping{Columns: make(map[Role]string)}
	for _, raw := range headers {
		h := strings.TrimSpace(raw)
		for i, role := range Roles {
			if m.Has(role) || !lookup[i][h] {
				continue
			}
			m.Columns[role] = h
			m.Matched = append(m.Matched, h)
			break
		}
	}
	return m
}

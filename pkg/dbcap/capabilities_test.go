package dbcap

import "testing"

func TestParseID(t *testing.T) {
	tests := []struct {
		key    string
		wantID ID
		wantOK bool
	}{
		{"mssql", SQLServer, true},
		{"SQLServer", SQLServer, true},
		{"System.Data.SqlClient", SQLServer, true},
		{"Microsoft.Data.SqlClient", SQLServer, true},
		{"mysql", MySQL, true},
		{"MariaDB", MySQL, true},
		{"MySqlConnector", MySQL, true},
		{"postgres", PostgreSQL, true},
		{"PostgreSQL", PostgreSQL, true},
		{"Npgsql", PostgreSQL, true},
		{"sqlite", SQLite, true},
		{"SQLite3", SQLite, true},
		{"oracle", "", false},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			id, ok := ParseID(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("ParseID(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("ParseID(%q) = %q, want %q", tt.key, id, tt.wantID)
			}
		})
	}
}

func TestAllCoversEveryID(t *testing.T) {
	for _, id := range IDs() {
		c, ok := Get(id)
		if !ok {
			t.Fatalf("no capability entry for %s", id)
		}
		if c.ID != id {
			t.Errorf("capability for %s carries ID %s", id, c.ID)
		}
		if c.Name == "" {
			t.Errorf("capability for %s has no name", id)
		}
	}
}

func TestMustGetPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown dialect")
		}
	}()
	MustGet(ID("db2"))
}

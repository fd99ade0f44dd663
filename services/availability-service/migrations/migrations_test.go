package migrations

import (
	"strings"
	"testing"
)

func TestAll_ContainsEngineTables(t *testing.T) {
	ms, err := All()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(ms) == 0 {
		t.Fatalf("expected at least one migration")
	}
	var all strings.Builder
	for _, m := range ms {
		all.WriteString(m.SQL)
	}
	for _, table := range []string{"doctors", "schedule_templates", "openings", "unavailability", "bookings", "outbox_events", "inbox_events"} {
		if !strings.Contains(all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("missing table %s", table)
		}
	}
}

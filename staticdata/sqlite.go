package staticdata

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lixenwraith/transit/path"
	"github.com/lixenwraith/transit/transport"
	"github.com/lixenwraith/transit/vmath"
)

// SQLite loads transport templates and path nodes from a sqlite database
//
// Schema:
//
//	CREATE TABLE transport_templates (
//	    entry          INTEGER PRIMARY KEY,
//	    name           TEXT NOT NULL,
//	    display_id     INTEGER NOT NULL DEFAULT 0,
//	    size           REAL NOT NULL DEFAULT 1.0,
//	    speed          REAL NOT NULL DEFAULT 0,
//	    path_id        INTEGER NOT NULL,
//	    loop_route     INTEGER NOT NULL DEFAULT 0,
//	    instance_bound INTEGER NOT NULL DEFAULT 0,
//	    legacy_timing  INTEGER NOT NULL DEFAULT 0
//	);
//	CREATE TABLE path_nodes (
//	    path_id           INTEGER NOT NULL,
//	    idx               INTEGER NOT NULL,
//	    x                 REAL NOT NULL,
//	    y                 REAL NOT NULL,
//	    z                 REAL NOT NULL,
//	    partition_id      INTEGER NOT NULL,
//	    delay_ms          INTEGER NOT NULL DEFAULT 0,
//	    arrival_trigger   INTEGER NOT NULL DEFAULT 0,
//	    departure_trigger INTEGER NOT NULL DEFAULT 0,
//	    teleport          INTEGER NOT NULL DEFAULT 0,
//	    PRIMARY KEY (path_id, idx)
//	);
type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) a sqlite database at dsn and ensures the schema
func Open(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dsn, err)
	}
	s := &SQLite{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS transport_templates (
    entry          INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    display_id     INTEGER NOT NULL DEFAULT 0,
    size           REAL NOT NULL DEFAULT 1.0,
    speed          REAL NOT NULL DEFAULT 0,
    path_id        INTEGER NOT NULL,
    loop_route     INTEGER NOT NULL DEFAULT 0,
    instance_bound INTEGER NOT NULL DEFAULT 0,
    legacy_timing  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS path_nodes (
    path_id           INTEGER NOT NULL,
    idx               INTEGER NOT NULL,
    x                 REAL NOT NULL,
    y                 REAL NOT NULL,
    z                 REAL NOT NULL,
    partition_id      INTEGER NOT NULL,
    delay_ms          INTEGER NOT NULL DEFAULT 0,
    arrival_trigger   INTEGER NOT NULL DEFAULT 0,
    departure_trigger INTEGER NOT NULL DEFAULT 0,
    teleport          INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (path_id, idx)
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

func (s *SQLite) Templates() ([]transport.Template, error) {
	rows, err := s.db.Query(`SELECT entry, name, display_id, size, speed, path_id, loop_route, instance_bound, legacy_timing
		FROM transport_templates ORDER BY entry`)
	if err != nil {
		return nil, fmt.Errorf("querying transport templates: %w", err)
	}
	defer rows.Close()

	var out []transport.Template
	for rows.Next() {
		var t transport.Template
		var loop, bound, legacy int
		if err := rows.Scan(&t.Entry, &t.Name, &t.DisplayID, &t.Size, &t.Speed,
			&t.PathID, &loop, &bound, &legacy); err != nil {
			return nil, fmt.Errorf("scanning transport template: %w", err)
		}
		t.Loop = loop != 0
		t.InstanceBound = bound != 0
		t.LegacyTiming = legacy != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLite) PathNodesFor(pathID uint32) ([]path.Node, error) {
	rows, err := s.db.Query(`SELECT x, y, z, partition_id, delay_ms, arrival_trigger, departure_trigger, teleport
		FROM path_nodes WHERE path_id = ? ORDER BY idx`, pathID)
	if err != nil {
		return nil, fmt.Errorf("querying path %d: %w", pathID, err)
	}
	defer rows.Close()

	var out []path.Node
	for rows.Next() {
		var n path.Node
		var pos vmath.Vec3
		var delayMS int64
		var teleport int
		if err := rows.Scan(&pos.X, &pos.Y, &pos.Z, &n.Partition, &delayMS,
			&n.ArrivalTrigger, &n.DepartureTrigger, &teleport); err != nil {
			return nil, fmt.Errorf("scanning path %d node: %w", pathID, err)
		}
		n.Pos = pos
		n.Delay = time.Duration(delayMS) * time.Millisecond
		n.Teleport = teleport != 0
		out = append(out, n)
	}
	return out, rows.Err()
}

// CheckIntegrity reports templates referencing missing or empty paths
// Load still proceeds; the path builder rejects the broken definitions
func (s *SQLite) CheckIntegrity() ([]string, error) {
	rows, err := s.db.Query(`SELECT t.entry, t.name, t.path_id
		FROM transport_templates t
		LEFT JOIN path_nodes n ON n.path_id = t.path_id
		GROUP BY t.entry HAVING COUNT(n.path_id) < 2`)
	if err != nil {
		return nil, fmt.Errorf("integrity query: %w", err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var entry, pathID uint32
		var name string
		if err := rows.Scan(&entry, &name, &pathID); err != nil {
			return nil, fmt.Errorf("scanning integrity row: %w", err)
		}
		problems = append(problems,
			fmt.Sprintf("transport %d (%s): path %d missing or shorter than 2 nodes", entry, name, pathID))
	}
	return problems, rows.Err()
}

// Seed inserts a template and its path nodes in one transaction
// Used by demo setup and tests
func (s *SQLite) Seed(t transport.Template, nodes []path.Node) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO transport_templates
		(entry, name, display_id, size, speed, path_id, loop_route, instance_bound, legacy_timing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Entry, t.Name, t.DisplayID, t.Size, t.Speed, t.PathID,
		boolInt(t.Loop), boolInt(t.InstanceBound), boolInt(t.LegacyTiming)); err != nil {
		return fmt.Errorf("seed template %d: %w", t.Entry, err)
	}

	if _, err := tx.Exec(`DELETE FROM path_nodes WHERE path_id = ?`, t.PathID); err != nil {
		return fmt.Errorf("seed path %d: %w", t.PathID, err)
	}
	for i, n := range nodes {
		if _, err := tx.Exec(`INSERT INTO path_nodes
			(path_id, idx, x, y, z, partition_id, delay_ms, arrival_trigger, departure_trigger, teleport)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.PathID, i, n.Pos.X, n.Pos.Y, n.Pos.Z, n.Partition,
			n.Delay.Milliseconds(), n.ArrivalTrigger, n.DepartureTrigger, boolInt(n.Teleport)); err != nil {
			return fmt.Errorf("seed path %d node %d: %w", t.PathID, i, err)
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

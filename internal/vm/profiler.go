package vm

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type lineKey struct {
	file string
	line int
}

// Profiler observes instruction dispatch and aggregates counts per
// opcode and per source line. Attach it with WithProfiler.
type Profiler struct {
	RunID   string
	Started time.Time

	opCounts   map[Opcode]int64
	lineCounts map[lineKey]int64
	total      int64
}

func NewProfiler() *Profiler {
	return &Profiler{
		RunID:      uuid.NewString(),
		Started:    time.Now(),
		opCounts:   make(map[Opcode]int64),
		lineCounts: make(map[lineKey]int64),
	}
}

func (p *Profiler) record(chunk *Chunk, offset int, op Opcode) {
	p.opCounts[op]++
	p.lineCounts[lineKey{file: chunk.File, line: chunk.Lines[offset]}]++
	p.total++
}

// Total returns the number of instructions executed.
func (p *Profiler) Total() int64 { return p.total }

// Summary renders the opcode counts, busiest first.
func (p *Profiler) Summary() string {
	type entry struct {
		op    Opcode
		count int64
	}
	entries := make([]entry, 0, len(p.opCounts))
	for op, n := range p.opCounts {
		entries = append(entries, entry{op: op, count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].op < entries[j].op
	})

	out := fmt.Sprintf("run %s: %d instructions\n", p.RunID, p.total)
	for _, e := range entries {
		out += fmt.Sprintf("%-16s %d\n", OpcodeNames[e.op], e.count)
	}
	return out
}

// Export writes the profile to a SQLite database so repeated runs can
// be compared with plain SQL.
func (p *Profiler) Export(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open profile db: %w", err)
	}
	defer db.Close()

	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	instructions INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS opcode_counts (
	run_id TEXT NOT NULL REFERENCES runs(id),
	opcode TEXT NOT NULL,
	count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS line_counts (
	run_id TEXT NOT NULL REFERENCES runs(id),
	file TEXT NOT NULL,
	line INTEGER NOT NULL,
	count INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create profile schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, started_at, instructions) VALUES (?, ?, ?)`,
		p.RunID, p.Started.UTC().Format(time.RFC3339Nano), p.total,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for op, n := range p.opCounts {
		if _, err := tx.Exec(
			`INSERT INTO opcode_counts (run_id, opcode, count) VALUES (?, ?, ?)`,
			p.RunID, OpcodeNames[op], n,
		); err != nil {
			return fmt.Errorf("insert opcode count: %w", err)
		}
	}
	for key, n := range p.lineCounts {
		if _, err := tx.Exec(
			`INSERT INTO line_counts (run_id, file, line, count) VALUES (?, ?, ?, ?)`,
			p.RunID, key.file, key.line, n,
		); err != nil {
			return fmt.Errorf("insert line count: %w", err)
		}
	}
	return tx.Commit()
}

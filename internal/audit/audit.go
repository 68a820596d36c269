// Package audit records an append-only trail of every attempted load
// in a SQLite database at base_dir/audit.db. Writes are synchronous
// and best-effort: a failure to record an entry never aborts a load.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mijuny/pacs-agent/internal/verify"
)

// Log is a handle on the audit database for one base directory.
type Log struct {
	db *sql.DB
}

// Row is one persisted audit entry.
type Row struct {
	ID          int64
	Timestamp   string
	Operator    string
	Project     string
	Accession   string
	CaseID      string
	Status      string
	Modality    string
	ImageCount  int
	SeriesCount int
	DurationS   float64
	Error       string
}

const schema = `
CREATE TABLE IF NOT EXISTS audit (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	operator TEXT NOT NULL,
	project TEXT NOT NULL,
	accession TEXT NOT NULL,
	case_id TEXT,
	status TEXT NOT NULL,
	modality TEXT,
	image_count INTEGER,
	series_count INTEGER,
	duration_s REAL,
	error TEXT
);
`

// Open creates (if needed) and opens base_dir/audit.db, bootstrapping
// its schema.
func Open(baseDir string) (*Log, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	dbPath := filepath.Join(baseDir, "audit.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize audit schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// Append inserts one row per result, all stamped with the same
// timestamp and the current OS user as operator.
func (l *Log) Append(project string, results []verify.LoadResult) error {
	operator := currentUser()
	timestamp := time.Now().UTC().Format(time.RFC3339)

	for _, r := range results {
		_, err := l.db.Exec(
			`INSERT INTO audit
				(timestamp, operator, project, accession, case_id, status,
				 modality, image_count, series_count, duration_s, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			timestamp, operator, project, r.Accession,
			nullableString(r.CaseID), r.Status, nullableString(r.Modality),
			r.ImageCount, r.SeriesCount, r.DurationS, nullableString(r.Error),
		)
		if err != nil {
			return fmt.Errorf("append audit row: %w", err)
		}
	}
	return nil
}

// Query returns up to last rows, most recent first in storage but
// reversed to ascending chronological order before return, optionally
// filtered to a single project.
func (l *Log) Query(project string, last int) ([]Row, error) {
	var rows *sql.Rows
	var err error
	if project != "" {
		rows, err = l.db.Query(
			`SELECT id, timestamp, operator, project, accession, case_id, status,
			        modality, image_count, series_count, duration_s, error
			 FROM audit WHERE project = ? ORDER BY id DESC LIMIT ?`,
			project, last,
		)
	} else {
		rows, err = l.db.Query(
			`SELECT id, timestamp, operator, project, accession, case_id, status,
			        modality, image_count, series_count, duration_s, error
			 FROM audit ORDER BY id DESC LIMIT ?`,
			last,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var caseID, modality, errStr sql.NullString
		var durationS sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Operator, &r.Project, &r.Accession,
			&caseID, &r.Status, &modality, &r.ImageCount, &r.SeriesCount, &durationS, &errStr); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		r.CaseID = caseID.String
		r.Modality = modality.String
		r.Error = errStr.String
		r.DurationS = durationS.Float64
		out = append(out, r)
	}

	// rows arrive id DESC; reverse to ascending chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func currentUser() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}

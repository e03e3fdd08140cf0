package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/arbor/checks"
	"github.com/banshee-data/arbor/internal/monitoring"
	"github.com/banshee-data/arbor/internal/timeutil"
	"github.com/banshee-data/arbor/internal/version"
	"github.com/banshee-data/arbor/morph"
	"github.com/banshee-data/arbor/sholl"
)

// ErrNotFound is returned when a run or profile does not exist.
var ErrNotFound = errors.New("not found")

// Store reads and writes analysis results.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens or creates the database at path and migrates it to the
// latest schema.
func Open(path string) (*Store, error) {
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for run timestamps and busy retries.
func (s *Store) SetClock(c timeutil.Clock) {
	if c == nil {
		c = timeutil.RealClock{}
	}
	s.clock = c
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Run is one analysis pass over a population.
type Run struct {
	RunID       string          `json:"run_id"`
	Label       string          `json:"label"`
	Population  []string        `json:"population"` // morphology names
	ParamsJSON  json.RawMessage `json:"params_json,omitempty"`
	ToolVersion string          `json:"tool_version"`
	CreatedAt   int64           `json:"created_at"` // unix nanos
}

// NewRun returns a run for pop with a fresh id, stamped with the running
// build's version. CreatedAt is filled in by CreateRun.
func NewRun(label string, pop morph.Population, params any) (*Run, error) {
	run := &Run{
		RunID:       uuid.New().String(),
		Label:       label,
		Population:  pop.Names(),
		ToolVersion: version.Version,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal run params: %w", err)
		}
		run.ParamsJSON = raw
	}
	return run, nil
}

// CreateRun persists run. An empty RunID is replaced by a UUID.
func (s *Store) CreateRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}
	pop, err := json.Marshal(run.Population)
	if err != nil {
		return fmt.Errorf("marshal population: %w", err)
	}
	var params interface{}
	if len(run.ParamsJSON) > 0 {
		params = string(run.ParamsJSON)
	}
	err = retryOnBusy(s.clock, func() error {
		_, err := s.db.Exec(`
			INSERT INTO analysis_runs (run_id, label, population, params_json, tool_version, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Label, string(pop), params, run.ToolVersion, run.CreatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	monitoring.Logf("store: created run %s (%s, %d morphologies)", run.RunID, run.Label, len(run.Population))
	return nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, label, population, params_json, tool_version, created_at
		FROM analysis_runs
		WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, err
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, label, population, params_json, tool_version, created_at
		FROM analysis_runs
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and everything stored under it.
func (s *Store) DeleteRun(runID string) error {
	return retryOnBusy(s.clock, func() error {
		res, err := s.db.Exec(`DELETE FROM analysis_runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var pop string
	var params sql.NullString
	if err := row.Scan(&run.RunID, &run.Label, &pop, &params, &run.ToolVersion, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(pop), &run.Population); err != nil {
		return nil, fmt.Errorf("decode population of run %s: %w", run.RunID, err)
	}
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	return &run, nil
}

// SaveProfile stores a Sholl profile for runID under the neurite filter
// label, replacing any previous profile with the same label.
func (s *Store) SaveProfile(runID, neurites string, p sholl.Profile) error {
	if len(p.Radii) != len(p.Counts) {
		return fmt.Errorf("profile has %d radii but %d counts", len(p.Radii), len(p.Counts))
	}
	return retryOnBusy(s.clock, func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM sholl_profiles WHERE run_id = ? AND neurite_filter = ?`, runID, neurites); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO sholl_profiles (run_id, neurite_filter, bin_index, radius, crossings)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := range p.Radii {
			if _, err := stmt.Exec(runID, neurites, i, p.Radii[i], p.Counts[i]); err != nil {
				return fmt.Errorf("insert bin %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

// LoadProfile returns the profile stored for runID and neurites.
func (s *Store) LoadProfile(runID, neurites string) (sholl.Profile, error) {
	rows, err := s.db.Query(`
		SELECT radius, crossings
		FROM sholl_profiles
		WHERE run_id = ? AND neurite_filter = ?
		ORDER BY bin_index`, runID, neurites)
	if err != nil {
		return sholl.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	defer rows.Close()

	p := sholl.Profile{Radii: []float64{}, Counts: []int{}}
	for rows.Next() {
		var r float64
		var c int
		if err := rows.Scan(&r, &c); err != nil {
			return sholl.Profile{}, err
		}
		p.Radii = append(p.Radii, r)
		p.Counts = append(p.Counts, c)
	}
	if err := rows.Err(); err != nil {
		return sholl.Profile{}, err
	}
	if p.Len() == 0 {
		if _, err := s.GetRun(runID); err != nil {
			return sholl.Profile{}, err
		}
	}
	return p, nil
}

// offenderJSON is the stored form of checks.Offender. Points are
// [x, y, z, r] quadruples.
type offenderJSON struct {
	SectionID int          `json:"section_id"`
	Points    [][4]float64 `json:"points,omitempty"`
}

func encodeOffenders(offenders []checks.Offender) (string, error) {
	out := make([]offenderJSON, len(offenders))
	for i, o := range offenders {
		out[i].SectionID = o.SectionID
		for _, p := range o.Points {
			out[i].Points = append(out[i].Points, [4]float64{p.X, p.Y, p.Z, p.R})
		}
	}
	raw, err := json.Marshal(out)
	return string(raw), err
}

func decodeOffenders(raw string) ([]checks.Offender, error) {
	var in []offenderJSON
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]checks.Offender, len(in))
	for i, o := range in {
		out[i].SectionID = o.SectionID
		for _, q := range o.Points {
			out[i].Points = append(out[i].Points, morph.Point{X: q[0], Y: q[1], Z: q[2], R: q[3]})
		}
	}
	return out, nil
}

// SaveReport stores every result of rep under runID for the population
// member at index member, replacing anything stored for that member before.
// Members are keyed by index because names need not be unique.
func (s *Store) SaveReport(runID string, member int, rep checks.Report) error {
	if member < 0 {
		return fmt.Errorf("save report for %s: negative member index %d", rep.Morphology, member)
	}
	return retryOnBusy(s.clock, func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM check_results WHERE run_id = ? AND member_index = ?`, runID, member); err != nil {
			return err
		}
		for pos, name := range rep.Order {
			res := rep.Results[name]
			offenders, err := encodeOffenders(res.Offenders)
			if err != nil {
				return fmt.Errorf("encode offenders of %s: %w", name, err)
			}
			if _, err := tx.Exec(`
				INSERT INTO check_results (
					run_id, member_index, morphology, check_name, position, passed, offender_count, offenders_json
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, member, rep.Morphology, name, pos, res.Passed, len(res.Offenders), offenders,
			); err != nil {
				return fmt.Errorf("insert %s: %w", name, err)
			}
		}
		return tx.Commit()
	})
}

// ListReports returns the reports stored for runID, ordered by member
// index.
func (s *Store) ListReports(runID string) ([]checks.Report, error) {
	rows, err := s.db.Query(`
		SELECT member_index, morphology, check_name, passed, offenders_json
		FROM check_results
		WHERE run_id = ?
		ORDER BY member_index, position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query check results: %w", err)
	}
	defer rows.Close()

	var reports []checks.Report
	last := -1
	for rows.Next() {
		var member int
		var morphology, name, offenders string
		var passed bool
		if err := rows.Scan(&member, &morphology, &name, &passed, &offenders); err != nil {
			return nil, err
		}
		if len(reports) == 0 || member != last {
			reports = append(reports, checks.Report{
				Morphology: morphology,
				Passed:     true,
				Results:    make(map[string]checks.CheckResult),
			})
			last = member
		}
		rep := &reports[len(reports)-1]
		decoded, err := decodeOffenders(offenders)
		if err != nil {
			return nil, fmt.Errorf("decode offenders of %s/%s: %w", morphology, name, err)
		}
		rep.Results[name] = checks.CheckResult{Passed: passed, Offenders: decoded}
		rep.Order = append(rep.Order, name)
		rep.Passed = rep.Passed && passed
	}
	return reports, rows.Err()
}

// FailureCounts returns, per check name, how many morphologies of runID
// failed it.
func (s *Store) FailureCounts(runID string) (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT check_name, COUNT(*)
		FROM check_results
		WHERE run_id = ? AND passed = 0
		GROUP BY check_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failure counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}

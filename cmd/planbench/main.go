// Command planbench is a benchmarking and regression harness (spec.md §9's
// "measure both clause and variable count on a benchmark suite and match to
// within a small multiplicative factor"): it runs the planner over a suite
// of domain/problem pairs, records each run's clause count, variable count,
// groundness and wall-clock time to a local SQLite file, and flags any
// problem whose latest run exceeds its best prior run by more than a
// configurable factor.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"satplan/internal/config"
	"satplan/internal/encode"
	"satplan/internal/ground"
	"satplan/internal/pddl"
	"satplan/internal/planerr"
	"satplan/internal/satdriver"
	"satplan/internal/satsolver"
	"satplan/internal/support"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("planbench", flag.ContinueOnError)
	suiteDir := fs.String("suite", "", "directory of <name>.domain.pddl / <name>.problem.pddl pairs")
	dbPath := fs.String("db", "planbench.db", "path to the SQLite regression database")
	factor := fs.Float64("factor", 1.5, "allowed multiplicative growth over a problem's best prior run before it is flagged")
	configPath := fs.String("config", "", "optional YAML config layered under compiled-in defaults, applied to every case")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *suiteDir == "" {
		fmt.Fprintln(os.Stderr, "usage: planbench -suite <dir> [-db path] [-factor N] [-config path]")
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		if err := cfg.LoadYAML(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}

	cases, err := discoverCases(*suiteDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "planbench:", err)
		return 2
	}
	if len(cases) == 0 {
		fmt.Fprintln(os.Stderr, "planbench: no <name>.domain.pddl/<name>.problem.pddl pairs found under", *suiteDir)
		return 2
	}

	db, err := openDB(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "planbench:", err)
		return 2
	}
	defer db.Close()

	regressed := 0
	for _, c := range cases {
		m, err := runCase(cfg, c)
		if err != nil {
			fmt.Fprintf(os.Stderr, "planbench: %s: %v\n", c.name, err)
			continue
		}
		prior, err := bestPriorRun(db, c.name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "planbench: %s: reading history: %v\n", c.name, err)
		}
		if err := recordRun(db, c.name, m); err != nil {
			fmt.Fprintf(os.Stderr, "planbench: %s: recording run: %v\n", c.name, err)
		}

		fmt.Printf("%-24s horizon=%-3d clauses=%-6d vars=%-6d groundness=%.3f %s\n",
			c.name, m.horizon, m.numClauses, m.numVars, m.groundness, m.elapsed)

		if prior != nil && exceedsFactor(*factor, prior.numClauses, m.numClauses, prior.numVars, m.numVars) {
			regressed++
			fmt.Printf("  REGRESSION: clauses %d -> %d, vars %d -> %d (factor %.2f)\n",
				prior.numClauses, m.numClauses, prior.numVars, m.numVars, *factor)
		}
	}
	if regressed > 0 {
		return 1
	}
	return 0
}

func exceedsFactor(factor float64, priorClauses, newClauses, priorVars, newVars int) bool {
	if priorClauses > 0 && float64(newClauses) > float64(priorClauses)*factor {
		return true
	}
	if priorVars > 0 && float64(newVars) > float64(priorVars)*factor {
		return true
	}
	return false
}

// benchCase is one domain/problem pair discovered under the suite directory.
type benchCase struct {
	name        string
	domainPath  string
	problemPath string
}

func discoverCases(dir string) ([]benchCase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading suite dir: %w", err)
	}
	byName := map[string]*benchCase{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".domain.pddl"):
			key := strings.TrimSuffix(name, ".domain.pddl")
			bc := byName[key]
			if bc == nil {
				bc = &benchCase{name: key}
				byName[key] = bc
			}
			bc.domainPath = filepath.Join(dir, name)
		case strings.HasSuffix(name, ".problem.pddl"):
			key := strings.TrimSuffix(name, ".problem.pddl")
			bc := byName[key]
			if bc == nil {
				bc = &benchCase{name: key}
				byName[key] = bc
			}
			bc.problemPath = filepath.Join(dir, name)
		}
	}
	var out []benchCase
	for _, bc := range byName {
		if bc.domainPath == "" || bc.problemPath == "" {
			continue
		}
		out = append(out, *bc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

type metrics struct {
	horizon    int
	numClauses int
	numVars    int
	groundness float64
	elapsed    time.Duration
}

// runCase grounds, encodes, and solves one benchmark case, counting clauses
// and the highest variable index touched along the way. It mirrors
// internal/engine's Oneshot attempt rather than calling engine directly, so
// it can observe the grounder's Groundness() and wrap the solver in a
// counting decorator without engine.Engine needing to expose either.
func runCase(cfg *config.Config, c benchCase) (metrics, error) {
	domainSrc, err := os.ReadFile(c.domainPath)
	if err != nil {
		return metrics{}, err
	}
	problemSrc, err := os.ReadFile(c.problemPath)
	if err != nil {
		return metrics{}, err
	}
	d, err := pddl.NewParser(string(domainSrc)).ParseDomain()
	if err != nil {
		return metrics{}, err
	}
	p, err := pddl.NewParser(string(problemSrc)).ParseProblem()
	if err != nil {
		return metrics{}, err
	}
	prob, err := pddl.Normalize(d, p)
	if err != nil {
		return metrics{}, err
	}

	start := time.Now()

	g := ground.New(prob, cfg)
	if err := g.Refine(context.Background(), cfg.ProgressTarget); err != nil && !errors.Is(err, planerr.ErrTimeout) {
		return metrics{}, err
	}
	extracted, err := g.ExtractProblem()
	if err != nil {
		return metrics{}, err
	}

	idx := support.Build(extracted)
	layout := encode.BuildLayout(extracted, idx, cfg)
	enc := encode.New(extracted, idx, cfg.RequireParamImpliesAction, layout)

	counter := &countingSolver{Solver: satsolver.NewDPLLSolver()}
	drv := satdriver.New(enc, counter, cfg, nil)
	plan, err := drv.Run(time.Time{})
	if err != nil {
		return metrics{}, err
	}

	return metrics{
		horizon:    len(plan.Steps),
		numClauses: counter.clauses,
		numVars:    counter.maxVar,
		groundness: g.Groundness(),
		elapsed:    time.Since(start),
	}, nil
}

// countingSolver decorates a real satsolver.Solver, tallying clause and
// variable counts as the driver builds the formula, so planbench's metrics
// reflect exactly what was handed to the solver rather than an estimate.
type countingSolver struct {
	satsolver.Solver
	clauses int
	maxVar  int
}

func (c *countingSolver) AddLiteral(lit int32) {
	if lit == 0 {
		c.clauses++
	} else {
		v := int(lit)
		if v < 0 {
			v = -v
		}
		if v > c.maxVar {
			c.maxVar = v
		}
	}
	c.Solver.AddLiteral(lit)
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			problem     TEXT NOT NULL,
			horizon     INTEGER NOT NULL,
			num_clauses INTEGER NOT NULL,
			num_vars    INTEGER NOT NULL,
			groundness  REAL NOT NULL,
			elapsed_ms  INTEGER NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

func recordRun(db *sql.DB, problem string, m metrics) error {
	_, err := db.Exec(
		`INSERT INTO runs (run_id, problem, horizon, num_clauses, num_vars, groundness, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), problem, m.horizon, m.numClauses, m.numVars, m.groundness, m.elapsed.Milliseconds(),
	)
	return err
}

type priorRun struct {
	numClauses int
	numVars    int
}

// bestPriorRun returns the smallest clause/variable footprint yet recorded
// for problem, the baseline a new run is compared against; nil if this is
// the problem's first run.
func bestPriorRun(db *sql.DB, problem string) (*priorRun, error) {
	row := db.QueryRow(
		`SELECT MIN(num_clauses), MIN(num_vars) FROM runs WHERE problem = ?`, problem,
	)
	var clauses, vars sql.NullInt64
	if err := row.Scan(&clauses, &vars); err != nil {
		return nil, err
	}
	if !clauses.Valid {
		return nil, nil
	}
	return &priorRun{numClauses: int(clauses.Int64), numVars: int(vars.Int64)}, nil
}

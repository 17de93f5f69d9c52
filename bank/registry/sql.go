package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	"github.com/tanpawarit/Chative-Banking-Dialogue/bank/domain"
)

var errVersionConflict = errors.New("client version changed during update")

type clientRow struct {
	bun.BaseModel `bun:"table:clients,alias:c"`

	CPF         string  `bun:"cpf,pk"`
	Name        string  `bun:"name,notnull"`
	DateOfBirth string  `bun:"dob,notnull"`
	CreditLimit float64 `bun:"credit_limit,notnull"`
	CreditScore int     `bun:"credit_score,notnull"`
	Version     int64   `bun:"version,notnull,default:1"`
}

func (r clientRow) record() domain.ClientRecord {
	return domain.ClientRecord{
		CPF:         r.CPF,
		Name:        r.Name,
		DateOfBirth: r.DateOfBirth,
		CreditLimit: r.CreditLimit,
		CreditScore: r.CreditScore,
		Version:     r.Version,
	}
}

type limitRequestRow struct {
	bun.BaseModel `bun:"table:limit_requests,alias:lr"`

	ID             int64     `bun:"id,pk,autoincrement"`
	CPF            string    `bun:"cpf,notnull"`
	RequestedAt    time.Time `bun:"requested_at,notnull"`
	LimitBefore    float64   `bun:"limit_before,notnull"`
	LimitRequested float64   `bun:"limit_requested,notnull"`
	Status         string    `bun:"status,notnull"`
}

type scoreBandRow struct {
	bun.BaseModel `bun:"table:score_bands,alias:sb"`

	ScoreMin int     `bun:"score_min,pk"`
	ScoreMax int     `bun:"score_max,notnull"`
	MaxLimit float64 `bun:"max_limit,notnull"`
}

// SQLRegistry persists the registry through bun on SQLite or Postgres.
// Apply uses optimistic concurrency on clients.version and retries on conflict.
type SQLRegistry struct {
	db         *bun.DB
	maxRetries int
	now        func() time.Time
}

func OpenSQL(ctx context.Context, cfg Config) (*SQLRegistry, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("registry dsn is required")
	}

	var db *bun.DB
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite, "":
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: open sqlite: %v", domain.ErrDataAccess, err)
		}
		// A single connection keeps writers serialized and ":memory:" databases alive.
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported sql registry driver %q", cfg.Driver)
	}

	pingCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping registry: %v", domain.ErrDataAccess, err)
	}

	return NewSQLRegistry(db, cfg.MaxRetries), nil
}

func NewSQLRegistry(db *bun.DB, maxRetries int) *SQLRegistry {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &SQLRegistry{db: db, maxRetries: maxRetries, now: time.Now}
}

// Migrate creates the tables when missing.
func (r *SQLRegistry) Migrate(ctx context.Context) error {
	models := []any{(*clientRow)(nil), (*limitRequestRow)(nil), (*scoreBandRow)(nil)}
	for _, model := range models {
		if _, err := r.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("%w: create table: %v", domain.ErrDataAccess, err)
		}
	}
	_, err := r.db.NewCreateIndex().
		Model((*limitRequestRow)(nil)).
		Index("limit_requests_cpf_idx").
		Column("cpf").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: create index: %v", domain.ErrDataAccess, err)
	}
	return nil
}

// Seed inserts seed rows that are not present yet. Existing rows are left untouched.
func (r *SQLRegistry) Seed(ctx context.Context, seed Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(seed.Clients) > 0 {
			rows := make([]clientRow, 0, len(seed.Clients))
			for _, c := range seed.Clients {
				rows = append(rows, clientRow{
					CPF:         c.CPF,
					Name:        c.Name,
					DateOfBirth: c.DateOfBirth,
					CreditLimit: c.CreditLimit,
					CreditScore: c.CreditScore,
					Version:     1,
				})
			}
			if _, err := tx.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("%w: seed clients: %v", domain.ErrDataAccess, err)
			}
		}

		bands := make([]scoreBandRow, 0, len(seed.Bands))
		for _, b := range seed.Bands {
			bands = append(bands, scoreBandRow{ScoreMin: b.ScoreMin, ScoreMax: b.ScoreMax, MaxLimit: b.MaxLimit})
		}
		if _, err := tx.NewInsert().Model(&bands).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("%w: seed score bands: %v", domain.ErrDataAccess, err)
		}
		return nil
	})
}

func (r *SQLRegistry) FindByCPF(ctx context.Context, cpf string) (domain.ClientRecord, error) {
	normalized, err := normalizeCPF(cpf)
	if err != nil {
		return domain.ClientRecord{}, err
	}
	row, err := selectClient(ctx, r.db, normalized)
	if err != nil {
		return domain.ClientRecord{}, err
	}
	return row.record(), nil
}

func (r *SQLRegistry) Authenticate(ctx context.Context, cpf, dob string) (*domain.ClientRecord, error) {
	normalized, err := normalizeCPF(cpf)
	if err != nil {
		return nil, err
	}
	dob = strings.TrimSpace(dob)
	if err := domain.ValidateDOB(dob, r.now()); err != nil {
		return nil, err
	}

	var row clientRow
	err = r.db.NewSelect().
		Model(&row).
		Where("cpf = ?", normalized).
		Where("dob = ?", dob).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: authenticate: %v", domain.ErrDataAccess, err)
	}
	rec := row.record()
	return &rec, nil
}

func (r *SQLRegistry) UpdateScore(ctx context.Context, cpf string, score int) error {
	_, err := r.Apply(ctx, cpf, func(domain.ClientRecord) (Mutation, error) {
		return Mutation{Score: &score}, nil
	})
	return err
}

func (r *SQLRegistry) UpdateLimit(ctx context.Context, cpf string, limit float64) error {
	_, err := r.Apply(ctx, cpf, func(domain.ClientRecord) (Mutation, error) {
		return Mutation{Limit: &limit}, nil
	})
	return err
}

func (r *SQLRegistry) AppendLimitRequest(ctx context.Context, req domain.LimitRequest) error {
	req.CPF = domain.NormalizeCPF(req.CPF)
	if err := req.Validate(); err != nil {
		return err
	}
	row := newLimitRequestRow(req)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: append limit request: %v", domain.ErrDataAccess, err)
	}
	return nil
}

func (r *SQLRegistry) LimitRequests(ctx context.Context, cpf string) ([]domain.LimitRequest, error) {
	var rows []limitRequestRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("cpf = ?", domain.NormalizeCPF(cpf)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list limit requests: %v", domain.ErrDataAccess, err)
	}
	out := make([]domain.LimitRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.LimitRequest{
			CPF:            row.CPF,
			Timestamp:      row.RequestedAt.UTC(),
			LimitBefore:    row.LimitBefore,
			LimitRequested: row.LimitRequested,
			Status:         domain.RequestStatus(row.Status),
		})
	}
	return out, nil
}

func (r *SQLRegistry) ScoreBands(ctx context.Context) (domain.BandTable, error) {
	var rows []scoreBandRow
	if err := r.db.NewSelect().Model(&rows).Order("score_min ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: load score bands: %v", domain.ErrDataAccess, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: score band table is empty", domain.ErrDataAccess)
	}
	bands := make(domain.BandTable, 0, len(rows))
	for _, row := range rows {
		bands = append(bands, domain.ScoreBand{ScoreMin: row.ScoreMin, ScoreMax: row.ScoreMax, MaxLimit: row.MaxLimit})
	}
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	return bands, nil
}

// MaxLimitForScore reads the whole band table so a broken table fails every
// lookup, not only the ones that land in the broken range.
func (r *SQLRegistry) MaxLimitForScore(ctx context.Context, score int) (float64, error) {
	if err := domain.ValidateScore(score); err != nil {
		return 0, err
	}
	bands, err := r.ScoreBands(ctx)
	if err != nil {
		return 0, err
	}
	return bands.MaxLimitFor(score)
}

func (r *SQLRegistry) Apply(ctx context.Context, cpf string, fn MutateFunc) (Change, error) {
	if fn == nil {
		return Change{}, fmt.Errorf("%w: nil mutate func", domain.ErrValidation)
	}
	normalized, err := normalizeCPF(cpf)
	if err != nil {
		return Change{}, err
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		change, err := r.applyOnce(ctx, normalized, fn)
		if errors.Is(err, errVersionConflict) {
			continue
		}
		return change, err
	}
	return Change{}, fmt.Errorf("%w: client %s kept changing after %d attempts", domain.ErrDataAccess, domain.MaskCPF(normalized), r.maxRetries)
}

func (r *SQLRegistry) applyOnce(ctx context.Context, cpf string, fn MutateFunc) (Change, error) {
	var change Change
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row, err := selectClient(ctx, tx, cpf)
		if err != nil {
			return err
		}
		before := row.record()
		m, err := fn(before)
		if err != nil {
			return err
		}
		if m.Empty() {
			change = Change{Before: before, After: before}
			return nil
		}
		if err := m.validate(cpf); err != nil {
			return err
		}

		if m.Request != nil {
			reqRow := newLimitRequestRow(*m.Request)
			if _, err := tx.NewInsert().Model(&reqRow).Exec(ctx); err != nil {
				return fmt.Errorf("%w: append limit request: %v", domain.ErrDataAccess, err)
			}
		}

		after := m.applyTo(before)
		res, err := tx.NewUpdate().
			Model((*clientRow)(nil)).
			Set("credit_limit = ?", after.CreditLimit).
			Set("credit_score = ?", after.CreditScore).
			Set("version = version + 1").
			Where("cpf = ?", cpf).
			Where("version = ?", before.Version).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("%w: update client: %v", domain.ErrDataAccess, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: update client: %v", domain.ErrDataAccess, err)
		}
		if affected == 0 {
			return errVersionConflict
		}

		after.Version = before.Version + 1
		change = Change{Before: before, After: after, Request: m.Request}
		return nil
	})
	if err != nil {
		return Change{}, err
	}
	return change, nil
}

func (r *SQLRegistry) Close() error {
	return r.db.Close()
}

func selectClient(ctx context.Context, db bun.IDB, cpf string) (clientRow, error) {
	var row clientRow
	err := db.NewSelect().Model(&row).Where("cpf = ?", cpf).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return clientRow{}, fmt.Errorf("%w: %s", domain.ErrNotFound, domain.MaskCPF(cpf))
	}
	if err != nil {
		return clientRow{}, fmt.Errorf("%w: load client: %v", domain.ErrDataAccess, err)
	}
	return row, nil
}

func newLimitRequestRow(req domain.LimitRequest) limitRequestRow {
	return limitRequestRow{
		CPF:            req.CPF,
		RequestedAt:    req.Timestamp.UTC(),
		LimitBefore:    req.LimitBefore,
		LimitRequested: req.LimitRequested,
		Status:         string(req.Status),
	}
}

package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/forttask/internal/client/models"
	"github.com/dmitrijs2005/forttask/internal/dbx"
	"github.com/go-playground/validator/v10"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db      dbx.DBTX
	changes *changes
	inTx    bool
}

// NewSQLiteRepository returns a repository bound to db.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, changes: newChanges()}
}

// WithTx returns a repository running on tx that shares the watchers of r.
// Its writes are not announced; call r.Notify after the commit.
func (r *SQLiteRepository) WithTx(tx dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: tx, changes: r.changes, inTx: true}
}

// Notify wakes every watcher.
func (r *SQLiteRepository) Notify() { r.changes.notify() }

func (r *SQLiteRepository) written() {
	if !r.inTx {
		r.changes.notify()
	}
}

func (r *SQLiteRepository) Insert(ctx context.Context, c models.Credential) (int64, error) {
	if err := validate.Struct(c); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	id, err := insert(ctx, r.db, c.Username, c.Password)
	if err != nil {
		return 0, err
	}
	r.written()
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, c models.Credential) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	res, err := r.db.ExecContext(ctx, `update credentials set username=?, password=? where id=?`,
		c.Username, c.Password, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	r.written()
	return nil
}

// Upsert runs lookup and write in one transaction when r is bound to a
// *sql.DB, so two saves of one username can never produce two rows.
func (r *SQLiteRepository) Upsert(ctx context.Context, username, password string) (int64, bool, error) {
	if err := validate.Var(username, "required,max=256"); err != nil {
		return 0, false, fmt.Errorf("%w: username: %v", ErrInvalid, err)
	}

	var (
		id      int64
		created bool
	)
	run := func(ctx context.Context, tx dbx.DBTX) error {
		existing, err := getByUsername(ctx, tx, username)
		switch {
		case errors.Is(err, ErrNotFound):
			id, err = insert(ctx, tx, username, password)
			created = true
			return err
		case err != nil:
			return err
		}
		id = existing.ID
		_, err = tx.ExecContext(ctx, `update credentials set password=? where id=?`, password, id)
		if err != nil {
			return fmt.Errorf("failed to update credential: %w", err)
		}
		return nil
	}

	var err error
	if db, ok := r.db.(*sql.DB); ok {
		err = dbx.WithTx(ctx, db, nil, run)
	} else {
		err = run(ctx, r.db)
	}
	if err != nil {
		return 0, false, err
	}
	r.written()
	return id, created, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `delete from credentials where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	r.written()
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.Credential, error) {
	row := r.db.QueryRowContext(ctx, `select id, username, password from credentials where id=?`, id)
	return scanOne(row)
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.Credential, error) {
	return getByUsername(ctx, r.db, username)
}

// GetAll lists every row ordered by username.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Credential, error) {
	rows, err := r.db.QueryContext(ctx, `select id, username, password from credentials order by username, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select credentials: %w", err)
	}
	defer rows.Close()

	result := []models.Credential{}
	for rows.Next() {
		var c models.Credential
		if err := rows.Scan(&c.ID, &c.Username, &c.Password); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credentials: %w", err)
	}
	return result, nil
}

// Watch emits all rows now and after every write until ctx ends or a read
// fails; the channel is closed then.
func (r *SQLiteRepository) Watch(ctx context.Context) (<-chan []models.Credential, error) {
	return watch(ctx, r.changes, r.GetAll)
}

// WatchOne emits the row with id now and after every write; nil means the
// row does not exist (any more).
func (r *SQLiteRepository) WatchOne(ctx context.Context, id int64) (<-chan *models.Credential, error) {
	return watch(ctx, r.changes, func(ctx context.Context) (*models.Credential, error) {
		c, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return c, err
	})
}

func watch[T any](ctx context.Context, ch *changes, load func(context.Context) (T, error)) (<-chan T, error) {
	signal, cancel := ch.subscribe()

	first, err := load(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T, 1)
	out <- first

	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
			}
			v, err := load(ctx)
			if err != nil {
				return
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func insert(ctx context.Context, db dbx.DBTX, username, password string) (int64, error) {
	res, err := db.ExecContext(ctx, `insert into credentials (username, password) values (?, ?)`, username, password)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert credential: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

func getByUsername(ctx context.Context, db dbx.DBTX, username string) (*models.Credential, error) {
	row := db.QueryRowContext(ctx, `select id, username, password from credentials where username=?`, username)
	return scanOne(row)
}

func scanOne(row *sql.Row) (*models.Credential, error) {
	c := &models.Credential{}
	if err := row.Scan(&c.ID, &c.Username, &c.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return c, nil
}

func expectOne(res sql.Result) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

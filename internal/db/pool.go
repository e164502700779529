/**
 * @description
 * Bounded connection pool with scoped acquisition.
 * Wraps the database/sql pool that GORM manages and hands out one dedicated
 * connection per request. Release is deferred inside WithConn/WithTx so every
 * exit path (success, validation error, storage error, panic) returns the connection.
 *
 * @dependencies
 * - gorm.io/gorm
 *
 * @notes
 * - Acquire blocks while all MaxConns connections are busy. With AcquireTimeout > 0
 *   the wait is bounded and surfaces as ErrPoolExhausted.
 * - MinConns connections are opened eagerly by NewPool.
 */

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrPoolExhausted is returned when no connection frees up within the acquire timeout
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrConnection is returned when the pool cannot open a connection to the database
	ErrConnection = errors.New("database connection failed")
)

// PoolOptions bounds the pool
type PoolOptions struct {
	MinConns        int
	MaxConns        int
	AcquireTimeout  time.Duration // 0 blocks until a connection is free
	ConnMaxLifetime time.Duration
}

// Pool hands out scoped connections to the alerts database
type Pool struct {
	db    *gorm.DB
	sqlDB *sql.DB
	opts  PoolOptions
}

// Conn is a connection checked out of the pool. DB is a GORM session pinned to it.
type Conn struct {
	DB *gorm.DB

	conn *sql.Conn
	once sync.Once
}

// Release returns the connection to the pool. Safe to call more than once.
func (c *Conn) Release() {
	c.once.Do(func() {
		_ = c.conn.Close()
	})
}

// NewPool applies the bounds to gdb's connection pool and opens MinConns connections.
func NewPool(gdb *gorm.DB, opts PoolOptions) (*Pool, error) {
	if opts.MinConns < 1 {
		opts.MinConns = 1
	}
	if opts.MaxConns < opts.MinConns {
		opts.MaxConns = opts.MinConns
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(opts.MaxConns)
	sqlDB.SetMaxIdleConns(opts.MaxConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	p := &Pool{db: gdb, sqlDB: sqlDB, opts: opts}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.warm(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// warm opens MinConns physical connections and parks them as idle
func (p *Pool) warm(ctx context.Context) error {
	conns := make([]*sql.Conn, 0, p.opts.MinConns)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	for i := 0; i < p.opts.MinConns; i++ {
		c, err := p.sqlDB.Conn(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
		conns = append(conns, c)
		if err := c.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
	}
	return nil
}

// Acquire checks a connection out of the pool. The caller must Release it.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	acquireCtx := ctx
	if p.opts.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.opts.AcquireTimeout)
		defer cancel()
	}

	conn, err := p.sqlDB.Conn(acquireCtx)
	if err != nil {
		return nil, p.acquireError(ctx, err)
	}

	session := p.db.WithContext(ctx)
	session.Statement.ConnPool = conn
	return &Conn{DB: session, conn: conn}, nil
}

func (p *Pool) acquireError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: no connection free after %s", ErrPoolExhausted, p.opts.AcquireTimeout)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// WithConn runs fn on a dedicated connection and releases it afterwards
func (p *Pool) WithConn(ctx context.Context, fn func(db *gorm.DB) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return fn(conn.DB)
}

// WithTx runs fn inside a transaction on a dedicated connection.
// The transaction commits when fn returns nil and rolls back otherwise.
func (p *Pool) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.WithConn(ctx, func(db *gorm.DB) error {
		return db.Transaction(fn)
	})
}

// Ping checks that the database answers
func (p *Pool) Ping(ctx context.Context) error {
	return p.WithConn(ctx, func(db *gorm.DB) error {
		return db.Exec("SELECT 1").Error
	})
}

// Stats reports the state of the underlying pool
func (p *Pool) Stats() sql.DBStats {
	return p.sqlDB.Stats()
}

// SQLDB exposes the underlying *sql.DB for collectors
func (p *Pool) SQLDB() *sql.DB {
	return p.sqlDB
}

// Options returns the bounds the pool was built with
func (p *Pool) Options() PoolOptions {
	return p.opts
}

// Close drains the pool. In-flight connections are closed as they are released.
func (p *Pool) Close() error {
	return p.sqlDB.Close()
}

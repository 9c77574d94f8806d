package executor

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	_ "modernc.org/sqlite"

	ptb "github.com/branched-services/go-ptb"
)

const schema = `
CREATE TABLE IF NOT EXISTS objects (
	id      BLOB PRIMARY KEY,
	version INTEGER NOT NULL,
	kind    TEXT NOT NULL,
	balance INTEGER NOT NULL DEFAULT 0,
	shared  INTEGER NOT NULL DEFAULT 0
);
`

// DefaultGatePrice is the coin value the gated call requires.
const DefaultGatePrice = 5

// Ledger implements Executor over a SQLite object store.
var _ Executor = (*Ledger)(nil)

// Ledger is a SQLite-backed reference executor. Each Execute call runs
// inside one SQL transaction, so a rejection at any command rolls back
// every earlier command's writes.
type Ledger struct {
	db        *sql.DB
	log       *slog.Logger
	gatePrice uint64
	failAt    int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the execution logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.log = logger
		}
	}
}

// WithGatePrice overrides the coin value the gated call requires.
func WithGatePrice(price uint64) Option {
	return func(l *Ledger) {
		l.gatePrice = price
	}
}

// WithFailpoint makes Execute reject at the given command index before
// applying it. Used to exercise the atomicity contract in tests; a
// negative index disables the failpoint.
func WithFailpoint(command int) Option {
	return func(l *Ledger) {
		l.failAt = command
	}
}

// Open opens a SQLite ledger at path and applies the schema.
func Open(path string, opts ...Option) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	l := &Ledger{
		db:        db,
		log:       slog.Default(),
		gatePrice: DefaultGatePrice,
		failAt:    -1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Close closes the underlying database handle.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// CreateObject inserts an object directly, bypassing transaction
// execution. Used for genesis bootstrap and tests.
func (l *Ledger) CreateObject(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	shared := 0
	if obj.Shared {
		shared = 1
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO objects (id, version, kind, balance, shared) VALUES (?, ?, ?, ?, ?)`,
		obj.ID.Bytes(), obj.Version, obj.Kind, obj.Balance, shared)
	if err != nil {
		return fmt.Errorf("insert object %s: %w", obj.ID.Hex(), err)
	}
	return nil
}

// GetObject returns the current state of one object.
func (l *Ledger) GetObject(ctx context.Context, id common.Hash) (Object, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT version, kind, balance, shared FROM objects WHERE id = ?`, id.Bytes())
	return scanObject(row, id)
}

// ObjectCount returns the number of live objects in the store.
func (l *Ledger) ObjectCount(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM objects`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count objects: %w", err)
	}
	return count, nil
}

// execution carries the per-transaction runtime state.
type execution struct {
	sqlTx   *sql.Tx
	tx      *ptb.Transaction
	digest  common.Hash
	results [][]ObjectRef
	effects *Effects
	seq     uint16 // fresh-object counter within this transaction
}

// Execute implements the Executor contract. Commands run strictly in
// declaration order inside one SQL transaction; any rejection rolls the
// whole thing back and the returned error wraps the cause.
func (l *Ledger) Execute(ctx context.Context, tx *ptb.Transaction) (*Effects, error) {
	digest, err := tx.Digest()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	if tx.CommandCount() > ptb.MaxCommands {
		return nil, &RejectionError{Command: -1, Err: ErrLimitExceeded}
	}

	sqlTx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	run := &execution{
		sqlTx:   sqlTx,
		tx:      tx,
		digest:  digest,
		results: make([][]ObjectRef, tx.CommandCount()),
		effects: &Effects{Digest: digest},
	}

	// Object inputs are taken once, at transaction start. Later commands
	// see the working state, so in-transaction mutations don't trip the
	// version check.
	for i, in := range tx.Inputs() {
		if err := run.checkInput(ctx, in); err != nil {
			return nil, &RejectionError{Command: -1, Err: fmt.Errorf("input %d: %w", i, err)}
		}
	}

	for idx, cmd := range tx.Commands() {
		if idx == l.failAt {
			return nil, &RejectionError{Command: idx, Function: cmd.Qualified(), Err: ErrFaultInjected}
		}
		if err := l.apply(ctx, run, idx, cmd); err != nil {
			l.log.Info("transaction rejected",
				"digest", digest.Hex(), "command", idx, "function", cmd.Qualified())
			return nil, &RejectionError{Command: idx, Function: cmd.Qualified(), Err: err}
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	run.effects.Results = run.results
	l.log.Info("transaction committed",
		"digest", digest.Hex(),
		"commands", tx.CommandCount(),
		"created", len(run.effects.Created),
		"deleted", len(run.effects.Deleted))
	return run.effects, nil
}

// apply runs one command against the in-flight SQL transaction. Argument
// arity is checked before indexing: transactions that arrive through
// Decode rather than a Builder can carry short argument lists.
func (l *Ledger) apply(ctx context.Context, run *execution, idx int, cmd ptb.CommandSpec) error {
	switch cmd.Qualified() {
	case "mintcoin::mint_coin":
		if len(cmd.Args) != 1 {
			return ErrMalformedCommand
		}
		treasury, err := run.resolveObject(ctx, cmd.Args[0], KindTreasury)
		if err != nil {
			return err
		}
		coin := Object{
			ID:      run.freshID(idx),
			Version: 1,
			Kind:    KindCoin,
			Balance: treasury.Balance,
		}
		if err := run.insert(ctx, coin); err != nil {
			return err
		}
		run.results[idx] = []ObjectRef{{ID: coin.ID, Version: coin.Version}}
		return nil

	case "coin::join":
		if len(cmd.Args) != 2 {
			return ErrMalformedCommand
		}
		target, err := run.resolveObject(ctx, cmd.Args[0], KindCoin)
		if err != nil {
			return err
		}
		victim, err := run.resolveObject(ctx, cmd.Args[1], KindCoin)
		if err != nil {
			return err
		}
		if target.ID == victim.ID {
			return ErrSelfJoin
		}
		target.Balance += victim.Balance
		if err := run.update(ctx, target); err != nil {
			return err
		}
		return run.delete(ctx, victim.ID)

	case "coin::split":
		if len(cmd.Args) != 2 {
			return ErrMalformedCommand
		}
		source, err := run.resolveObject(ctx, cmd.Args[0], KindCoin)
		if err != nil {
			return err
		}
		amount, err := run.resolveUint64(cmd.Args[1])
		if err != nil {
			return err
		}
		if amount > source.Balance {
			return ErrInsufficientBalance
		}
		source.Balance -= amount
		if err := run.update(ctx, source); err != nil {
			return err
		}
		carved := Object{
			ID:      run.freshID(idx),
			Version: 1,
			Kind:    KindCoin,
			Balance: amount,
		}
		if err := run.insert(ctx, carved); err != nil {
			return err
		}
		run.results[idx] = []ObjectRef{{ID: carved.ID, Version: carved.Version}}
		return nil

	case "mintcoin::get_flag":
		if len(cmd.Args) != 2 {
			return ErrMalformedCommand
		}
		counter, err := run.resolveObject(ctx, cmd.Args[0], KindCounter)
		if err != nil {
			return err
		}
		payment, err := run.resolveObject(ctx, cmd.Args[1], KindCoin)
		if err != nil {
			return err
		}
		if payment.Balance != l.gatePrice {
			return ErrUnauthorized
		}
		counter.Balance++
		if err := run.update(ctx, counter); err != nil {
			return err
		}
		if err := run.delete(ctx, payment.ID); err != nil {
			return err
		}
		run.effects.Events = append(run.effects.Events, Event{
			Function: cmd.Qualified(),
			Message:  "flag unlocked",
		})
		return nil

	default:
		return ErrUnknownFunction
	}
}

// checkInput verifies an object input exists as declared. Pure inputs have
// nothing to check.
func (run *execution) checkInput(ctx context.Context, in ptb.CallArg) error {
	switch arg := in.(type) {
	case ptb.OwnedObject:
		obj, err := run.load(ctx, arg.ID)
		if err != nil {
			return err
		}
		if obj.Shared {
			return ErrObjectNotFound
		}
		if obj.Version != arg.Version {
			return ErrVersionMismatch
		}
	case ptb.SharedObject:
		obj, err := run.load(ctx, arg.ID)
		if err != nil {
			return err
		}
		if !obj.Shared {
			return ErrObjectNotFound
		}
	}
	return nil
}

// resolveObject loads the object an argument reference points at and checks
// the expected kind. A reference to an object an earlier command consumed
// fails with ErrObjectNotFound.
func (run *execution) resolveObject(ctx context.Context, ref ptb.ArgRef, kind string) (Object, error) {
	var id common.Hash

	switch ref.Kind {
	case ptb.RefInput:
		switch arg := run.tx.InputAt(int(ref.Index)).(type) {
		case ptb.OwnedObject:
			id = arg.ID
		case ptb.SharedObject:
			id = arg.ID
		default:
			return Object{}, ErrWrongObjectKind
		}

	case ptb.RefResult:
		if int(ref.Command) >= len(run.results) {
			return Object{}, ErrObjectNotFound
		}
		outputs := run.results[ref.Command]
		if int(ref.Index) >= len(outputs) {
			return Object{}, ErrObjectNotFound
		}
		id = outputs[ref.Index].ID

	default:
		return Object{}, ErrObjectNotFound
	}

	obj, err := run.load(ctx, id)
	if err != nil {
		return Object{}, err
	}
	if obj.Kind != kind {
		return Object{}, ErrWrongObjectKind
	}
	return obj, nil
}

// resolveUint64 decodes a pure argument as a little-endian u64.
func (run *execution) resolveUint64(ref ptb.ArgRef) (uint64, error) {
	if ref.Kind != ptb.RefInput {
		return 0, ErrMalformedLiteral
	}
	pure, ok := run.tx.InputAt(int(ref.Index)).(ptb.Pure)
	if !ok {
		return 0, ErrMalformedLiteral
	}
	data := pure.Data()
	if len(data) != 8 {
		return 0, ErrMalformedLiteral
	}
	return binary.LittleEndian.Uint64(data), nil
}

// freshID derives a created-object identity from the transaction digest,
// the producing command, and a per-transaction counter. Deterministic so
// effects are reproducible for a given transaction.
func (run *execution) freshID(idx int) common.Hash {
	var tail [4]byte
	binary.BigEndian.PutUint16(tail[0:2], uint16(idx))
	binary.BigEndian.PutUint16(tail[2:4], run.seq)
	run.seq++
	return crypto.Keccak256Hash(run.digest.Bytes(), tail[:])
}

func (run *execution) load(ctx context.Context, id common.Hash) (Object, error) {
	row := run.sqlTx.QueryRowContext(ctx,
		`SELECT version, kind, balance, shared FROM objects WHERE id = ?`, id.Bytes())
	return scanObject(row, id)
}

func (run *execution) insert(ctx context.Context, obj Object) error {
	shared := 0
	if obj.Shared {
		shared = 1
	}
	_, err := run.sqlTx.ExecContext(ctx,
		`INSERT INTO objects (id, version, kind, balance, shared) VALUES (?, ?, ?, ?, ?)`,
		obj.ID.Bytes(), obj.Version, obj.Kind, obj.Balance, shared)
	if err != nil {
		return fmt.Errorf("insert object %s: %w", obj.ID.Hex(), err)
	}
	run.effects.Created = append(run.effects.Created, ObjectRef{ID: obj.ID, Version: obj.Version})
	return nil
}

func (run *execution) update(ctx context.Context, obj Object) error {
	obj.Version++
	_, err := run.sqlTx.ExecContext(ctx,
		`UPDATE objects SET version = ?, balance = ? WHERE id = ?`,
		obj.Version, obj.Balance, obj.ID.Bytes())
	if err != nil {
		return fmt.Errorf("update object %s: %w", obj.ID.Hex(), err)
	}
	run.effects.Mutated = append(run.effects.Mutated, ObjectRef{ID: obj.ID, Version: obj.Version})
	return nil
}

func (run *execution) delete(ctx context.Context, id common.Hash) error {
	_, err := run.sqlTx.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, id.Bytes())
	if err != nil {
		return fmt.Errorf("delete object %s: %w", id.Hex(), err)
	}
	run.effects.Deleted = append(run.effects.Deleted, id)
	return nil
}

// row abstracts *sql.Row for scanning.
type row interface {
	Scan(dest ...any) error
}

func scanObject(r row, id common.Hash) (Object, error) {
	obj := Object{ID: id}
	var shared int
	if err := r.Scan(&obj.Version, &obj.Kind, &obj.Balance, &shared); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Object{}, ErrObjectNotFound
		}
		return Object{}, fmt.Errorf("scan object %s: %w", id.Hex(), err)
	}
	obj.Shared = shared != 0
	return obj, nil
}

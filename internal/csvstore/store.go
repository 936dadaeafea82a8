// Package csvstore persists the ledger as three CSV files in a directory.
//
// The files are loaded into the in-memory stores on Open and rewritten as a
// whole on Save. Each file is written to a temporary name and renamed into
// place, so a failed Save leaves the previous snapshot intact.
package csvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cleared-dev/accrual/internal/store"
)

// File names inside the data directory.
const (
	TransactionsFile = "transactions.csv"
	AccountsFile     = "accounts.csv"
	RulesFile        = "interest-rules.csv"
)

// Store is a CSV-backed snapshot of the three ledger stores.
type Store struct {
	dir string

	Transactions *store.MemoryTransactions
	Accounts     *store.MemoryAccounts
	Rules        *store.MemoryRules

	mu sync.Mutex
}

// Open loads the ledger from dir, creating the directory if needed.
// Missing files are treated as empty.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	s := &Store{
		dir:          dir,
		Transactions: store.NewMemoryTransactions(),
		Accounts:     store.NewMemoryAccounts(),
		Rules:        store.NewMemoryRules(),
	}

	txns, err := loadFile(filepath.Join(dir, TransactionsFile), ReadTransactions)
	if err != nil {
		return nil, err
	}
	for _, t := range txns {
		if _, err := s.Transactions.Save(ctx, t); err != nil {
			return nil, fmt.Errorf("loading transaction %s: %w", t.ID, err)
		}
	}

	accts, err := loadFile(filepath.Join(dir, AccountsFile), ReadAccounts)
	if err != nil {
		return nil, err
	}
	for _, a := range accts {
		if _, err := s.Accounts.Save(ctx, a); err != nil {
			return nil, fmt.Errorf("loading account %s: %w", a.Number, err)
		}
	}

	rules, err := loadFile(filepath.Join(dir, RulesFile), ReadRules)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		if _, err := s.Rules.Save(ctx, r); err != nil {
			return nil, fmt.Errorf("loading interest rule %s: %w", r.RuleID, err)
		}
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Save writes the current contents of all three stores to disk.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.Transactions.All(ctx)
	if err != nil {
		return err
	}
	accts, err := s.Accounts.All(ctx)
	if err != nil {
		return err
	}
	rules, err := s.Rules.FindAll(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := WriteTransactions(&buf, txns); err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, TransactionsFile), buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := WriteAccounts(&buf, accts); err != nil {
		return fmt.Errorf("encoding accounts: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, AccountsFile), buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := WriteRules(&buf, rules); err != nil {
		return fmt.Errorf("encoding interest rules: %w", err)
	}
	return writeAtomic(filepath.Join(s.dir, RulesFile), buf.Bytes())
}

func loadFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

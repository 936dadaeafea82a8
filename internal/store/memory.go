package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cleared-dev/accrual/internal/ledgererr"
	"github.com/cleared-dev/accrual/internal/model"
)

// MemoryTransactions is an in-memory TransactionStore, safe for concurrent use.
type MemoryTransactions struct {
	mu   sync.RWMutex
	txns map[string]model.Transaction
}

// NewMemoryTransactions creates an empty transaction store.
func NewMemoryTransactions() *MemoryTransactions {
	return &MemoryTransactions{txns: make(map[string]model.Transaction)}
}

func (s *MemoryTransactions) Save(_ context.Context, txn model.Transaction) (model.Transaction, error) {
	if strings.TrimSpace(txn.ID) == "" {
		return model.Transaction{}, ledgererr.ErrDuplicateID
	}
	txn.Date = model.Day(txn.Date)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[txn.ID] = txn
	return txn, nil
}

func (s *MemoryTransactions) FindByID(_ context.Context, id string) (model.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.txns[id]
	return txn, ok, nil
}

func (s *MemoryTransactions) FindByAccount(_ context.Context, account string) ([]model.Transaction, error) {
	return s.filter(func(t model.Transaction) bool {
		return t.AccountNumber == account
	}), nil
}

func (s *MemoryTransactions) FindByAccountAndRange(_ context.Context, account string, start, end time.Time) ([]model.Transaction, error) {
	return s.filter(func(t model.Transaction) bool {
		return t.AccountNumber == account && !t.Date.Before(start) && !t.Date.After(end)
	}), nil
}

func (s *MemoryTransactions) FindByDate(_ context.Context, date time.Time) ([]model.Transaction, error) {
	day := model.Day(date)
	return s.filter(func(t model.Transaction) bool {
		return t.Date.Equal(day)
	}), nil
}

func (s *MemoryTransactions) DeleteByID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[id]; !ok {
		return false, nil
	}
	delete(s.txns, id)
	return true, nil
}

func (s *MemoryTransactions) All(_ context.Context) ([]model.Transaction, error) {
	return s.filter(func(model.Transaction) bool { return true }), nil
}

// filter returns matching transactions ordered by date then id. Transaction
// holds only value fields, so appending copies them.
func (s *MemoryTransactions) filter(keep func(model.Transaction) bool) []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Transaction
	for _, t := range s.txns {
		if keep(t) {
			out = append(out, t)
		}
	}
	SortTransactions(out)
	return out
}

// SortTransactions orders txns by date then id.
func SortTransactions(txns []model.Transaction) {
	sort.Slice(txns, func(i, j int) bool { return txns[i].Less(txns[j]) })
}

// MemoryAccounts is an in-memory AccountStore, safe for concurrent use.
type MemoryAccounts struct {
	mu    sync.RWMutex
	accts map[string]model.Account
}

// NewMemoryAccounts creates an empty account store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accts: make(map[string]model.Account)}
}

func (s *MemoryAccounts) Save(_ context.Context, acct model.Account) (model.Account, error) {
	if strings.TrimSpace(acct.Number) == "" {
		return model.Account{}, ledgererr.Field(ledgererr.ErrInvalidAccount, "account", acct.Number, "account number cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accts[acct.Number] = acct
	return acct, nil
}

func (s *MemoryAccounts) FindByNumber(_ context.Context, number string) (model.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accts[number]
	return a, ok, nil
}

func (s *MemoryAccounts) All(_ context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, 0, len(s.accts))
	for _, a := range s.accts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *MemoryAccounts) DeleteByNumber(_ context.Context, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accts[number]; !ok {
		return false, nil
	}
	delete(s.accts, number)
	return true, nil
}

// MemoryRules is an in-memory RuleStore, safe for concurrent use.
type MemoryRules struct {
	mu    sync.RWMutex
	rules map[string]model.InterestRule
}

// NewMemoryRules creates an empty rule store.
func NewMemoryRules() *MemoryRules {
	return &MemoryRules{rules: make(map[string]model.InterestRule)}
}

func (s *MemoryRules) Save(_ context.Context, rule model.InterestRule) (model.InterestRule, error) {
	if strings.TrimSpace(rule.RuleID) == "" {
		return model.InterestRule{}, ledgererr.Field(ledgererr.ErrInvalidRuleID, "rule_id", rule.RuleID, "rule id cannot be empty")
	}
	rule.EffectiveDate = model.Day(rule.EffectiveDate)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.RuleID] = rule
	return rule, nil
}

func (s *MemoryRules) FindByID(_ context.Context, ruleID string) (model.InterestRule, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleID]
	return r, ok, nil
}

func (s *MemoryRules) FindAll(_ context.Context) ([]model.InterestRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.InterestRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	SortRules(out)
	return out, nil
}

func (s *MemoryRules) FindMostRecentAtOrBefore(_ context.Context, date time.Time) (model.InterestRule, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best model.InterestRule
	found := false
	for _, r := range s.rules {
		if r.EffectiveDate.After(date) {
			continue
		}
		if !found || r.EffectiveDate.After(best.EffectiveDate) {
			best = r
			found = true
		}
	}
	return best, found, nil
}

func (s *MemoryRules) DeleteByID(_ context.Context, ruleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[ruleID]; !ok {
		return false, nil
	}
	delete(s.rules, ruleID)
	return true, nil
}

// SortRules orders rules by effective date, then rule id.
func SortRules(rules []model.InterestRule) {
	sort.Slice(rules, func(i, j int) bool {
		if !rules[i].EffectiveDate.Equal(rules[j].EffectiveDate) {
			return rules[i].EffectiveDate.Before(rules[j].EffectiveDate)
		}
		return rules[i].RuleID < rules[j].RuleID
	})
}

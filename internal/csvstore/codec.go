package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/accrual/internal/model"
)

const dateFormat = "2006-01-02"

// Transaction columns in transactions.csv.
const (
	txnFields  = 6
	colTxnID   = 0
	colTxnDate = 1
	colTxnAcct = 2
	colTxnType = 3
	colTxnAmt  = 4
	colTxnBal  = 5
)

// Account columns in accounts.csv.
const (
	acctFields     = 3
	colAcctNumber  = 0
	colAcctBalance = 1
	colAcctCreated = 2
)

// Rule columns in interest-rules.csv.
const (
	ruleFields  = 3
	colRuleDate = 0
	colRuleID   = 1
	colRuleRate = 2
)

var (
	transactionHeader = []string{"txn_id", "date", "account", "type", "amount", "balance"}
	accountHeader     = []string{"account", "balance", "created"}
	ruleHeader        = []string{"effective_date", "rule_id", "rate"}
)

// ReadTransactions reads transactions.csv.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	records, err := readRecords(r, txnFields)
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	var txns []model.Transaction
	for i, rec := range records {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes transactions.csv, header included.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	rows := make([][]string, len(txns))
	for i, t := range txns {
		rows[i] = MarshalTransaction(t)
	}
	return writeRecords(w, transactionHeader, rows)
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, txnFields)
	row[colTxnID] = t.ID
	row[colTxnDate] = t.Date.Format(dateFormat)
	row[colTxnAcct] = t.AccountNumber
	row[colTxnType] = string(t.Type)
	row[colTxnAmt] = t.Amount.StringFixed(2)
	row[colTxnBal] = t.Balance.StringFixed(2)
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != txnFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", txnFields, len(record))
	}
	date, err := time.Parse(dateFormat, record[colTxnDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colTxnDate], err)
	}
	typ, err := model.ParseTransactionType(record[colTxnType])
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := decimal.NewFromString(record[colTxnAmt])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colTxnAmt], err)
	}
	balance, err := decimal.NewFromString(record[colTxnBal])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing balance %q: %w", record[colTxnBal], err)
	}
	return model.NewTransaction(record[colTxnID], date, record[colTxnAcct], typ, amount, balance)
}

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	records, err := readRecords(r, acctFields)
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	var accts []model.Account
	for i, rec := range records {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accts = append(accts, acct)
	}
	return accts, nil
}

// WriteAccounts writes accounts.csv, header included.
func WriteAccounts(w io.Writer, accts []model.Account) error {
	rows := make([][]string, len(accts))
	for i, a := range accts {
		rows[i] = MarshalAccount(a)
	}
	return writeRecords(w, accountHeader, rows)
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(a model.Account) []string {
	row := make([]string, acctFields)
	row[colAcctNumber] = a.Number
	row[colAcctBalance] = a.Balance.StringFixed(2)
	if !a.CreatedDate.IsZero() {
		row[colAcctCreated] = a.CreatedDate.Format(dateFormat)
	}
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != acctFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", acctFields, len(record))
	}
	var created time.Time
	if record[colAcctCreated] != "" {
		var err error
		created, err = time.Parse(dateFormat, record[colAcctCreated])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing created %q: %w", record[colAcctCreated], err)
		}
	}
	balance, err := decimal.NewFromString(record[colAcctBalance])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[colAcctBalance], err)
	}
	acct, err := model.NewAccount(record[colAcctNumber], created)
	if err != nil {
		return model.Account{}, err
	}
	acct.Balance = balance
	return acct, nil
}

// ReadRules reads interest-rules.csv.
func ReadRules(r io.Reader) ([]model.InterestRule, error) {
	records, err := readRecords(r, ruleFields)
	if err != nil {
		return nil, fmt.Errorf("reading interest rules CSV: %w", err)
	}
	var rules []model.InterestRule
	for i, rec := range records {
		rule, err := UnmarshalRule(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// WriteRules writes interest-rules.csv, header included.
func WriteRules(w io.Writer, rules []model.InterestRule) error {
	rows := make([][]string, len(rules))
	for i, r := range rules {
		rows[i] = MarshalRule(r)
	}
	return writeRecords(w, ruleHeader, rows)
}

// MarshalRule converts an InterestRule to a CSV row.
func MarshalRule(r model.InterestRule) []string {
	row := make([]string, ruleFields)
	row[colRuleDate] = r.EffectiveDate.Format(dateFormat)
	row[colRuleID] = r.RuleID
	row[colRuleRate] = r.Rate.StringFixed(2)
	return row
}

// UnmarshalRule converts a CSV row to an InterestRule.
func UnmarshalRule(record []string) (model.InterestRule, error) {
	if len(record) != ruleFields {
		return model.InterestRule{}, fmt.Errorf("expected %d fields, got %d", ruleFields, len(record))
	}
	date, err := time.Parse(dateFormat, record[colRuleDate])
	if err != nil {
		return model.InterestRule{}, fmt.Errorf("parsing effective_date %q: %w", record[colRuleDate], err)
	}
	rate, err := decimal.NewFromString(record[colRuleRate])
	if err != nil {
		return model.InterestRule{}, fmt.Errorf("parsing rate %q: %w", record[colRuleRate], err)
	}
	return model.NewInterestRule(date, record[colRuleID], rate)
}

// readRecords returns the data rows of a CSV file, skipping the header.
func readRecords(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func writeRecords(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

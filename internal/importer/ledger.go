package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/accrual/internal/input"
	"github.com/cleared-dev/accrual/internal/transactions"
)

// Built-in formats.
const (
	FormatLedger = "ledger"
	FormatLines  = "lines"
)

// LedgerParser parses CSV files with the header date,account,type,amount.
type LedgerParser struct{}

const (
	ledgerNumFields = 4
	ledgerColDate   = 0
	ledgerColAcct   = 1
	ledgerColType   = 2
	ledgerColAmount = 3
)

// Format returns the parser name.
func (p *LedgerParser) Format() string { return FormatLedger }

// Parse reads a ledger CSV. A malformed field fails the whole file;
// business rules are left to the processor.
func (p *LedgerParser) Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = ledgerNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := parseFields(i+2, rec[ledgerColDate], rec[ledgerColAcct], rec[ledgerColType], rec[ledgerColAmount])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LineParser parses whitespace-separated "<YYYYMMDD> <account> <type>
// <amount>" lines. Blank lines and lines starting with # are skipped.
type LineParser struct{}

// Format returns the parser name.
func (p *LineParser) Format() string { return FormatLines }

// Parse reads transaction lines.
func (p *LineParser) Parse(r io.Reader) ([]Row, error) {
	var rows []Row
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts, err := input.Fields(line, ledgerNumFields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		row, err := parseFields(n, parts[0], parts[1], parts[2], parts[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}
	return rows, nil
}

func parseFields(line int, date, account, typ, amount string) (Row, error) {
	d, err := input.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return Row{}, err
	}
	a, err := input.ParseAmount(strings.TrimSpace(amount))
	if err != nil {
		return Row{}, err
	}
	return Row{
		Line: line,
		Request: transactions.Request{
			Date:     d,
			Account:  strings.TrimSpace(account),
			TypeCode: strings.TrimSpace(typ),
			Amount:   a,
		},
	}, nil
}

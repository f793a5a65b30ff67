// Command settle computes balances and a settlement plan for a ledger read
// from a JSON file or stdin, without a server or a store.
//
//	settle [-json] [-payments] [-validate] [-log-level LEVEL] [FILE]
//
// The input document lists the roster in order and the active transactions:
//
//	{
//	  "members": [{"id": "a", "name": "Alice"}, {"id": "b", "name": "Bob"}],
//	  "transactions": [{"kind": "EXPENSE", "payer_id": "a", "amount": "60",
//	    "currency": "USD", "splits": [{"member_id": "a", "amount": "30"},
//	    {"member_id": "b", "amount": "30"}]}]
//	}
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/report"
	"github.com/mmynk/tabsettle/internal/validation"
	"github.com/mmynk/tabsettle/pkg/logging"
)

const offlineGroupID = "offline"

type member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type document struct {
	Members      []member             `json:"members"`
	Transactions []models.Transaction `json:"transactions"`
}

type balanceOutput struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	Currency   string `json:"currency"`
	Spent      string `json:"spent"`
	Owed       string `json:"owed"`
	Net        string `json:"net"`
}

type settlementOutput struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type output struct {
	Balances    []balanceOutput    `json:"balances"`
	Settlements []settlementOutput `json:"settlements"`
	Lines       []string           `json:"lines"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		slog.Error("settle failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("settle", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print balances and settlements as JSON")
	payments := fs.Bool("payments", false, "count recorded payments towards balances")
	validate := fs.Bool("validate", false, "reject transactions that would be refused at entry")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.SetupWithLevel(logging.ParseLevel(*logLevel))

	in := stdin
	if fs.NArg() > 1 {
		return errors.New("at most one input file may be given")
	}
	if path := fs.Arg(0); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	var doc document
	if err := json.NewDecoder(in).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}
	slog.Debug("Input loaded", "members", len(doc.Members), "transactions", len(doc.Transactions))

	names := make(report.Names, len(doc.Members))
	group := &models.Group{ID: offlineGroupID, Active: true}
	for _, m := range doc.Members {
		if m.ID == "" {
			return errors.New("member with empty id")
		}
		names[m.ID] = m.Name
		group.MemberIDs = append(group.MemberIDs, m.ID)
	}

	for i, tx := range doc.Transactions {
		if tx.Kind != models.KindExpense && tx.Kind != models.KindPayment {
			return fmt.Errorf("transactions[%d]: kind must be %s or %s, got %q", i, models.KindExpense, models.KindPayment, tx.Kind)
		}
	}

	if *validate {
		val := validation.New()
		for i := range doc.Transactions {
			tx := doc.Transactions[i]
			if tx.GroupID == "" {
				tx.GroupID = offlineGroupID
			}
			if err := val.Transaction(&tx, group); err != nil {
				return fmt.Errorf("transactions[%d]: %w", i, err)
			}
		}
	}

	var opts []calculator.AggregateOption
	if *payments {
		opts = append(opts, calculator.WithPayments())
	}
	balances, err := calculator.Aggregate(group.MemberIDs, doc.Transactions, opts...)
	if err != nil {
		return fmt.Errorf("failed to aggregate balances: %w", err)
	}
	settlements := calculator.Plan(balances)
	lines := report.Lines(names, balances, settlements)

	if !*asJSON {
		for _, line := range lines {
			if _, err := fmt.Fprintln(stdout, line); err != nil {
				return err
			}
		}
		return nil
	}

	out := output{
		Balances:    make([]balanceOutput, 0, len(balances)),
		Settlements: make([]settlementOutput, 0, len(settlements)),
		Lines:       lines,
	}
	for _, b := range balances {
		out.Balances = append(out.Balances, balanceOutput{
			MemberID:   b.MemberID,
			MemberName: names.Name(b.MemberID),
			Currency:   b.Currency.String(),
			Spent:      b.Spent.String(),
			Owed:       b.Owed.String(),
			Net:        b.Net.String(),
		})
	}
	for _, s := range settlements {
		out.Settlements = append(out.Settlements, settlementOutput{
			From:     s.From,
			To:       s.To,
			Amount:   s.Amount.String(),
			Currency: s.Currency.String(),
		})
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

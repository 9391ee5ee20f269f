package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"pennywise/internal/chat"
	"pennywise/internal/client"
	"pennywise/internal/extraction"
	"pennywise/internal/imports"
)

const help = `Commands:
  /budget <id>         scope questions and imports to a budget
  /import <file>       extract transactions from a CSV or PDF statement and import them
  /history             show the conversation
  /clear               start a new conversation
  /quit                exit
Anything else is sent to the assistant.`

// documentAPI is the subset of the API client the REPL uses.
type documentAPI interface {
	ProcessDocument(ctx context.Context, creds client.Credentials, req client.DocumentRequest) ([]extraction.Candidate, error)
	BulkImport(ctx context.Context, creds client.Credentials, req client.ImportRequest) (*imports.Result, error)
}

type repl struct {
	api      documentAPI
	creds    client.Credentials
	session  *chat.Session
	budgetID *uint
	in       io.Reader
	out      io.Writer
	readFile func(name string) ([]byte, error)

	scanner *bufio.Scanner
}

func (r *repl) run(ctx context.Context) error {
	r.scanner = bufio.NewScanner(r.in)
	r.scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	fmt.Fprintln(r.out, "Ask about your spending. Type /help for commands.")

	for {
		fmt.Fprint(r.out, "> ")
		line, ok := r.readLine()
		if !ok {
			fmt.Fprintln(r.out)
			return r.scanner.Err()
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}
		r.ask(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) readLine() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.scanner.Text()), true
}

func (r *repl) command(ctx context.Context, line string) (quit bool) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, help)
	case "/clear":
		r.session.Clear()
		fmt.Fprintln(r.out, "Conversation cleared.")
	case "/history":
		for _, m := range r.session.Messages() {
			fmt.Fprintf(r.out, "[%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.Role, m.Content)
		}
	case "/budget":
		id, err := parseBudgetID(arg)
		if err != nil {
			fmt.Fprintf(r.out, "Invalid budget id %q.\n", arg)
			return false
		}
		r.budgetID = &id
		fmt.Fprintf(r.out, "Using budget %d.\n", id)
	case "/import":
		if err := r.importFile(ctx, arg); err != nil {
			fmt.Fprintf(r.out, "Import failed: %v\n", err)
		}
	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help.\n", name)
	}
	return false
}

func (r *repl) ask(ctx context.Context, question string) {
	if err := r.session.Send(ctx, question, r.budgetID); err != nil {
		if errors.Is(err, chat.ErrInvalidQuestion) {
			fmt.Fprintln(r.out, "Questions must be between 1 and 1000 characters.")
			return
		}
		fmt.Fprintf(r.out, "Sorry, that didn't work: %v\n", err)
		return
	}

	msgs := r.session.Messages()
	reply := msgs[len(msgs)-1]
	fmt.Fprintln(r.out, reply.Content)
	if reply.Data != nil {
		if b, err := json.MarshalIndent(reply.Data, "  ", "  "); err == nil {
			fmt.Fprintf(r.out, "  %s\n", b)
		}
	}
}

func (r *repl) importFile(ctx context.Context, path string) error {
	if r.budgetID == nil {
		return errors.New("choose a budget first with /budget <id>")
	}
	if path == "" {
		return errors.New("usage: /import <file>")
	}
	raw, err := r.readFile(path)
	if err != nil {
		return err
	}

	doc := client.DocumentRequest{BudgetID: *r.budgetID}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		doc.Format = string(extraction.FormatPDF)
		doc.Content = base64.StdEncoding.EncodeToString(raw)
	default:
		doc.Format = string(extraction.FormatCSV)
		doc.Content = string(raw)
	}

	candidates, err := r.api.ProcessDocument(ctx, r.creds, doc)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Fprintln(r.out, "No transactions found in that document.")
		return nil
	}

	for i, c := range candidates {
		fmt.Fprintf(r.out, "%3d  %s  %-7s %10s  %s\n", i+1, c.Date, c.Type, c.Amount.StringFixed(2), c.Description)
	}
	fmt.Fprintf(r.out, "Import %d transactions? [y/N] ", len(candidates))
	answer, ok := r.readLine()
	if !ok || !strings.EqualFold(answer, "y") {
		fmt.Fprintln(r.out, "Nothing imported.")
		return nil
	}

	rows := make([]imports.Row, len(candidates))
	for i, c := range candidates {
		rows[i] = imports.Row{Type: string(c.Type), Amount: c.Amount, Description: c.Description, Date: c.Date}
	}
	result, err := r.api.BulkImport(ctx, r.creds, client.ImportRequest{BudgetID: *r.budgetID, Transactions: rows})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && len(apiErr.Details) > 0 {
			return fmt.Errorf("%w\n%s", err, apiErr.Details)
		}
		return err
	}
	if result.Duplicate {
		fmt.Fprintf(r.out, "These %d transactions were already imported.\n", result.Created)
		return nil
	}
	fmt.Fprintf(r.out, "Imported %d transactions.\n", result.Created)
	return nil
}

package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iota-uz/inventory-sync/modules/inventory/domain"
)

// Approver answers the commit question for a batch of new entries. The
// interface exists so scenario tests can inject a fixed decision.
type Approver interface {
	Approve(ctx context.Context, prompt string) (bool, error)
}

// StdinApprover asks the operator on the terminal. Only a trimmed,
// case-insensitive "yes" approves; anything else, including EOF or a read
// error, rejects.
type StdinApprover struct {
	In  io.Reader
	Out io.Writer
}

func NewStdinApprover() *StdinApprover {
	return &StdinApprover{In: os.Stdin, Out: os.Stdout}
}

func (a *StdinApprover) Approve(_ context.Context, prompt string) (bool, error) {
	fmt.Fprintf(a.Out, "%s [yes/no]: ", prompt)
	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, nil
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes"), nil
}

// AutoApprover approves unconditionally; it backs the --yes flag for
// unattended runs.
type AutoApprover struct{}

func (AutoApprover) Approve(context.Context, string) (bool, error) {
	return true, nil
}

// WriteReviewArtifact persists the new-entry set as a CSV the operator can
// open before answering the prompt. Columns follow the workbook schema; the
// identity key is derived data and stays out of the artifact.
func WriteReviewArtifact(dir string, entries []domain.KeyedRecord) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("new_entries_for_review_%s.csv", time.Now().Format(archiveStampLayout)))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create review artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(domain.Columns()); err != nil {
		return "", fmt.Errorf("failed to write review header: %w", err)
	}
	for _, entry := range entries {
		row := make([]string, 0, len(domain.Columns()))
		for _, col := range domain.Columns() {
			row = append(row, entry.Record[col])
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write review row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush review artifact: %w", err)
	}
	return path, nil
}

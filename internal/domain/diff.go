package domain

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// diffContext is the number of unchanged lines around each hunk.
const diffContext = 3

func (o *orchestrator) Diff(ctx context.Context, w io.Writer) error {
	id := o.opts.gistID()
	if id == "" {
		o.notifyMissing(ctx, labelGistID)
		return ErrMissingMandatory
	}

	doc, err := o.gateway().Fetch(ctx, id)
	if err != nil {
		o.Sink.Error(ctx, fmt.Sprintf("Error retrieving your settings. (%s)", TranslateError(err)))
		return fmt.Errorf("fetch gist: %w", err)
	}

	local, err := o.backupFiles(ctx)
	if err != nil {
		return fmt.Errorf("assemble backup: %w", err)
	}

	names := make([]string, 0, len(local))
	for name := range local {
		names = append(names, name)
	}

	sort.Strings(names)

	changed := 0

	for _, name := range names {
		remote := doc.Files[name]
		if remote == local[name] {
			continue
		}

		changed++

		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(remote),
			B:        difflib.SplitLines(local[name]),
			FromFile: "gist/" + name,
			ToFile:   "local/" + name,
			Context:  diffContext,
		})
		if err != nil {
			return fmt.Errorf("diff %s: %w", name, err)
		}

		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
	}

	if changed == 0 {
		_, err := fmt.Fprintln(w, "No differences between the local settings and the backup.")
		return err
	}

	return nil
}

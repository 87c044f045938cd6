package cli

import (
	"context"
	"errors"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/rshade/youseo/internal/cache"
)

// namespaceOp is a per-namespace management operation returning a count.
type namespaceOp func(ctx context.Context, ns cache.Namespace) (int, error)

// forEachNamespace runs op over every namespace of m and sums the counts.
// A progress bar is drawn on w when it is a terminal.
func forEachNamespace(ctx context.Context, w io.Writer, m *cache.Manager, description string, op namespaceOp) (int, error) {
	namespaces := m.Namespaces()

	var bar *progressbar.ProgressBar
	if isWriterTerminal(w) {
		bar = progressbar.NewOptions(len(namespaces),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionClearOnFinish(),
		)
	}

	total := 0
	var errs []error
	for _, ns := range namespaces {
		n, err := op(ctx, ns)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return total, errors.Join(errs...)
}

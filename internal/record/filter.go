package record

import (
	"context"
	"errors"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/internal/timeline"
)

// Classifier decides whether text carries a marker of interest.
type Classifier interface {
	Classify(text string) (string, bool)
}

// Filter passes records whose data matches the classifier and whose time
// lies in the closed interval [Begin, End]. Nil bounds are open; a record
// without time fails any bounded interval.
type Filter struct {
	Classifier Classifier
	Begin      *float64
	End        *float64
}

// Match applies the filter to one record.
func (f Filter) Match(r Record) bool {
	if f.Classifier != nil {
		if _, ok := f.Classifier.Classify(r.Data); !ok {
			return false
		}
	}
	return timeline.InRange(r.Time, f.Begin, f.End)
}

// FilterStats summarizes one filter pass.
type FilterStats struct {
	Read      int
	Kept      int
	Malformed int
}

// Copy streams records from r to w through f. Malformed lines are logged
// and skipped; read and write failures stop the copy.
func Copy(ctx context.Context, r *Reader, w *Writer, f Filter) (FilterStats, error) {
	var stats FilterStats
	for rec, err := range r.All() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		if err != nil {
			if isMalformed(err) {
				stats.Malformed++
				log.GetLogger().WithError(err).Warn("skipping malformed record")
				continue
			}
			return stats, err
		}

		stats.Read++
		if !f.Match(rec) {
			continue
		}
		if err := w.Write(rec); err != nil {
			return stats, err
		}
		stats.Kept++
	}
	return stats, w.Flush()
}

func isMalformed(err error) bool {
	return errors.Is(err, core.ErrRecordMalformed)
}

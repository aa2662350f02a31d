package task

import "github.com/seantiz/warden/internal/model"

// historyRing is a bounded, newest-first log of run records. It is not
// safe for concurrent use on its own; the owning Runner's mutex guards it.
type historyRing struct {
	limit   int
	records []*model.RunRecord
}

func newHistoryRing(limit int) *historyRing {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &historyRing{limit: limit}
}

// record inserts rec at the front, evicting from the back when over capacity.
func (h *historyRing) record(rec *model.RunRecord) {
	h.records = append([]*model.RunRecord{rec}, h.records...)
	if len(h.records) > h.limit {
		h.records = h.records[:h.limit]
	}
}

// snapshot returns value copies of the records, newest first. Mutating the
// returned slice has no effect on the ring.
func (h *historyRing) snapshot() []model.RunRecord {
	out := make([]model.RunRecord, len(h.records))
	for i, rec := range h.records {
		out[i] = *rec
	}
	return out
}

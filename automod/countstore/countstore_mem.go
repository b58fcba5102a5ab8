package countstore

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// In-process CountStore. Safe for concurrent use; events for the same guild are counted from many workers at once.
type MemCountStore struct {
	Counts *xsync.MapOf[string, int]
}

var _ CountStore = (*MemCountStore)(nil)

func NewMemCountStore() *MemCountStore {
	return &MemCountStore{
		Counts: xsync.NewMapOf[string, int](),
	}
}

func (s *MemCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	v, _ := s.Counts.Load(periodBucket(name, val, period))
	return v, nil
}

func (s *MemCountStore) Increment(ctx context.Context, name, val string) error {
	for _, p := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		s.Counts.Compute(periodBucket(name, val, p), func(old int, loaded bool) (int, bool) {
			return old + 1, false
		})
	}
	return nil
}

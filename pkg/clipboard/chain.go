package clipboard

import (
	"context"
	stderrors "errors"
	"strings"

	"clipkind/pkg/logger"
)

// chain tries each source in order on Open and keeps the first that opens.
type chain struct {
	sources []Source
}

func (c *chain) Name() string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "|")
}

func (c *chain) Sequence() (int64, bool) {
	for _, s := range c.sources {
		if n, ok := s.Sequence(); ok {
			return n, true
		}
	}
	return 0, false
}

// Open falls through to the next backend only when one is absent from the
// session (ErrBackendAbsent). Any other failure, contention included, is
// returned as is. The chain never retries a backend.
func (c *chain) Open(ctx context.Context) (Snapshot, error) {
	var errs []error
	for _, s := range c.sources {
		snap, err := s.Open(ctx)
		if err == nil {
			return snap, nil
		}
		if !stderrors.Is(err, ErrBackendAbsent) {
			logger.Debug().Err(err).Str("source", s.Name()).Msg("clipboard backend failed")
			return nil, err
		}
		logger.Debug().Err(err).Str("source", s.Name()).Msg("clipboard backend absent, trying next")
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, stderrors.Join(errs...)
}

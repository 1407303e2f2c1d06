package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/knowsphere/knowsphere/internal/db"
)

// SCardMulti returns the cardinality of each set in a single DoMulti round-trip.
// Missing keys count as empty sets.
func (s *Store) SCardMulti(ctx context.Context, keys []string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make(rueidis.Commands, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Scard().Key(key).Build()
	}

	out := make([]int64, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		n, err := res.AsInt64()
		if err != nil {
			return nil, &db.Error{Op: db.OpSCard, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = n
	}
	return out, nil
}

// SMove adds member to every key in addTo and removes it from every key in
// removeFrom, only while guard exists. Check and writes are atomic; the result
// reports whether guard was present.
func (s *Store) SMove(ctx context.Context, guard, member string, addTo, removeFrom []string) (bool, error) {
	keys := make([]string, 0, 1+len(addTo)+len(removeFrom))
	keys = append(keys, guard)
	keys = append(keys, addTo...)
	keys = append(keys, removeFrom...)

	n, err := smoveIfExistsScript.Exec(ctx, s.client, keys, []string{member, strconv.Itoa(len(addTo))}).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Err: err}
	}
	return n == 1, nil
}

package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knowsphere/knowsphere/internal/db"
	"github.com/knowsphere/knowsphere/internal/domain"
	dominsight "github.com/knowsphere/knowsphere/internal/domain/insight"
)

// Hash field names.
const (
	fieldID         = "id"
	fieldAuthor     = "author_id"
	fieldTitle      = "title"
	fieldBody       = "body"
	fieldTags       = "tags"
	fieldVisibility = "visibility"
	fieldHidden     = "hidden"
	fieldCreatedAt  = "created_at"
	fieldEmbedding  = "embedding"
)

// store is the consumer interface for insights (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string, limit int) ([]string, error)
	SCardMulti(ctx context.Context, keys []string) ([]int64, error)
	SMove(ctx context.Context, guard, member string, addTo, removeFrom []string) (bool, error)
}

// Repo stores insights as hashes and votes as per-direction sets of user IDs.
type Repo struct {
	store  store
	prefix string
}

// New creates an insight repository. prefix namespaces every key (e.g. "knowsphere:").
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Save writes all insight fields. Votes are untouched.
func (r *Repo) Save(ctx context.Context, in *dominsight.Insight) error {
	key := r.insightKey(in.ID())
	if err := r.store.HSet(ctx, key, encode(in)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns an insight with its vote counts.
func (r *Repo) Get(ctx context.Context, id string) (dominsight.Insight, error) {
	key := r.insightKey(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return dominsight.Insight{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if fields[fieldID] == "" {
		// Missing, or a partial hash without its identity.
		return dominsight.Insight{}, domain.ErrNotFound
	}

	counts, err := r.store.SCardMulti(ctx, []string{r.upKey(id), r.downKey(id)})
	if err != nil {
		return dominsight.Insight{}, fmt.Errorf("vote counts %s: %w", id, err)
	}

	return decode(fields, counts[0], counts[1])
}

// List returns up to limit stored insights in no particular order (limit <= 0: all).
// Undecodable entries are skipped.
func (r *Repo) List(ctx context.Context, limit int) ([]dominsight.Insight, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"insight:*", limit)
	if err != nil {
		return nil, fmt.Errorf("scan insights: %w", err)
	}
	if len(keys) == 0 {
		return []dominsight.Insight{}, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load insights: %w", err)
	}

	voteKeys := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, r.prefix+"insight:")
		voteKeys = append(voteKeys, r.upKey(id), r.downKey(id))
	}
	counts, err := r.store.SCardMulti(ctx, voteKeys)
	if err != nil {
		return nil, fmt.Errorf("load vote counts: %w", err)
	}

	out := make([]dominsight.Insight, 0, len(hashes))
	for i, fields := range hashes {
		if fields[fieldID] == "" {
			continue // deleted between SCAN and HGETALL
		}
		in, err := decode(fields, counts[2*i], counts[2*i+1])
		if err != nil {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

// SetHidden flips the moderation flag.
func (r *Repo) SetHidden(ctx context.Context, id string, hidden bool) error {
	key := r.insightKey(id)
	ok, err := r.store.HSetIfExists(ctx, key, map[string]string{fieldHidden: boolField(hidden)})
	if err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// Vote records userID's vote: 1 up, -1 down, 0 retracts.
func (r *Repo) Vote(ctx context.Context, id, userID string, value int) error {
	up, down := r.upKey(id), r.downKey(id)
	var addTo, removeFrom []string
	switch value {
	case 1:
		addTo, removeFrom = []string{up}, []string{down}
	case -1:
		addTo, removeFrom = []string{down}, []string{up}
	case 0:
		removeFrom = []string{up, down}
	default:
		return fmt.Errorf("%w: value must be -1, 0 or 1", domain.ErrInvalidVote)
	}

	ok, err := r.store.SMove(ctx, r.insightKey(id), userID, addTo, removeFrom)
	if err != nil {
		return fmt.Errorf("vote %s: %w", id, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an insight and its votes.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.insightKey(id)
	if err := r.mustExist(ctx, key); err != nil {
		return err
	}
	if err := r.store.Del(ctx, key, r.upKey(id), r.downKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) mustExist(ctx context.Context, key string) error {
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) insightKey(id string) string { return r.prefix + "insight:" + id }
func (r *Repo) upKey(id string) string      { return r.prefix + "votes:" + id + ":up" }
func (r *Repo) downKey(id string) string    { return r.prefix + "votes:" + id + ":down" }

func encode(in *dominsight.Insight) map[string]string {
	return map[string]string{
		fieldID:         in.ID(),
		fieldAuthor:     in.AuthorID(),
		fieldTitle:      in.Title(),
		fieldBody:       in.Body(),
		fieldTags:       strings.Join(in.Tags(), ","),
		fieldVisibility: string(in.Visibility()),
		fieldHidden:     boolField(in.Hidden()),
		fieldCreatedAt:  in.CreatedAt().UTC().Format(time.RFC3339Nano),
		fieldEmbedding:  string(db.VectorToBytes(in.Embedding())),
	}
}

func decode(fields map[string]string, up, down int64) (dominsight.Insight, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return dominsight.Insight{}, fmt.Errorf("parse created_at of %s: %w", fields[fieldID], err)
	}

	embedding, err := db.BytesToVector([]byte(fields[fieldEmbedding]))
	if err != nil {
		return dominsight.Insight{}, fmt.Errorf("parse embedding of %s: %w", fields[fieldID], err)
	}

	var tags []string
	if raw := fields[fieldTags]; raw != "" {
		tags = strings.Split(raw, ",")
	}

	return dominsight.Reconstruct(
		fields[fieldID], fields[fieldAuthor], fields[fieldTitle], fields[fieldBody], tags,
		dominsight.Visibility(fields[fieldVisibility]), fields[fieldHidden] == "1", createdAt,
		embedding, int(up), int(down),
	), nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

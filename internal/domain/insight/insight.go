package insight

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/knowsphere/knowsphere/internal/domain/relevance"
)

// Limits on author-supplied fields.
const (
	MaxTitleLen = 200
	MaxBodyLen  = 20000
	MaxTags     = 10
	MaxTagLen   = 40
)

// Visibility controls who may see an insight.
type Visibility string

const (
	// Public insights are listed and ranked.
	Public Visibility = "public"
	// Private insights are only reachable by their author and never ranked.
	Private Visibility = "private"
)

// Insight is the insight aggregate (immutable value object).
type Insight struct {
	id         string
	authorID   string
	title      string
	body       string
	tags       []string
	visibility Visibility
	hidden     bool
	createdAt  time.Time
	embedding  []float32
	upvotes    int
	downvotes  int
}

// New validates and creates an Insight. Tags are normalized with NormalizeTags.
func New(
	id, authorID, title, body string, tags []string,
	visibility Visibility, createdAt time.Time,
) (Insight, error) {
	if id == "" {
		return Insight{}, fmt.Errorf("insight ID is required")
	}
	if authorID == "" {
		return Insight{}, fmt.Errorf("author is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Insight{}, fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return Insight{}, fmt.Errorf("title too long (max %d characters)", MaxTitleLen)
	}
	if strings.TrimSpace(body) == "" {
		return Insight{}, fmt.Errorf("body is required")
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return Insight{}, fmt.Errorf("body too long (max %d characters)", MaxBodyLen)
	}
	switch visibility {
	case "":
		visibility = Public
	case Public, Private:
	default:
		return Insight{}, fmt.Errorf("unknown visibility %q", visibility)
	}

	normalized, err := NormalizeTags(tags)
	if err != nil {
		return Insight{}, err
	}

	return Insight{
		id:         id,
		authorID:   authorID,
		title:      title,
		body:       body,
		tags:       normalized,
		visibility: visibility,
		createdAt:  createdAt.UTC(),
	}, nil
}

// Reconstruct creates an Insight without validation (storage hydration).
func Reconstruct(
	id, authorID, title, body string, tags []string,
	visibility Visibility, hidden bool, createdAt time.Time,
	embedding []float32, upvotes, downvotes int,
) Insight {
	return Insight{
		id: id, authorID: authorID, title: title, body: body, tags: tags,
		visibility: visibility, hidden: hidden, createdAt: createdAt,
		embedding: embedding, upvotes: upvotes, downvotes: downvotes,
	}
}

// NormalizeTags lowercases, trims and deduplicates tags, keeping first-seen order.
// Empty tags are dropped.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if strings.ContainsRune(t, ',') {
			return nil, fmt.Errorf("tag %q must not contain commas", t)
		}
		if utf8.RuneCountInString(t) > MaxTagLen {
			return nil, fmt.Errorf("tag %q too long (max %d characters)", t, MaxTagLen)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("too many tags (max %d)", MaxTags)
	}
	return out, nil
}

// SanitizeTags is the lenient form of NormalizeTags for machine-suggested tags:
// tags that NormalizeTags would reject are dropped individually and the result
// is capped at MaxTags.
func SanitizeTags(tags []string) []string {
	out := make([]string, 0, min(len(tags), MaxTags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if len(out) == MaxTags {
			break
		}
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || strings.ContainsRune(t, ',') || utf8.RuneCountInString(t) > MaxTagLen {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ID returns the insight identifier.
func (i *Insight) ID() string { return i.id }

// AuthorID returns the author's user ID.
func (i *Insight) AuthorID() string { return i.authorID }

// Title returns the insight title.
func (i *Insight) Title() string { return i.title }

// Body returns the insight body.
func (i *Insight) Body() string { return i.body }

// Tags returns the normalized tags.
func (i *Insight) Tags() []string { return i.tags }

// Visibility returns the visibility setting.
func (i *Insight) Visibility() Visibility { return i.visibility }

// Hidden reports whether a moderator hid the insight.
func (i *Insight) Hidden() bool { return i.hidden }

// CreatedAt returns the creation time in UTC.
func (i *Insight) CreatedAt() time.Time { return i.createdAt }

// Embedding returns the embedding vector (may be empty).
func (i *Insight) Embedding() []float32 { return i.embedding }

// Upvotes returns the number of upvotes.
func (i *Insight) Upvotes() int { return i.upvotes }

// Downvotes returns the number of downvotes.
func (i *Insight) Downvotes() int { return i.downvotes }

// Visible reports whether the insight may be shown to and ranked for other users.
func (i *Insight) Visible() bool { return i.visibility == Public && !i.hidden }

// Text is the input for embedding and tag suggestion.
func (i *Insight) Text() string { return i.title + "\n\n" + i.body }

// WithTags returns a copy with normalized tags replaced.
func (i *Insight) WithTags(tags []string) (Insight, error) {
	normalized, err := NormalizeTags(tags)
	if err != nil {
		return Insight{}, err
	}
	c := *i
	c.tags = normalized
	return c, nil
}

// WithEmbedding returns a copy with the given embedding.
func (i *Insight) WithEmbedding(v []float32) Insight {
	c := *i
	c.embedding = v
	return c
}

// Item projects the insight into the ranking engine's input.
func (i *Insight) Item() relevance.Item {
	return relevance.Item{
		ID:        i.id,
		Tags:      i.tags,
		Embedding: i.embedding,
		CreatedAt: i.createdAt,
		Upvotes:   i.upvotes,
		Downvotes: i.downvotes,
	}
}

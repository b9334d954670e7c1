package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"breadit/models"
	"breadit/repository"
)

var errStoreDown = errors.New("store unreachable")

type memLedger struct {
	mu      sync.Mutex
	votes   map[[2]string]models.VoteType
	failAll bool
	failLst bool
}

func newMemLedger() *memLedger {
	return &memLedger{votes: map[[2]string]models.VoteType{}}
}

func (l *memLedger) Find(_ context.Context, userID, postID string) (*models.Vote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll {
		return nil, errStoreDown
	}
	t, ok := l.votes[[2]string{userID, postID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.Vote{UserID: userID, PostID: postID, Type: t}, nil
}

func (l *memLedger) Upsert(_ context.Context, v *models.Vote) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll {
		return errStoreDown
	}
	l.votes[[2]string{v.UserID, v.PostID}] = v.Type
	return nil
}

func (l *memLedger) DeleteIfType(_ context.Context, userID, postID string, t models.VoteType) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll {
		return false, errStoreDown
	}
	key := [2]string{userID, postID}
	if cur, ok := l.votes[key]; ok && cur == t {
		delete(l.votes, key)
		return true, nil
	}
	return false, nil
}

func (l *memLedger) ListByPost(_ context.Context, postID string) ([]models.Vote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAll || l.failLst {
		return nil, errStoreDown
	}
	var out []models.Vote
	for k, t := range l.votes {
		if k[1] == postID {
			out = append(out, models.Vote{UserID: k[0], PostID: k[1], Type: t})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (l *memLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.votes)
}

// memPosts 读取帖子时从 ledger 取投票，与 gorm Preload 一致
type memPosts struct {
	mu     sync.Mutex
	posts  map[string]models.Post
	ledger *memLedger
	fail   bool
}

func newMemPosts(ledger *memLedger) *memPosts {
	return &memPosts{posts: map[string]models.Post{}, ledger: ledger}
}

func (p *memPosts) add(post models.Post) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts[post.ID] = post
}

func (p *memPosts) Create(_ context.Context, post *models.Post) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errStoreDown
	}
	p.posts[post.ID] = *post
	return nil
}

func (p *memPosts) FindWithVotes(ctx context.Context, id string) (*models.Post, error) {
	p.mu.Lock()
	if p.fail {
		p.mu.Unlock()
		return nil, errStoreDown
	}
	post, ok := p.posts[id]
	p.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	votes, err := p.ledger.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Votes = votes
	return &post, nil
}

type memCache struct {
	mu       sync.Mutex
	snaps    map[string]models.CachedPost
	versions map[string]int64
	tombs    map[string]int64
	writes   int
	evicts   int
	fail     bool
}

func newMemCache() *memCache {
	return &memCache{snaps: map[string]models.CachedPost{}, versions: map[string]int64{}, tombs: map[string]int64{}}
}

func (c *memCache) Read(_ context.Context, postID string) (*models.CachedPost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, errStoreDown
	}
	snap, ok := c.snaps[postID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &snap, nil
}

func (c *memCache) Write(_ context.Context, snap *models.CachedPost, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errStoreDown
	}
	c.writes++
	c.snaps[snap.ID] = *snap
	return nil
}

func (c *memCache) WriteIfNewer(_ context.Context, snap *models.CachedPost, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return false, errStoreDown
	}
	if c.storedVersion(snap.ID) >= snap.Version {
		return false, nil
	}
	c.writes++
	delete(c.tombs, snap.ID)
	c.snaps[snap.ID] = *snap
	return true, nil
}

func (c *memCache) EvictIfNewer(_ context.Context, postID string, version int64, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return false, errStoreDown
	}
	if c.storedVersion(postID) >= version {
		return false, nil
	}
	c.evicts++
	delete(c.snaps, postID)
	c.tombs[postID] = version
	return true, nil
}

// storedVersion 需持有 c.mu
func (c *memCache) storedVersion(postID string) int64 {
	if snap, ok := c.snaps[postID]; ok {
		return snap.Version
	}
	return c.tombs[postID]
}

func (c *memCache) NextVersion(_ context.Context, postID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return 0, errStoreDown
	}
	c.versions[postID]++
	return c.versions[postID], nil
}

func (c *memCache) Evict(_ context.Context, postID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errStoreDown
	}
	c.evicts++
	delete(c.snaps, postID)
	return nil
}

func (c *memCache) Top(_ context.Context, n int) ([]repository.RankedPost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, errStoreDown
	}
	var out []repository.RankedPost
	for id, s := range c.snaps {
		out = append(out, repository.RankedPost{ID: id, Score: int64(s.Score)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (c *memCache) snapshot(postID string) (models.CachedPost, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.snaps[postID]
	return s, ok
}

func (c *memCache) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []VoteEvent
	err    error
}

func (p *recordingPublisher) PublishVote(_ context.Context, e VoteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

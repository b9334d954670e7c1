package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"breadit/models"

	"github.com/go-redis/redis"
)

const rankKey = "rank:post:score"

// writeIfNewerScript 仅当缓存中的 version 小于新 version 时覆盖快照
// KEYS[1]=post:{id}  KEYS[2]=rank key
// ARGV[1]=version ARGV[2]=ttl(ms) ARGV[3]=post id ARGV[4]=score ARGV[5..]=field/value
var writeIfNewerScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
local fields = {}
for i = 5, #ARGV do
  fields[#fields + 1] = ARGV[i]
end
redis.call('DEL', KEYS[1])
redis.call('HMSET', KEYS[1], unpack(fields))
local ttl = tonumber(ARGV[2])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
redis.call('ZADD', KEYS[2], ARGV[4], ARGV[3])
return 1
`)

// evictIfNewerScript 仅当缓存中的 version 小于给定 version 时删除快照，
// 并留下只含 version 的墓碑，使更旧的条件写无法复活快照
// KEYS[1]=post:{id}  KEYS[2]=rank key
// ARGV[1]=version ARGV[2]=ttl(ms) ARGV[3]=post id
var evictIfNewerScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'version', ARGV[1])
redis.call('HSET', KEYS[1], 'deleted', '1')
local ttl = tonumber(ARGV[2])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
redis.call('ZREM', KEYS[2], ARGV[3])
return 1
`)

// RankedPost 排行榜中的一项
type RankedPost struct {
	ID    string
	Score int64
}

// PostCache 帖子快照缓存，只做按 postId 的覆盖写，不做读后合并
type PostCache struct {
	client *redis.Client
}

func NewPostCache(client *redis.Client) *PostCache {
	return &PostCache{client: client}
}

func snapshotKey(postID string) string {
	return "post:" + postID
}

func versionKey(postID string) string {
	return "post:" + postID + ":seq"
}

// Read 读取快照，缓存中没有时返回 ErrNotFound
func (c *PostCache) Read(ctx context.Context, postID string) (*models.CachedPost, error) {
	fields, err := c.client.WithContext(ctx).HGetAll(snapshotKey(postID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall snapshot: %w", err)
	}
	if len(fields) == 0 || fields["deleted"] == "1" {
		return nil, ErrNotFound
	}
	return decodeSnapshot(fields)
}

// Write 直接覆盖快照（last writer wins），并同步排行榜
func (c *PostCache) Write(ctx context.Context, snap *models.CachedPost, ttl time.Duration) error {
	key := snapshotKey(snap.ID)
	pipe := c.client.WithContext(ctx).TxPipeline()
	pipe.Del(key)
	pipe.HMSet(key, encodeSnapshot(snap))
	if ttl > 0 {
		pipe.PExpire(key, ttl)
	}
	pipe.ZAdd(rankKey, redis.Z{Score: float64(snap.Score), Member: snap.ID})
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("redis write snapshot: %w", err)
	}
	return nil
}

// WriteIfNewer 条件写：Version 不大于缓存中的版本时放弃写入并返回 false
func (c *PostCache) WriteIfNewer(ctx context.Context, snap *models.CachedPost, ttl time.Duration) (bool, error) {
	fields := encodeSnapshot(snap)
	args := []interface{}{snap.Version, ttl.Milliseconds(), snap.ID, snap.Score}
	for k, v := range fields {
		args = append(args, k, v)
	}

	res, err := writeIfNewerScript.Run(c.client.WithContext(ctx), []string{snapshotKey(snap.ID), rankKey}, args...).Result()
	if err != nil {
		return false, fmt.Errorf("redis conditional write snapshot: %w", err)
	}
	written, ok := res.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result %T", res)
	}
	return written == 1, nil
}

// NextVersion 为帖子分配下一个单调递增的快照版本号
func (c *PostCache) NextVersion(ctx context.Context, postID string) (int64, error) {
	v, err := c.client.WithContext(ctx).Incr(versionKey(postID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr snapshot version: %w", err)
	}
	return v, nil
}

// Evict 删除快照并移出排行榜
func (c *PostCache) Evict(ctx context.Context, postID string) error {
	pipe := c.client.WithContext(ctx).TxPipeline()
	pipe.Del(snapshotKey(postID))
	pipe.ZRem(rankKey, postID)
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("redis evict snapshot: %w", err)
	}
	return nil
}

// EvictIfNewer 带版本号的删除：version 不大于缓存中的版本时放弃并返回 false。
// 删除后保留墓碑，Read 视其为未命中
func (c *PostCache) EvictIfNewer(ctx context.Context, postID string, version int64, ttl time.Duration) (bool, error) {
	res, err := evictIfNewerScript.Run(c.client.WithContext(ctx), []string{snapshotKey(postID), rankKey}, version, ttl.Milliseconds(), postID).Result()
	if err != nil {
		return false, fmt.Errorf("redis conditional evict snapshot: %w", err)
	}
	evicted, ok := res.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result %T", res)
	}
	return evicted == 1, nil
}

// Top 返回按快照分数排序的前 n 个帖子
func (c *PostCache) Top(ctx context.Context, n int) ([]RankedPost, error) {
	if n <= 0 {
		return []RankedPost{}, nil
	}
	zres, err := c.client.WithContext(ctx).ZRevRangeWithScores(rankKey, 0, int64(n-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return []RankedPost{}, nil
		}
		return nil, fmt.Errorf("redis zrevrange rank: %w", err)
	}

	list := make([]RankedPost, 0, len(zres))
	for _, z := range zres {
		member, _ := z.Member.(string)
		list = append(list, RankedPost{ID: member, Score: int64(z.Score)})
	}
	return list, nil
}

func encodeSnapshot(snap *models.CachedPost) map[string]interface{} {
	return map[string]interface{}{
		"id":             snap.ID,
		"title":          snap.Title,
		"authorUsername": snap.AuthorUsername,
		"content":        snap.Content,
		"currentVote":    string(snap.CurrentVote),
		"score":          strconv.Itoa(snap.Score),
		"createdAt":      snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		"version":        strconv.FormatInt(snap.Version, 10),
	}
}

func decodeSnapshot(fields map[string]string) (*models.CachedPost, error) {
	snap := &models.CachedPost{
		ID:             fields["id"],
		Title:          fields["title"],
		AuthorUsername: fields["authorUsername"],
		Content:        fields["content"],
		CurrentVote:    models.VoteType(fields["currentVote"]),
	}

	if s := fields["score"]; s != "" {
		score, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("parse cached score: %w", err)
		}
		snap.Score = score
	}
	if s := fields["version"]; s != "" {
		version, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse cached version: %w", err)
		}
		snap.Version = version
	}
	if s := fields["createdAt"]; s != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("parse cached createdAt: %w", err)
		}
		snap.CreatedAt = createdAt
	}
	return snap, nil
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	commonredis "hms-listview/common/redis"
	"hms-listview/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MutationAction 可排队的变更类型
type MutationAction string

const (
	ActionCreate MutationAction = "create"
	ActionUpdate MutationAction = "update"
	ActionRemove MutationAction = "remove"
)

// QueuedRequest 离线期间暂存的一次变更
type QueuedRequest struct {
	RequestID string            `json:"request_id"`
	Entity    string            `json:"entity"`
	Action    MutationAction    `json:"action"`
	ItemID    string            `json:"item_id,omitempty"`
	Payload   map[string]any    `json:"payload,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	QueuedAt  time.Time         `json:"queued_at"`
}

// ReplayFunc 回放单条请求；返回错误时停止回放，该请求保留在队列中
type ReplayFunc func(ctx context.Context, req QueuedRequest) error

// Queue 离线变更队列（FIFO）
type Queue interface {
	Enqueue(ctx context.Context, req QueuedRequest) error
	Replay(ctx context.Context, fn ReplayFunc) (int, error)
	Len(ctx context.Context) (int64, error)
}

const (
	replayGroup     = "listview-replay"
	replayBatchSize = 50
)

// StreamQueue 基于 Redis Streams 的离线队列
type StreamQueue struct {
	client   *redis.Client
	stream   string
	consumer string
	logger   *zap.Logger
	mu       sync.Mutex // 同一进程内只允许一个回放
}

// NewStreamQueue 创建 Redis Streams 队列
func NewStreamQueue(client *redis.Client, stream, consumer string, logger *zap.Logger) *StreamQueue {
	if consumer == "" {
		consumer = "hms-listview"
	}
	return &StreamQueue{
		client:   client,
		stream:   stream,
		consumer: consumer,
		logger:   logger,
	}
}

func (q *StreamQueue) Enqueue(ctx context.Context, req QueuedRequest) error {
	id, err := commonredis.PublishJSONToStream(ctx, q.client, q.stream, req)
	if err != nil {
		return fmt.Errorf("enqueue %s %s: %w", req.Entity, req.Action, err)
	}
	q.logger.Info("Mutation queued for replay",
		zap.String("entity", req.Entity),
		zap.String("action", string(req.Action)),
		zap.String("item_id", req.ItemID),
		zap.String("request_id", req.RequestID),
		zap.String("stream_id", id),
	)
	return nil
}

// Replay 先处理上次未确认的消息，再处理新消息；成功的消息 ack 并删除
func (q *StreamQueue) Replay(ctx context.Context, fn ReplayFunc) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := commonredis.EnsureConsumerGroup(ctx, q.client, q.stream, replayGroup); err != nil {
		return 0, err
	}

	replayed := 0
	for _, start := range []string{"0", ">"} {
		for {
			msgs, err := commonredis.ReadFromStream(ctx, q.client, q.stream, replayGroup, q.consumer, start, replayBatchSize, -1)
			if err != nil {
				return replayed, fmt.Errorf("read offline queue: %w", err)
			}
			if len(msgs) == 0 {
				break
			}
			for _, msg := range msgs {
				var req QueuedRequest
				if err := json.Unmarshal([]byte(msg.Data()), &req); err != nil {
					// 无法解析的消息直接丢弃，否则会一直阻塞队列
					q.logger.Error("Dropping malformed queued request",
						zap.String("stream_id", msg.ID),
						zap.Error(err),
					)
					if err := commonredis.AckAndDelete(ctx, q.client, q.stream, replayGroup, msg.ID); err != nil {
						return replayed, err
					}
					continue
				}
				if err := fn(ctx, req); err != nil {
					q.logger.Warn("Replay stopped",
						zap.String("entity", req.Entity),
						zap.String("request_id", req.RequestID),
						zap.Error(err),
					)
					return replayed, err
				}
				if err := commonredis.AckAndDelete(ctx, q.client, q.stream, replayGroup, msg.ID); err != nil {
					return replayed, err
				}
				replayed++
			}
			if len(msgs) < replayBatchSize {
				break
			}
		}
	}
	return replayed, nil
}

func (q *StreamQueue) Len(ctx context.Context) (int64, error) {
	return commonredis.StreamLength(ctx, q.client, q.stream)
}

// MemoryQueue 进程内队列（无 Redis 时使用）
type MemoryQueue struct {
	mu    sync.Mutex
	items []QueuedRequest
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(_ context.Context, req QueuedRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, req)
	return nil
}

func (q *MemoryQueue) Replay(ctx context.Context, fn ReplayFunc) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	replayed := 0
	for len(q.items) > 0 {
		if err := fn(ctx, q.items[0]); err != nil {
			return replayed, err
		}
		q.items = q.items[1:]
		replayed++
	}
	return replayed, nil
}

func (q *MemoryQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

// Apply 把一条排队请求作用到 CRUD 上
func Apply(ctx context.Context, crud CRUD, req QueuedRequest) error {
	var err error
	switch req.Action {
	case ActionCreate:
		_, err = crud.Create(ctx, req.Payload)
	case ActionUpdate:
		_, err = crud.Update(ctx, req.ItemID, req.Payload)
	case ActionRemove:
		_, err = crud.Remove(ctx, req.ItemID)
	default:
		return fmt.Errorf("unknown queued action %q", req.Action)
	}
	return err
}

// OfflineCRUD 离线感知的 CRUD：离线或网络故障时把变更放入队列并返回 ErrQueued
// List/Get 直接透传
type OfflineCRUD struct {
	live    CRUD
	queue   Queue
	online  OnlineChecker
	entity  string
	headers map[string]string
	logger  *zap.Logger
	now     func() time.Time
}

func NewOfflineCRUD(live CRUD, queue Queue, online OnlineChecker, entity string, headers map[string]string, logger *zap.Logger) *OfflineCRUD {
	return &OfflineCRUD{
		live:    live,
		queue:   queue,
		online:  online,
		entity:  entity,
		headers: headers,
		logger:  logger,
		now:     time.Now,
	}
}

func (o *OfflineCRUD) List(ctx context.Context, params ListParams) (*ListResult, error) {
	return o.live.List(ctx, params)
}

func (o *OfflineCRUD) Get(ctx context.Context, id string) (domain.ListItem, error) {
	return o.live.Get(ctx, id)
}

func (o *OfflineCRUD) Create(ctx context.Context, payload map[string]any) (domain.ListItem, error) {
	return o.mutate(ctx, ActionCreate, "", payload)
}

func (o *OfflineCRUD) Update(ctx context.Context, id string, payload map[string]any) (domain.ListItem, error) {
	return o.mutate(ctx, ActionUpdate, id, payload)
}

func (o *OfflineCRUD) Remove(ctx context.Context, id string) (domain.ListItem, error) {
	return o.mutate(ctx, ActionRemove, id, nil)
}

func (o *OfflineCRUD) mutate(ctx context.Context, action MutationAction, id string, payload map[string]any) (domain.ListItem, error) {
	req := QueuedRequest{
		Entity:  o.entity,
		Action:  action,
		ItemID:  id,
		Payload: payload,
		Headers: o.headers,
	}

	if o.online == nil || o.online.Online() {
		item, err := o.dispatch(ctx, req)
		if err == nil || CodeOf(err) != domain.ErrNetwork {
			return item, err
		}
		o.logger.Warn("Mutation failed with network error, queueing",
			zap.String("entity", o.entity),
			zap.String("action", string(action)),
			zap.String("item_id", id),
			zap.Error(err),
		)
	}

	req.RequestID = uuid.New().String()
	req.QueuedAt = o.now().UTC()
	if err := o.queue.Enqueue(ctx, req); err != nil {
		return nil, fmt.Errorf("queue %s: %w", action, err)
	}
	return nil, ErrQueued
}

func (o *OfflineCRUD) dispatch(ctx context.Context, req QueuedRequest) (domain.ListItem, error) {
	switch req.Action {
	case ActionCreate:
		return o.live.Create(ctx, req.Payload)
	case ActionUpdate:
		return o.live.Update(ctx, req.ItemID, req.Payload)
	default:
		return o.live.Remove(ctx, req.ItemID)
	}
}

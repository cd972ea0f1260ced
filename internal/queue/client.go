package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vitrine-next/internal/config"
	"github.com/vitrine-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 核销类任务队列
	CriticalQueue = constants.QueueCritical

	defaultMaxRetry = 5
)

var (
	// ErrQueueDisabled 队列未启用
	ErrQueueDisabled = errors.New("queue disabled")
	// ErrTaskDuplicate 同一订单的任务仍在队列中，本次未入队
	ErrTaskDuplicate = errors.New("task already queued")
)

// enqueuer 是 asynq.Client 中用到的部分
type enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client 队列客户端封装
type Client struct {
	client   enqueuer
	enabled  bool
	maxRetry int
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig, maxRetry int) (*Client, error) {
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, maxRetry: maxRetry}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:   client,
		enabled:  true,
		maxRetry: maxRetry,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCouponRedeem 推送核销任务，同一订单号只会入队一次。
// 任务已存在时返回已有任务 ID 与 ErrTaskDuplicate。
func (c *Client) EnqueueCouponRedeem(payload CouponRedeemPayload, opts ...asynq.Option) (string, error) {
	if !c.Enabled() {
		return "", ErrQueueDisabled
	}
	task, err := NewCouponRedeemTask(payload)
	if err != nil {
		return "", err
	}
	return c.enqueue(task, taskID(TaskCouponRedeem, payload.Code, payload.OrderRef), opts...)
}

// EnqueueCouponRevoke 推送撤销任务
func (c *Client) EnqueueCouponRevoke(payload CouponRevokePayload, opts ...asynq.Option) (string, error) {
	if !c.Enabled() {
		return "", ErrQueueDisabled
	}
	task, err := NewCouponRevokeTask(payload)
	if err != nil {
		return "", err
	}
	return c.enqueue(task, taskID(TaskCouponRevoke, "", payload.OrderRef), opts...)
}

func (c *Client) enqueue(task *asynq.Task, id string, opts ...asynq.Option) (string, error) {
	options := []asynq.Option{asynq.Queue(CriticalQueue), asynq.MaxRetry(c.maxRetry)}
	if id != "" {
		options = append(options, asynq.TaskID(id))
	}
	options = append(options, opts...)
	info, err := c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return id, fmt.Errorf("%w: %s", ErrTaskDuplicate, id)
	}
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// taskID 订单号为空时不做去重
func taskID(taskType, code, orderRef string) string {
	orderRef = strings.TrimSpace(orderRef)
	if orderRef == "" {
		return ""
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fmt.Sprintf("%s:%s", taskType, orderRef)
	}
	return fmt.Sprintf("%s:%s:%s", taskType, code, orderRef)
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 6, DefaultQueue: 3}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}

package provider

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

type Options struct {
	MaxRetries       int
	BackoffFactor    float64
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	RequestTimeout   time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
	SaveInterval     time.Duration
}

func OptionsFromConfig(oc config.OrchestratorConfig, cc config.CacheConfig) Options {
	return Options{
		MaxRetries:       oc.MaxRetries,
		BackoffFactor:    oc.BackoffFactor,
		BaseDelay:        oc.BaseDelay,
		MaxDelay:         oc.MaxDelay,
		RequestTimeout:   oc.RequestTimeout,
		BreakerThreshold: oc.BreakerThreshold,
		BreakerReset:     oc.BreakerReset,
		SaveInterval:     cc.SaveInterval,
	}
}

// Orchestrator 按 主后端 → 备用后端 的顺序调用，每个后端带重试和退避，成功结果进缓存
type Orchestrator struct {
	providers []Provider
	breakers  []*Breaker
	opts      Options
	cache     *ResponseCache
	metrics   *Metrics

	sleep func(ctx context.Context, d time.Duration) error

	stopCh    chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewOrchestrator cache 和 metrics 可以为 nil
func NewOrchestrator(primary Provider, fallbacks []Provider, opts Options, cache *ResponseCache, metrics *Metrics) *Orchestrator {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.BackoffFactor <= 0 {
		opts.BackoffFactor = 2
	}
	providers := append([]Provider{primary}, fallbacks...)
	breakers := make([]*Breaker, len(providers))
	for i := range providers {
		breakers[i] = NewBreaker(opts.BreakerThreshold, opts.BreakerReset)
	}
	return &Orchestrator{
		providers: providers,
		breakers:  breakers,
		opts:      opts,
		cache:     cache,
		metrics:   metrics,
		sleep:     sleepCtx,
		stopCh:    make(chan struct{}),
	}
}

// ProviderStatus 后端名称和熔断状态
type ProviderStatus struct {
	Name        string `json:"name"`
	BreakerOpen bool   `json:"breaker_open"`
}

// Status 按调用顺序返回各后端的熔断状态
func (o *Orchestrator) Status() []ProviderStatus {
	out := make([]ProviderStatus, len(o.providers))
	for i, p := range o.providers {
		out[i] = ProviderStatus{Name: p.Name(), BreakerOpen: o.breakers[i].Open()}
	}
	return out
}

// Backoff 第 attempt 次（从 0 开始）失败后的等待时长
func (o *Orchestrator) Backoff(attempt int) time.Duration {
	d := float64(o.opts.BaseDelay) * math.Pow(o.opts.BackoffFactor, float64(attempt))
	if o.opts.MaxDelay > 0 && d > float64(o.opts.MaxDelay) {
		return o.opts.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

func (o *Orchestrator) Invoke(ctx context.Context, prompt string, opts ...InvokeOption) (Response, error) {
	var callOpts invokeOptions
	for _, opt := range opts {
		opt(&callOpts)
	}

	if o.cache != nil && !callOpts.skipCache {
		content, ok := o.cache.Get(ctx, prompt)
		o.metrics.cacheLookup(ok)
		if ok {
			return Response{Content: content, Provider: "cache", Cached: true}, nil
		}
	}

	failures := make([]ProviderFailure, 0, len(o.providers))
	for i, p := range o.providers {
		if !o.breakers[i].Allow() {
			o.metrics.attempt(p.Name(), outcomeSkipped)
			failures = append(failures, ProviderFailure{Provider: p.Name(), Err: ErrCircuitOpen})
			continue
		}

		resp, err := o.invokeWithRetry(ctx, p, prompt)
		if err == nil {
			o.breakers[i].Success()
			if o.cache != nil {
				o.cache.Set(ctx, prompt, resp.Content)
			}
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, ctxErr
		}

		o.breakers[i].Failure()
		failures = append(failures, ProviderFailure{Provider: p.Name(), Err: err})
		if i < len(o.providers)-1 {
			logger.Warnf("Provider %s failed, falling back to %s: %v", p.Name(), o.providers[i+1].Name(), err)
		}
	}

	logger.Errorf("All %d providers failed", len(o.providers))
	return Response{}, &AllProvidersExhaustedError{Failures: failures}
}

func (o *Orchestrator) invokeWithRetry(ctx context.Context, p Provider, prompt string) (Response, error) {
	var lastErr error
	for attempt := 0; attempt < o.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := o.Backoff(attempt - 1)
			logger.WithFields(logrus.Fields{
				"provider": p.Name(),
				"attempt":  attempt + 1,
				"delay":    delay,
			}).Debug("retrying provider")
			if err := o.sleep(ctx, delay); err != nil {
				return Response{}, err
			}
		}

		resp, err := o.attempt(ctx, p, prompt)
		if err == nil {
			o.metrics.attempt(p.Name(), outcomeSuccess)
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}

		lastErr = err
		if IsTransient(err) {
			o.metrics.attempt(p.Name(), outcomeTransient)
			continue
		}
		o.metrics.attempt(p.Name(), outcomePermanent)
		break
	}
	return Response{}, lastErr
}

func (o *Orchestrator) attempt(ctx context.Context, p Provider, prompt string) (Response, error) {
	attemptCtx := ctx
	if o.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.opts.RequestTimeout)
		defer cancel()
	}

	resp, err := p.Invoke(attemptCtx, prompt)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Response{}, &TransientError{Provider: p.Name(), Err: context.DeadlineExceeded}
		}
		return Response{}, Classify(p.Name(), err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return Response{}, &TransientError{Provider: p.Name(), Err: ErrEmptyCompletion}
	}
	resp.Provider = p.Name()
	return resp, nil
}

// Start 启动缓存定时落盘
func (o *Orchestrator) Start() {
	if o.cache == nil || o.opts.SaveInterval <= 0 {
		return
	}
	o.startOnce.Do(func() {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			ticker := time.NewTicker(o.opts.SaveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := o.cache.Save(); err != nil {
						logger.Warnf("Failed to save response cache: %v", err)
					}
				case <-o.stopCh:
					return
				}
			}
		}()
	})
}

// Close 停止定时器并最后落盘一次，可重复调用
func (o *Orchestrator) Close() error {
	var err error
	o.closeOnce.Do(func() {
		close(o.stopCh)
		o.wg.Wait()
		if o.cache != nil {
			err = o.cache.Save()
			if cerr := o.cache.Close(); err == nil {
				err = cerr
			}
		}
	})
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package storage

import (
	"context"
	"time"

	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

// RunBackups 每隔 interval 调用一次 Backup，直到 ctx 结束；interval <= 0 时直接返回
func RunBackups(ctx context.Context, s Storage, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Backup(); err != nil {
				logger.Errorf("Periodic backup failed: %v", err)
			}
		}
	}
}

package main

import (
	"context"
	"time"

	"TripAtlas/internal/biz"
	"TripAtlas/internal/conf"
	"TripAtlas/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// StartCacheWarmupCron 启动缓存预热定时任务
// 按配置的 cron 表达式周期性地把持久层热点条目回填到快速缓存层，
// 避免重启或 TTL 过期后热点请求集中打到地图服务商。
func StartCacheWarmupCron(uc *biz.MapUsecase, c *conf.Maps, logger log.Logger) *cron.Cron {
	helper := log.NewHelper(logger)

	spec := c.Cache.WarmupSpec
	if spec == "" {
		helper.Info("cache warm-up cron disabled (no schedule configured)")
		return nil
	}

	cr := cron.New(cron.WithSeconds())

	_, err := cr.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		warmed, err := uc.WarmUp(ctx, c.Cache.WarmupLimit)
		if err != nil {
			helper.Errorw("cache warm-up task failed", "error", err)
			return
		}
		metrics.AddWarmupEntries(warmed)
		if warmed > 0 {
			helper.Infow("cache warm-up task completed", "warmed", warmed)
		}
	})

	if err != nil {
		helper.Errorw("failed to register cache warm-up cron job", "error", err)
		return nil
	}

	cr.Start()
	helper.Infow("cache warm-up cron job started", "spec", spec, "limit", c.Cache.WarmupLimit)

	return cr
}

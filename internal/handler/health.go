package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/infra"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity plus the master-data breaker state; never
// exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		// Parked jobs surface here so operators see a growing DLQ without
		// digging into Redis.
		dlqDepth := int64(0)
		if redisStatus == "connected" {
			for _, q := range []string{worker.QueueAlert, worker.QueuePickList} {
				if n, err := worker.ParkedCount(ctx, rdb, q); err == nil {
					dlqDepth += n
				}
			}
		}

		c.JSON(status, gin.H{
			"ok":          status == http.StatusOK,
			"db":          dbStatus,
			"redis":       redisStatus,
			"master_data": cb.State().String(),
			"dlq_depth":   dlqDepth,
		})
	}
}

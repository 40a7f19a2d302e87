// application/bootstrap/health.go
package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"key-level-engine/pkg/logger"
)

const healthTimeout = 5 * time.Second

// ServiceHealth — состояние одного сервиса
type ServiceHealth struct {
	Name     string      `json:"name"`
	Healthy  bool        `json:"healthy"`
	Optional bool        `json:"optional"`
	Stats    interface{} `json:"stats,omitempty"`
}

// HealthReport — ответ /healthz
type HealthReport struct {
	Healthy  bool            `json:"healthy"`
	Services []ServiceHealth `json:"services"`
	Breaker  string          `json:"feed_breaker,omitempty"`
	Pairs    int             `json:"pairs"`
}

// Health проверяет PostgreSQL и Redis; без Redis приложение здорово
func (app *Application) Health(ctx context.Context) HealthReport {
	app.mu.Lock()
	db, rs, feed, engine := app.database, app.redis, app.feed, app.engine
	app.mu.Unlock()

	dbHealth := ServiceHealth{Name: "postgres", Healthy: db.HealthCheck(ctx), Stats: db.Stats()}
	report := HealthReport{
		Healthy:  dbHealth.Healthy,
		Services: []ServiceHealth{dbHealth},
	}

	if rs != nil {
		report.Services = append(report.Services, ServiceHealth{
			Name:     rs.Name(),
			Healthy:  rs.HealthCheck(ctx),
			Optional: true,
			Stats:    rs.Stats(),
		})
	}
	if feed != nil {
		report.Breaker = feed.State()
	}
	if engine != nil {
		report.Pairs = len(engine.Registries())
	}
	return report
}

func (app *Application) healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		report := app.Health(ctx)
		w.Header().Set("Content-Type", "application/json")
		if !report.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(report); err != nil {
			logger.Warn("⚠️ Ошибка записи /healthz: %v", err)
		}
	})
}

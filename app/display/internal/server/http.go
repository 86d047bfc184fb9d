package server

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/kyadav2270/iva-agent/app/display/internal/conf"
	"github.com/kyadav2270/iva-agent/app/display/internal/service"
)

func NewHTTPServer(c *conf.Server, s *service.DisplayService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != "" {
		if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)
	registerRoutes(srv, s)
	return srv
}

func registerRoutes(srv *http.Server, s *service.DisplayService) {
	route := srv.Route("/")

	route.POST("/api/evaluate", func(ctx http.Context) error {
		var req service.EvaluateRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := s.Evaluate(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	route.GET("/api/dd-report", func(ctx http.Context) error {
		report, err := s.DDReport(ctx, ctx.Query().Get("company"))
		if err != nil {
			return err
		}
		return ctx.Result(200, report)
	})

	route.GET("/api/evaluations", func(ctx http.Context) error {
		reply, err := s.CompanyEvaluations(ctx, ctx.Query().Get("company"))
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	route.GET("/api/dashboard", func(ctx http.Context) error {
		dashboard, err := s.Dashboard(ctx)
		if err != nil {
			return err
		}
		return ctx.Result(200, dashboard)
	})

	route.POST("/api/portfolio/monitor", func(ctx http.Context) error {
		batch, err := s.RunMonitoring(ctx)
		if err != nil {
			return err
		}
		return ctx.Result(200, batch)
	})

	route.GET("/api/portfolio/alerts", func(ctx http.Context) error {
		unackedOnly := ctx.Query().Get("unacknowledged") == "true"
		reply, err := s.Alerts(ctx, unackedOnly)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	route.POST("/api/portfolio/alerts/ack", func(ctx http.Context) error {
		var req service.AckRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		if err := s.AcknowledgeAlert(ctx, &req); err != nil {
			return err
		}
		return ctx.Result(200, map[string]bool{"ok": true})
	})
}

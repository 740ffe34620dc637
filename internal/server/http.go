package server

import (
	"context"
	nethttp "net/http"
	"strconv"

	"TripAtlas/internal/conf"
	"TripAtlas/internal/server/middleware"
	"TripAtlas/internal/service"
	pkglog "TripAtlas/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, mapService *service.MapService, logger log.Logger) *http.Server {
	// 创建增强的日志辅助器
	logHelper := pkglog.NewLogHelper(logger)

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Auth(logHelper),    // 认证中间件：记录 API Key 和 User-Agent
			middleware.Logging(logHelper), // 请求日志中间件：记录请求方法、路径、耗时
		),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	registerMapRoutes(srv, mapService)

	srv.Handle("/metrics", promhttp.Handler())
	srv.HandleFunc("/healthz", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return srv
}

// registerMapRoutes wires the map resolution endpoints onto the server.
func registerMapRoutes(srv *http.Server, svc *service.MapService) {
	r := srv.Route("/api/v1")

	r.POST("/maps/resolve", func(ctx http.Context) error {
		var in service.ResolveRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.Resolve(c, req.(*service.ResolveRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/maps/resolve/segments", func(ctx http.Context) error {
		var in service.ResolveSegmentsRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.ResolveSegments(c, req.(*service.ResolveSegmentsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/maps/resolve/supplier", func(ctx http.Context) error {
		var in service.ResolveSupplierRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.ResolveSupplier(c, req.(*service.ResolveSupplierRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/maps/cache/warmup", func(ctx http.Context) error {
		var in service.WarmUpRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		if in.Limit == 0 {
			if raw := ctx.Query().Get("limit"); raw != "" {
				in.Limit, _ = strconv.Atoi(raw)
			}
		}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return svc.WarmUp(c, req.(*service.WarmUpRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.DELETE("/maps/cache/local", func(ctx http.Context) error {
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return nil, svc.ClearLocalCache(c)
		})
		if _, err := h(ctx, nil); err != nil {
			return err
		}
		return ctx.Result(204, nil)
	})

	r.GET("/maps/status", func(ctx http.Context) error {
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.Status(c)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})
}

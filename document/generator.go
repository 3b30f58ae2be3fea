package document

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/papyrus-billing/invoice"
	"github.com/ByLCY/papyrus-billing/layout"
	"github.com/ByLCY/papyrus-billing/renderer"
)

// Engine 同时提供文本测量与渲染，canvasrenderer.Renderer 满足该接口。
type Engine interface {
	layout.Typesetter
	renderer.Renderer
}

// Generator 把一张发票排版、渲染并写入 Sink。
// 每次调用互不共享可变状态，可以并发使用。
type Generator struct {
	engine  Engine
	options layout.BuildOptions
	log     *zap.Logger
}

// Option 配置 Generator。
type Option func(*Generator)

// WithLogger 设置日志记录器，同时传给布局阶段。
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// WithOverflow 设置表格溢出策略。
func WithOverflow(p layout.OverflowPolicy) Option {
	return func(g *Generator) { g.options.Overflow = p }
}

// WithStatePrefix 设置本州 GSTIN 前缀。
func WithStatePrefix(prefix string) Option {
	return func(g *Generator) { g.options.StatePrefix = prefix }
}

// WithImageLoader 替换 logo 读取方式。
func WithImageLoader(load layout.ImageLoader) Option {
	return func(g *Generator) { g.options.LoadImage = load }
}

func New(engine Engine, opts ...Option) *Generator {
	g := &Generator{engine: engine, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	g.options.Typesetter = engine
	g.options.Logger = g.log
	return g
}

// Layout 只做排版，不渲染。
func (g *Generator) Layout(inv invoice.Invoice, profile invoice.CompanyProfile) (*layout.Result, error) {
	return layout.Build(inv, profile, g.options)
}

// LayoutAndRender 排版、渲染并写出发票，返回输出位置。
// 校验失败时不会打开 Sink；写入失败返回 *invoice.OutputError，已写出的部分由调用方清理。
func (g *Generator) LayoutAndRender(ctx context.Context, inv invoice.Invoice, profile invoice.CompanyProfile, sink Sink) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	start := time.Now()
	res, err := g.Layout(inv, profile)
	if err != nil {
		return "", err
	}
	data, err := g.engine.Render(res)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w, location, err := sink.Open(inv)
	if err != nil {
		return "", &invoice.OutputError{Location: location, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", &invoice.OutputError{Location: location, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &invoice.OutputError{Location: location, Err: err}
	}

	g.log.Info("invoice rendered",
		zap.String("invoice", inv.Number),
		zap.String("location", location),
		zap.Int("bytes", len(data)),
		zap.String("regime", res.Report.Regime),
		zap.Int("overflow_rows", res.Report.OverflowRows),
		zap.Duration("elapsed", time.Since(start)),
	)
	return location, nil
}

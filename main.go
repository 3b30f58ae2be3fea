package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/papyrus-billing/config"
	"github.com/ByLCY/papyrus-billing/database"
	"github.com/ByLCY/papyrus-billing/document"
	"github.com/ByLCY/papyrus-billing/dsl"
	"github.com/ByLCY/papyrus-billing/invoice"
	"github.com/ByLCY/papyrus-billing/layout"
	"github.com/ByLCY/papyrus-billing/logger"
	"github.com/ByLCY/papyrus-billing/middlewares"
	canvasrenderer "github.com/ByLCY/papyrus-billing/renderer/canvas"
	"github.com/ByLCY/papyrus-billing/routes"
)

func main() {
	input := flag.String("in", "invoice.json", "发票 JSON 文件路径")
	profilePath := flag.String("profile", "company.profile", "公司资料文件路径")
	output := flag.String("out", "output", "PDF 输出根目录")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	overflow := flag.String("overflow", "accept", "表格溢出策略: accept 或 fail")
	serve := flag.Bool("serve", false, "启动 HTTP API（配置来自环境变量与 .env）")
	flag.Parse()

	if *serve {
		if err := serveAPI(); err != nil {
			log.Fatalf("启动服务失败: %v", err)
		}
		return
	}

	location, err := run(*input, *profilePath, *output, *debug, layout.ParseOverflowPolicy(*overflow))
	if err != nil {
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", location)
}

// run 串联读取、排版与渲染，返回 PDF 的输出位置。
func run(inputPath, profilePath, outputDir, debugPath string, overflow layout.OverflowPolicy) (string, error) {
	inv, err := readInvoice(inputPath)
	if err != nil {
		return "", err
	}
	profile, err := dsl.Load(profilePath)
	if err != nil {
		return "", err
	}

	gen := document.New(
		canvasrenderer.NewRenderer(filepath.Dir(profilePath)),
		document.WithOverflow(overflow),
	)

	if debugPath != "" {
		result, err := gen.Layout(inv, profile)
		if err != nil {
			return "", fmt.Errorf("布局计算失败: %w", err)
		}
		if err := writeDebug(result, debugPath); err != nil {
			return "", err
		}
	}

	location, err := gen.LayoutAndRender(context.Background(), inv, profile, document.FileSink{Root: outputDir})
	if err != nil {
		return "", fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	return location, nil
}

func readInvoice(path string) (invoice.Invoice, error) {
	var inv invoice.Invoice
	raw, err := os.ReadFile(path)
	if err != nil {
		return inv, fmt.Errorf("无法打开发票文件 %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &inv); err != nil {
		return inv, fmt.Errorf("解析发票 JSON 失败: %w", err)
	}
	return inv, nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func serveAPI() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	zl, err := logger.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck

	db, err := database.Connect(cfg, zl)
	if err != nil {
		return err
	}
	middlewares.ConfigureJWT(cfg.JWTSecret)

	profile, err := dsl.Load(cfg.CompanyProfile)
	if err != nil {
		return err
	}
	gen := document.New(
		canvasrenderer.NewRenderer(filepath.Dir(cfg.CompanyProfile)),
		document.WithLogger(zl),
		document.WithOverflow(layout.ParseOverflowPolicy(cfg.Overflow)),
		document.WithStatePrefix(cfg.StatePrefix(profile.TaxID)),
	)

	app := routes.NewApp(cfg, routes.Deps{
		DB:        db,
		Generator: gen,
		Profile:   profile,
		Log:       zl,
		Now:       time.Now,
	})

	zl.Info("API server starting", zap.String("port", cfg.Port), zap.String("db_driver", cfg.DBDriver))
	return app.Listen(":" + cfg.Port)
}

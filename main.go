package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/fontbox/book"
	"github.com/ByLCY/fontbox/config"
	"github.com/ByLCY/fontbox/dsl"
	"github.com/ByLCY/fontbox/renderer"
	canvasrenderer "github.com/ByLCY/fontbox/renderer/canvas"
	"github.com/ByLCY/fontbox/trace"
)

type options struct {
	input, output, debug string
	config               string
	data                 any
	logLevel             string
}

func main() {
	input := flag.String("in", "examples/demo.book", "book 标记文件路径")
	output := flag.String("out", "output/demo.pdf", "PDF 输出路径")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	cfgPath := flag.String("config", "", "YAML 配置文件路径")
	dataJSON := flag.String("data", "", "绑定到 book 的 JSON 数据")
	dataFile := flag.String("data-file", "", "绑定数据文件（JSON 或 YAML）")
	logLevel := flag.String("log-level", "", "日志级别，覆盖配置中的 log.level")
	flag.Parse()

	opts := options{input: *input, output: *output, debug: *debug, config: *cfgPath, logLevel: *logLevel}
	var err error
	if opts.data, err = loadData(*dataJSON, *dataFile); err != nil {
		fmt.Fprintf(os.Stderr, "读取绑定数据失败: %v\n", err)
		os.Exit(1)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "生成 PDF 失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("已生成 PDF：%s\n", *output)
}

func loadData(inline, path string) (any, error) {
	var data any
	switch {
	case inline != "" && path != "":
		return nil, fmt.Errorf("-data 与 -data-file 不能同时使用")
	case inline != "":
		if err := json.Unmarshal([]byte(inline), &data); err != nil {
			return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
		}
	case path != "":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		// YAML 是 JSON 的超集，两种格式都按 YAML 解码。
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
		}
	}
	return data, nil
}

// run 串联配置、解析、构建分页与渲染。
func run(opts options) error {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return err
		}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	file, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("无法打开 book 文件 %s: %w", opts.input, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析 book 失败: %w", err)
	}

	assets := os.DirFS(filepath.Dir(opts.input))
	result, err := book.Build(doc, opts.data, book.BuildOptions{
		Assets: assets,
		Tracer: trace.NewLogger(logger, cfg.Trace.IgnoreInvalidSymbols),
		Config: cfg,
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	logger.Info("layout done", "book", result.Name, "pages", len(result.Pages), "fonts", len(result.Fonts))

	if opts.debug != "" {
		if err := writeDebug(result, opts.debug); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	var r renderer.Renderer = canvasrenderer.New(canvasrenderer.Options{Assets: assets, Logger: logger})
	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(opts.output, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func writeDebug(result *book.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := book.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

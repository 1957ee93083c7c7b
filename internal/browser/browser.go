package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Config 浏览器启动参数
type Config struct {
	ProxyURL   string
	Headless   bool
	UserAgent  string
	WindowSize string // "1920,1080"

	// NavigateTimeout 单次页面跳转的超时时间
	NavigateTimeout time.Duration
	// IdleTimeout 等待网络空闲的上限
	IdleTimeout time.Duration
}

// Browser 封装 rod.Browser 实例
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
}

// New 启动浏览器并建立连接
func New(cfg Config) (*Browser, error) {
	if cfg.NavigateTimeout <= 0 {
		cfg.NavigateTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Second
	}

	l := launcher.New().Headless(cfg.Headless).NoSandbox(true)
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}
	if cfg.WindowSize != "" {
		l = l.Set("window-size", cfg.WindowSize)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Browser{browser: b, launcher: l, cfg: cfg}, nil
}

// NewPage 创建绑定到 ctx 的新页面；ctx 取消后页面上的阻塞操作立即返回
func (b *Browser) NewPage(ctx context.Context) (*Page, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if b.cfg.UserAgent != "" {
		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.cfg.UserAgent})
	}

	return &Page{
		page:            page,
		navigateTimeout: b.cfg.NavigateTimeout,
		idleTimeout:     b.cfg.IdleTimeout,
	}, nil
}

// Close 关闭浏览器并清理资源
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}

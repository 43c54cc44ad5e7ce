package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mwu-go/internal/config"
	"mwu-go/internal/constants"
	"mwu-go/internal/initapp"
	"mwu-go/internal/sysinfo"
	"mwu-go/internal/utils"
	contentsync "mwu-go/pkg/sync"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
)

const version = "1.0.0"

var (
	configPath  string
	envFile     string
	publicDir   string
	host        string
	port        int
	notFoundArg string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mwu",
		Short: "MWU - static content web server with built-in traffic statistics",
		Long: `MWU serves files from a content root and keeps live traffic statistics
that can be viewed at /stats.

Examples:
  # Serve ./public on localhost:8080
  mwu

  # Serve another directory on all interfaces
  mwu --dir ./site --host 0.0.0.0 --port 3000

  # Use a YAML settings file and the built-in 404 page
  mwu --config settings.yaml --not-found builtin

Send SIGHUP to reload the settings file (e.g. to toggle maintenance mode).`,
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runServer,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "settings.json", "Settings file (.json, .yaml or .yml)")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before settings")
	rootCmd.Flags().StringVarP(&publicDir, "dir", "d", "", "Content root directory (overrides settings)")
	rootCmd.Flags().StringVar(&host, "host", "", "Listen host (overrides settings)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides settings)")
	rootCmd.Flags().StringVar(&notFoundArg, "not-found", "", `Custom not-found page: "builtin" or a path to an HTML file`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	config.LoadEnvFile(envFile)

	// 初始化配置管理器
	configManager := config.Init(configPath)
	if err := applyFlagOverrides(cmd, configManager); err != nil {
		return err
	}
	cfg := configManager.GetConfig()
	log.Printf("[Config] Maintenance mode: %v", cfg.Maintenance)

	if err := initapp.Init(cfg.PublicDir); err != nil {
		return err
	}
	sysinfo.LogReport(cfg.PublicDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 可选：从 S3 拉取内容
	var syncService *contentsync.Service
	if contentsync.IsConfigComplete() {
		svc, err := contentsync.NewS3Service(ctx, cfg.PublicDir)
		if err != nil {
			log.Printf("[Sync] 同步服务初始化失败: %v", err)
		} else {
			syncService = svc
			if err := svc.Start(ctx); err != nil {
				log.Printf("[Sync] 首次同步失败，继续使用本地内容: %v", err)
			}
		}
	}

	notFound, err := loadNotFoundResponder(notFoundArg)
	if err != nil {
		return err
	}

	a := newApp(configManager, notFound)
	defer a.close()

	configManager.RegisterUpdateCallback(restartWarnings(cfg, syncService != nil))
	addr := cfg.Addr()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
		log.Printf("[Server] 最大并发连接数: %d", cfg.MaxConnections)
	}

	// 创建服务器
	server := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}

	utils.SetupReloadHandler(ctx, configManager.ReloadConfig)

	stopped := make(chan struct{})
	utils.SetupCloseHandler(func() {
		log.Println("[Server] Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Server] Error during server shutdown: %v", err)
		}
		cancel()
		if syncService != nil {
			syncService.Wait()
		}
		close(stopped)
	})

	log.Printf("[Server] Server running at http://%s (content root %s)", ln.Addr(), cfg.PublicDir)
	if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	<-stopped

	stats := a.monitor.GetStats()
	log.Printf("[Server] Stopped after %s: %d requests, %s sent",
		utils.FormatUptime(stats.Uptime), stats.TotalRequests, utils.FormatBytes(stats.TotalBytesSent))
	if err := a.monitor.CheckDataConsistency(); err != nil {
		log.Printf("[Server] Warning: 统计数据不一致: %v", err)
	}
	return nil
}

// restartWarnings 返回配置更新回调，对只在启动时生效的字段给出警告
func restartWarnings(startup *config.Config, syncEnabled bool) func(*config.Config) {
	addr := startup.Addr()
	publicDir := startup.PublicDir
	maxKeys := startup.MaxTrackedKeys
	maxConns := startup.MaxConnections

	return func(newCfg *config.Config) {
		if newCfg.Addr() != addr {
			log.Printf("[Config] Warning: 监听地址变更 (%s) 需要重启才能生效", newCfg.Addr())
		}
		if newCfg.MaxConnections != maxConns {
			log.Printf("[Config] Warning: maxConnections 变更 (%d) 需要重启才能生效", newCfg.MaxConnections)
		}
		if newCfg.MaxTrackedKeys != maxKeys {
			log.Printf("[Config] Warning: maxTrackedKeys 变更 (%d) 需要重启才能生效，当前上限仍为 %d", newCfg.MaxTrackedKeys, maxKeys)
		}
		if newCfg.PublicDir != publicDir {
			log.Printf("[Config] Warning: 内容目录已切换到 %s，未重新执行目录检查", newCfg.PublicDir)
			if syncEnabled {
				log.Printf("[Config] Warning: S3 同步仍写入 %s，需要重启才能切换", publicDir)
			}
		}
	}
}

// applyFlagOverrides 命令行参数优先于配置文件和环境变量，重新加载后仍然生效
func applyFlagOverrides(cmd *cobra.Command, configManager *config.ConfigManager) error {
	flags := cmd.Flags()

	if flags.Changed("dir") {
		dir := publicDir
		configManager.AddOverride(func(c *config.Config) { c.PublicDir = dir })
		log.Printf("[Config] Public directory set to %s", dir)
	}
	if flags.Changed("host") {
		h := host
		configManager.AddOverride(func(c *config.Config) { c.Host = h })
		log.Printf("[Config] Host set to %s", h)
	}
	if flags.Changed("port") {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}
		p := port
		configManager.AddOverride(func(c *config.Config) { c.Port = p })
		log.Printf("[Config] Port set to %d", p)
	}
	return nil
}

package utils

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// SetupCloseHandler 收到 SIGINT/SIGTERM 时执行一次 callback；再次收到信号则直接退出
func SetupCloseHandler(callback func()) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		go func() {
			<-c
			log.Printf("[Server] 再次收到退出信号，强制退出")
			os.Exit(1)
		}()
		callback()
	}()
}

// SetupReloadHandler 每次收到 SIGHUP 时执行 reload，直到 ctx 结束
func SetupReloadHandler(ctx context.Context, reload func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGHUP)

	go func() {
		defer signal.Stop(c)
		for {
			select {
			case <-ctx.Done():
				return
			case <-c:
				log.Printf("[Config] 收到 SIGHUP，重新加载配置")
				reload()
			}
		}
	}()
}

package initapp

import (
	"fmt"
	"log"
	"mwu-go/internal/constants"
	"os"
	"path/filepath"
)

// Init 准备内容根目录：不存在时创建，缺少首页时给出提示
func Init(publicDir string) error {
	log.Printf("[Init] 开始初始化应用程序...")

	info, err := os.Stat(publicDir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(publicDir, 0755); err != nil {
			return fmt.Errorf("create content root %s: %w", publicDir, err)
		}
		log.Printf("[Init] 已创建内容根目录 %s", publicDir)
	case err != nil:
		return fmt.Errorf("stat content root %s: %w", publicDir, err)
	case !info.IsDir():
		return fmt.Errorf("content root %s is not a directory", publicDir)
	}

	for _, name := range []string{constants.DefaultDocument, constants.NotFoundDocument} {
		if _, err := os.Stat(filepath.Join(publicDir, name)); err != nil {
			log.Printf("[Init] Warning: %s 下没有 %s", publicDir, name)
		}
	}

	log.Printf("[Init] 应用程序初始化完成")
	return nil
}

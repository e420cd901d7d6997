// eduadmin 运维命令行：修改角色、清理孤立数据、发布草稿、刷新新闻、导入旧版 Firestore 数据
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

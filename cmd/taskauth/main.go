// Command taskauth はトークン認証付きタスク管理APIのエントリーポイント。
//
// 使い方:
//
//	taskauth [serve|worker|sweep|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/taskauth/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskauth: %v\n", err)
		os.Exit(1)
	}
}

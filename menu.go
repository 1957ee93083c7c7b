package main

import (
	"context"
	"fmt"
	"strings"

	"cnkicrawl/internal/config"
	"cnkicrawl/internal/sites/cnki"
)

const menuMaxPages = 3

// runMenu is the interactive entry point: single search, quick test or batch.
func runMenu(ctx context.Context, p *prompter) error {
	w := p.out
	fmt.Fprintln(w, "=== 知网论文爬虫 ===")
	fmt.Fprintln(w, "请选择运行模式:")
	fmt.Fprintln(w, "1. 单个作者搜索")
	fmt.Fprintln(w, "2. 快速测试")
	fmt.Fprintln(w, "3. 批量搜索")

	switch choice := p.ask("请输入选择 (1-3): "); choice {
	case "1":
	case "2":
		return runQuick(ctx, w, p, "")
	case "3":
		return runBatch(ctx, w, p, config.DefaultAuthors(), false)
	default:
		fmt.Fprintln(w, "无效选择, 运行单个作者搜索模式")
	}
	return interactiveSearch(ctx, p)
}

func interactiveSearch(ctx context.Context, p *prompter) error {
	w := p.out
	fmt.Fprintln(w, strings.Repeat("-", 50))

	author := p.ask("请输入作者姓名: ")
	if author == "" {
		fmt.Fprintln(w, "作者姓名不能为空!")
		return nil
	}
	institution := p.ask("请输入作者单位 (可选, 直接回车跳过): ")
	maxPages := p.askInt(fmt.Sprintf("请输入要爬取的最大页数 (默认%d页): ", menuMaxPages), menuMaxPages)

	return runSearch(ctx, w, cnki.Query{Author: author, Institution: institution}, maxPages, "", "")
}

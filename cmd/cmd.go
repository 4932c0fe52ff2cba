/*
Copyright (c) 2025 Jesse Jin Authors. All rights reserved.

Use of this source code is governed by a MIT-style
license that can be found in the LICENSE file.

版权由作者 Jesse Jin <afrusrsc@126.com> 所有。
此源码的使用受 MIT 开源协议约束，详见 LICENSE 文件。
*/

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"svg-diet/duplicate"
	"svg-diet/svgfile"
)

type Config struct {
	hash      string
	overwrite bool
	list      bool
	quiet     bool
	verbose   bool
	inFile    string
	outFile   string
}

// Execute 运行命令行
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd 解析命令行参数
func newRootCmd() *cobra.Command {
	cfg := Config{}
	root := &cobra.Command{
		Use:   "svg-diet <input_file> <output_file>",
		Short: "删除 SVG 中属性完全相同的重复叶子元素",
		Long: `svg-diet 在每个父元素下比较叶子元素的属性集合，
只保留第一次出现的元素，其余重复元素被删除，结果写入输出文件。`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			cfg.inFile, cfg.outFile = args[0], args[1]
			if err := checkConfig(&cfg); err != nil {
				return err
			}
			return run(&cfg, c.OutOrStdout(), c.ErrOrStderr())
		},
	}

	flags := root.Flags()
	flags.BoolVarP(&cfg.overwrite, "overwrite", "o", false, "覆盖已存在的输出文件")
	flags.StringVarP(&cfg.hash, "hash", "f", "md5", "比较方式: "+strings.Join(duplicate.Hashes, " | "))
	flags.BoolVarP(&cfg.list, "list", "l", false, "列出被删除的元素")
	flags.BoolVarP(&cfg.quiet, "quiet", "q", false, "不显示进度条")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "输出调试日志")
	return root
}

// checkConfig 检查参数
func checkConfig(cfg *Config) error {
	if !duplicate.ValidHash(cfg.hash) {
		return fmt.Errorf("不支持的比较方式 %s", cfg.hash)
	}
	if _, err := os.Stat(cfg.inFile); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("输入文件 %s 不存在", cfg.inFile)
	}
	if _, err := os.Stat(cfg.outFile); err == nil && !cfg.overwrite {
		return fmt.Errorf("输出文件 %s 已存在，如需覆盖请指定 --overwrite", cfg.outFile)
	}
	return nil
}

// run 读取、清理并写回 SVG
func run(cfg *Config, stdout, stderr io.Writer) error {
	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var progress io.Writer
	if !cfg.quiet {
		progress = stderr
	}

	// 输出可能覆盖输入，先记下原始大小
	inSize, err := svgfile.Size(cfg.inFile)
	if err != nil {
		return err
	}
	doc, err := svgfile.Load(cfg.inFile, progress)
	if err != nil {
		return err
	}
	logger.Debug("已解析输入文件", "file", cfg.inFile, "root", doc.Root().FullTag())

	c := duplicate.NewCleaner(cfg.hash)
	if progress != nil {
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("清理重复元素"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()
		c.OnVisit = func(*etree.Element) { bar.Add(1) }
	}
	if cfg.list {
		c.OnRemove = func(parent, dup *etree.Element) {
			fmt.Fprintf(stdout, "%s\t%s\n", dup.GetPath(), formatAttrs(dup))
		}
	}
	removed := c.Clean(doc.Root())
	logger.Debug("清理完成", "removed", removed, "hash", cfg.hash)

	written, err := svgfile.Save(doc, cfg.outFile, cfg.overwrite)
	if err != nil {
		return err
	}
	logger.Debug("已写入输出文件", "file", cfg.outFile, "bytes", written)

	fmt.Fprintf(stdout, "%s: 移除 %d 个重复元素，文件大小由 %s 减少到 %s\n",
		filepath.Base(cfg.inFile), removed, svgfile.FormatSize(inSize), svgfile.FormatSize(written))
	return nil
}

// formatAttrs 按属性名排序输出，便于比对
func formatAttrs(el *etree.Element) string {
	attrs := make([]string, 0, len(el.Attr))
	for _, a := range el.Attr {
		attrs = append(attrs, fmt.Sprintf("%s=%q", a.FullKey(), a.Value))
	}
	sort.Strings(attrs)
	return el.FullTag() + " " + strings.Join(attrs, " ")
}

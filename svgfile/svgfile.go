/*
Copyright (c) 2025 Jesse Jin Authors. All rights reserved.

Use of this source code is governed by a MIT-style
license that can be found in the LICENSE file.

版权由作者 Jesse Jin <afrusrsc@126.com> 所有。
此源码的使用受 MIT 开源协议约束，详见 LICENSE 文件。
*/

// svgfile SVG 文件的读取与写入
package svgfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/net/html/charset"
)

var (
	ErrNotFound  = errors.New("文件不存在")
	ErrExists    = errors.New("文件已存在")
	ErrMalformed = errors.New("XML 格式错误")
)

const declaration = `version="1.0" encoding="UTF-8"`

// Load 读取并解析 SVG 文件，progress 为空时不显示进度条
func Load(path string, progress io.Writer) (*etree.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if progress != nil {
		bar := progressbar.NewOptions64(info.Size(),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("读取 "+filepath.Base(path)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()
		r = io.TeeReader(file, bar)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMalformed, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%s: %w: 没有根元素", path, ErrMalformed)
	}
	return doc, nil
}

// Save 序列化文档并写入文件，返回写入的字节数
func Save(doc *etree.Document, path string, overwrite bool) (int64, error) {
	if !overwrite && exists(path) {
		return 0, fmt.Errorf("%s: %w", path, ErrExists)
	}
	var buf bytes.Buffer
	if !setDeclaration(doc) {
		buf.WriteString(xml.Header)
	}
	if _, err := doc.WriteTo(&buf); err != nil {
		return 0, err
	}

	// 先写临时文件再改名，失败时不留下半个文件
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())
	n, err := buf.WriteTo(tmp)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return n, nil
}

// setDeclaration 输出总是 UTF-8，改写已有的 XML 声明；没有声明时返回 false
func setDeclaration(doc *etree.Document) bool {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = declaration
			return true
		}
	}
	return false
}

// Size 获取文件大小
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// FormatSize 以二进制单位格式化文件大小，如 1.2 KiB
func FormatSize(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

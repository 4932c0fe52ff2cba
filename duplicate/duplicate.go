/*
Copyright (c) 2025 Jesse Jin Authors. All rights reserved.

Use of this source code is governed by a MIT-style
license that can be found in the LICENSE file.

版权由作者 Jesse Jin <afrusrsc@126.com> 所有。
此源码的使用受 MIT 开源协议约束，详见 LICENSE 文件。
*/

// duplicate SVG 重复叶子元素去重
package duplicate

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// Hashes 支持的摘要算法
var Hashes = []string{"md5", "sha1", "sha256", "sha512"}

// Cleaner 在同一父元素下删除属性完全相同的叶子元素
type Cleaner struct {
	Hash string
	// OnVisit 每访问一个元素调用一次，可为空
	OnVisit func(el *etree.Element)
	// OnRemove 每删除一个元素调用一次，按文档顺序，可为空
	OnRemove func(parent, dup *etree.Element)
}

// NewCleaner 创建使用指定摘要算法的 Cleaner
func NewCleaner(hashName string) *Cleaner {
	return &Cleaner{Hash: hashName}
}

// Clean 深度优先遍历整棵树，返回本次删除的元素个数
func (c *Cleaner) Clean(root *etree.Element) int {
	if root == nil {
		return 0
	}
	removed := 0
	stack := []*etree.Element{root}
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c.OnVisit != nil {
			c.OnVisit(el)
		}
		removed += c.handleElement(el)
		// 逆序入栈，保证按文档顺序出栈
		children := el.ChildElements()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return removed
}

// handleElement 处理单层子元素：先标记，再删除
func (c *Cleaner) handleElement(el *etree.Element) int {
	h := newHash(c.Hash)
	seen := map[string]bool{}
	dups := []int{}
	for i, tok := range el.Child {
		child, ok := tok.(*etree.Element)
		if !ok || !Leaf(child) {
			continue
		}
		fp := Fingerprint(child, h)
		if seen[fp] {
			dups = append(dups, i)
		} else {
			seen[fp] = true
		}
	}
	if len(dups) == 0 {
		return 0
	}
	if c.OnRemove != nil {
		for _, i := range dups {
			c.OnRemove(el, el.Child[i].(*etree.Element))
		}
	}
	// 倒序删除，索引不会失效；元素后紧跟的空白一并删除
	for j := len(dups) - 1; j >= 0; j-- {
		i := dups[j]
		if i+1 < len(el.Child) && isWhitespace(el.Child[i+1]) {
			el.RemoveChildAt(i + 1)
		}
		el.RemoveChildAt(i)
	}
	return len(dups)
}

// Leaf 判断元素是否没有子元素
func Leaf(el *etree.Element) bool {
	for _, tok := range el.Child {
		if _, ok := tok.(*etree.Element); ok {
			return false
		}
	}
	return true
}

// Fingerprint 计算元素属性集合的摘要，与标签名、子元素和属性顺序无关
func Fingerprint(el *etree.Element, h hash.Hash) string {
	pairs := make([][2]string, 0, len(el.Attr))
	for i := range el.Attr {
		a := &el.Attr[i]
		if isNamespaceDecl(a) {
			continue
		}
		pairs = append(pairs, [2]string{canonicalKey(a), a.Value})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	var sb strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&sb, "%d:%s=%d:%s;", len(p[0]), p[0], len(p[1]), p[1])
	}
	h.Reset()
	h.Write([]byte(sb.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalKey 带前缀的属性名换成 {uri}local 形式
func canonicalKey(a *etree.Attr) string {
	if a.Space == "" {
		return a.Key
	}
	if uri := a.NamespaceURI(); uri != "" {
		return "{" + uri + "}" + a.Key
	}
	return a.FullKey()
}

func isNamespaceDecl(a *etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

func isWhitespace(tok etree.Token) bool {
	cd, ok := tok.(*etree.CharData)
	return ok && cd.IsWhitespace()
}

// ValidHash 检查摘要算法名称
func ValidHash(hashName string) bool {
	for _, n := range Hashes {
		if strings.EqualFold(n, hashName) {
			return true
		}
	}
	return false
}

// newHash 创建对应的Hash实例
func newHash(hashName string) hash.Hash {
	var h hash.Hash
	switch strings.ToLower(hashName) {
	case "sha1":
		h = sha1.New()
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		h = md5.New()
	}
	return h
}

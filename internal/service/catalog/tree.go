package catalog

import (
	"fmt"
	"strconv"
	"strings"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
)

type Kind string

const (
	KindGroup   Kind = "group"
	KindRole    Kind = "role"
	KindEmpty   Kind = "empty"
	KindNoMatch Kind = "no_match"
	KindError   Kind = "error"
)

const (
	maxTooltipItems = 5
	listSep         = "、"
)

// Node is one entry of the display tree. Group nodes carry their role leaves
// in Children; informational nodes (empty, no match, error) stand alone.
type Node struct {
	Kind     Kind                `json:"kind"`
	Label    string              `json:"label"`
	Detail   string              `json:"detail,omitempty"`
	Badge    string              `json:"badge,omitempty"`
	Tooltip  string              `json:"tooltip,omitempty"`
	Icon     string              `json:"icon,omitempty"`
	Category domainrole.Category `json:"category,omitempty"`
	RoleID   string              `json:"roleId,omitempty"`
	Active   bool                `json:"active,omitempty"`
	Children []Node              `json:"children,omitempty"`
}

// Matches is the search predicate: a lower-cased substring test over display
// name, description, name, expertise and tags. An empty query matches all.
func Matches(r domainrole.Role, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(r.SearchText(), strings.ToLower(query))
}

// Build computes the tree for a document. It is pure; Projection adds the
// live query and grouping state on top.
func Build(doc domainrole.UserConfig, query string, grouped bool) []Node {
	if len(doc.CustomRoles) == 0 {
		return []Node{{Kind: KindEmpty, Label: "暂无角色", Detail: "请先安装或创建角色"}}
	}

	matched := make([]domainrole.Role, 0, len(doc.CustomRoles))
	for _, r := range doc.CustomRoles {
		if Matches(r, query) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return []Node{{Kind: KindNoMatch, Label: "无匹配结果", Detail: "请调整搜索关键词"}}
	}

	if !grouped {
		out := make([]Node, len(matched))
		for i, r := range matched {
			out[i] = leaf(r, doc.CurrentRoleID)
		}
		return out
	}

	// Groups appear in first-seen order; leaves keep repository order.
	var groups []Node
	index := make(map[domainrole.Category]int)
	for _, r := range matched {
		i, ok := index[r.Category]
		if !ok {
			i = len(groups)
			index[r.Category] = i
			groups = append(groups, Node{
				Kind:     KindGroup,
				Label:    r.Category.Label(),
				Icon:     r.Category.Icon(),
				Category: r.Category,
			})
		}
		groups[i].Children = append(groups[i].Children, leaf(r, doc.CurrentRoleID))
	}
	for i := range groups {
		groups[i].Detail = fmt.Sprintf("%d 个角色", len(groups[i].Children))
	}
	return groups
}

// ErrorNode is the single leaf shown when the repository cannot be read.
func ErrorNode() Node {
	return Node{Kind: KindError, Label: "加载失败", Detail: "请查看日志"}
}

func leaf(r domainrole.Role, currentID string) Node {
	n := Node{
		Kind:     KindRole,
		Label:    r.DisplayName,
		Tooltip:  Tooltip(r),
		Icon:     "person",
		Category: r.Category,
		RoleID:   r.ID,
		Active:   currentID != "" && r.ID == currentID,
	}
	switch {
	case n.Active:
		n.Icon = "check"
		n.Badge = "(当前)"
	case r.Downloads != nil && *r.Downloads > 0:
		n.Badge = "↓" + FormatCount(*r.Downloads)
	}
	return n
}

// Tooltip is the Markdown hover text for a role leaf.
func Tooltip(r domainrole.Role) string {
	lines := []string{"### " + r.DisplayName, ""}
	if r.Description != "" {
		lines = append(lines, "**描述**："+r.Description, "")
	}
	if len(r.Expertise) > 0 {
		lines = append(lines, "**专业领域**："+strings.Join(firstN(r.Expertise, maxTooltipItems), listSep), "")
	}
	if len(r.Tags) > 0 {
		lines = append(lines, "**标签**："+strings.Join(firstN(r.Tags, maxTooltipItems), listSep), "")
	}
	if r.Downloads != nil && *r.Downloads > 0 {
		lines = append(lines, "**下载量**："+FormatCount(*r.Downloads))
	}
	if r.Rating != nil && *r.Rating > 0 {
		lines = append(lines, fmt.Sprintf("**评分**：%.1f / 5.0", *r.Rating))
	}
	lines = append(lines, "", "**作者**："+r.Author, "**版本**："+r.Version)
	return strings.Join(lines, "\n")
}

// FormatCount abbreviates large counts: 1500 → "1.5K", 2300000 → "2.3M".
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return strconv.FormatInt(n, 10)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

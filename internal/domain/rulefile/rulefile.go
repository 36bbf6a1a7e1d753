// Package rulefile renders the active role into the Markdown rule file an
// external chat tool reads on every new conversation.
package rulefile

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyang/role-master/internal/domain/role"
)

// DefaultPath is the rule file location relative to the workspace root.
const DefaultPath = ".qoder/rules/ai-role-master.md"

// RuleName is how the chat tool refers to the rule (e.g. "@rule ai-role-master").
const RuleName = "ai-role-master"

const timestampLayout = "2006-01-02 15:04:05"

// Render produces the rule file for r. Sections appear in a fixed order and
// absent optional fields produce no heading at all.
func Render(r role.Role, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# AI Role: %s\n\n", r.DisplayName)
	b.WriteString("**Rule Type**: Always Apply  \n")
	b.WriteString("**Created by**: AI Role Master Extension  \n")
	fmt.Fprintf(&b, "**Updated**: %s\n", now.Format(timestampLayout))

	section(&b, "角色定义", r.SystemPrompt)
	if r.Personality != "" {
		section(&b, "人格特征", r.Personality)
	}
	if r.Scenario != "" {
		section(&b, "工作场景", r.Scenario)
	}
	section(&b, "专业领域", bullets(r.Expertise))

	if len(r.ExampleDialogues) > 0 {
		b.WriteString("\n---\n\n## 对话风格示例\n\n")
		b.WriteString("以下是期望的对话风格和深度：\n\n")
		for i, ex := range r.ExampleDialogues {
			fmt.Fprintf(&b, "**示例 %d**\n\n", i+1)
			fmt.Fprintf(&b, "用户: %s\n\n", ex.User)
			fmt.Fprintf(&b, "助手: %s\n\n", ex.Assistant)
		}
	}

	if r.CharacterNote != "" {
		section(&b, "重要提示", r.CharacterNote)
	}

	b.WriteString("\n---\n\n## 角色信息\n\n")
	fmt.Fprintf(&b, "**名称**: %s\n", r.DisplayName)
	fmt.Fprintf(&b, "**类别**: %s\n", r.Category)
	fmt.Fprintf(&b, "**描述**: %s\n", r.Description)
	if r.CreatorNotes != "" {
		fmt.Fprintf(&b, "\n**使用说明**: %s\n", r.CreatorNotes)
	}
	b.WriteString("\n> 此规则由 AI Role Master 插件自动生成并管理。\n")
	fmt.Fprintf(&b, "> 当你与 AI 对话时，AI 将自动扮演 \"%s\" 这个角色。\n", r.DisplayName)

	return b.String()
}

func section(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "\n---\n\n## %s\n\n%s\n", title, body)
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

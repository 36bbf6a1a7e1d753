// Package compose turns roles into the instruction text handed to an external
// chat surface. Every function here is pure: same input, byte-identical output.
package compose

import (
	"fmt"
	"strings"

	"github.com/alanyang/role-master/internal/domain/role"
)

// MaxExampleReplies caps how many roster members get a line in the worked example.
const MaxExampleReplies = 3

const expertiseSep = "、"

const exampleQuestion = "我们应该重构现有代码还是新开发一个功能？"

// Compose builds the group-chat prompt for a roster, in roster order.
func Compose(roles []role.Role) string {
	var b strings.Builder
	n := len(roles)

	b.WriteString("# 一人公司群聊模式\n\n")
	b.WriteString("你现在要模拟一个专业团队的讨论场景。在这个场景中，你需要扮演多个不同的专业角色，每个角色都有自己的专业视角和职责。\n\n")
	fmt.Fprintf(&b, "## 参与角色（仅限以下 %d 个）\n\n", n)

	for i, r := range roles {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, r.DisplayName)
		writeProfile(&b, r)
		b.WriteString("---\n\n")
	}

	b.WriteString("## 讨论规则\n\n")
	fmt.Fprintf(&b, "1. **仅扮演上述 %d 个角色**：不要自行添加其他角色\n", n)
	b.WriteString("2. **专业视角**：每个角色从自己的专业角度提供意见\n")
	b.WriteString("3. **客观分析**：基于事实和数据，而非过度积极或夸赞\n")
	b.WriteString("4. **真实反馈**：指出风险、不足和潜在问题，不要只说好话\n")
	b.WriteString("5. **观点冲突**：不同角色可能有不同甚至冲突的观点，这是正常的\n")
	b.WriteString("6. **格式要求**：回答时请用 **[角色名]:** 作为前缀\n\n")

	b.WriteString("## 示例\n\n")
	fmt.Fprintf(&b, "问题：%s\n\n", exampleQuestion)
	for _, r := range roles[:min(MaxExampleReplies, n)] {
		fmt.Fprintf(&b, "%s 从 %s 的视角，我认为...（基于事实分析，指出优缺点）\n\n", ReplyPrefix(r), r.DisplayName)
	}

	b.WriteString("---\n\n")
	b.WriteString("现在，团队已就位，请开始提出你的问题或需求！\n")
	return b.String()
}

// ComposeAddition builds the block that folds one more persona into a session
// that is already running.
func ComposeAddition(r role.Role) string {
	var b strings.Builder
	b.WriteString("# 新成员加入群聊\n\n")
	b.WriteString("请将以下角色加入当前讨论：\n\n")
	fmt.Fprintf(&b, "## %s\n\n", r.DisplayName)
	writeProfile(&b, r)
	fmt.Fprintf(&b, "请让 **[%s]** 也参与到当前话题的讨论中，从 TA 的专业角度提供意见。\n", r.DisplayName)
	return b.String()
}

// ComposeApply is the short single-role prompt pasted into a running conversation.
func ComposeApply(r role.Role) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[我希望你以 %s 的身份回答]\n\n", r.DisplayName)
	b.WriteString(r.SystemPrompt)
	if r.Scenario != "" {
		fmt.Fprintf(&b, "\n\n工作场景：%s", r.Scenario)
	}
	if r.CharacterNote != "" {
		fmt.Fprintf(&b, "\n\n重要：%s", r.CharacterNote)
	}
	return b.String()
}

// ReplyPrefix is the bracketed name every group-chat reply line starts with.
func ReplyPrefix(r role.Role) string {
	return "**[" + r.DisplayName + "]:**"
}

func writeProfile(b *strings.Builder, r role.Role) {
	fmt.Fprintf(b, "**职责**：%s\n\n", r.Description)
	fmt.Fprintf(b, "**核心能力**：\n%s\n\n", r.SystemPrompt)
	if r.Scenario != "" {
		fmt.Fprintf(b, "**工作场景**：\n%s\n\n", r.Scenario)
	}
	if r.CharacterNote != "" {
		fmt.Fprintf(b, "**工作原则**：\n%s\n\n", r.CharacterNote)
	}
	fmt.Fprintf(b, "**专业领域**：%s\n\n", strings.Join(r.Expertise, expertiseSep))
}

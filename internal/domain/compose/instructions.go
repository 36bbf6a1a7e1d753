package compose

import (
	"fmt"
	"strings"

	"github.com/alanyang/role-master/internal/domain/role"
)

const instructionsHead = `# 一人公司群聊使用说明

## 核心理念

模拟真实的团队讨论，每个角色代表一个专业领域的专家，从各自的视角提供客观分析。

## 使用步骤

### 1. 启动群聊
- 启动提示已复制到剪贴板
- 粘贴到对话框
- AI 将准备扮演多个角色

### 2. 提出问题
直接描述你的需求或问题，例如：
- "我要开发一个用户管理系统，各位有什么建议？"
- "现有代码性能有问题，大家怎么看？"
- "这个功能优先级如何评估？"

### 3. 阅读多角度分析
AI 会以不同角色身份回答，每个角色从自己的专业角度指出问题、风险和建议。

### 4. 深入讨论
- 向特定角色提问："@产品经理，用户画像是什么？"
- 让角色互动："产品经理和前端工程师讨论一下"
- 要求总结："综合大家的意见给个方案"

## 当前参与角色

`

const instructionsTail = `

## 使用技巧

1. **明确问题**：问题越具体，各角色分析越有针对性
2. **引导讨论**：主动引导角色之间的讨论
3. **决策总结**：讨论后要求给出综合方案
4. **动态调整**：可随时添加或移除角色
`

// Instructions is the usage guide shown next to a freshly started group chat.
func Instructions(roles []role.Role) string {
	lines := make([]string, len(roles))
	for i, r := range roles {
		lines[i] = fmt.Sprintf("%d. **%s** - %s", i+1, r.DisplayName, r.Description)
	}
	return instructionsHead + strings.Join(lines, "\n") + instructionsTail
}

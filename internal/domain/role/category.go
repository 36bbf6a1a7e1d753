package role

type Category string

const (
	CategoryDevelopment Category = "development"
	CategoryDesign      Category = "design"
	CategoryProduct     Category = "product"
	CategoryTesting     Category = "testing"
	CategoryDevOps      Category = "devops"
	CategoryData        Category = "data"
	CategorySecurity    Category = "security"
	CategoryManagement  Category = "management"
	CategoryCustom      Category = "custom"
)

type categoryInfo struct {
	label string
	icon  string
}

// categories is the closed set of role categories. Every Category constant must
// have an entry; Label and Icon fall back to the raw value / "folder" otherwise.
var categories = map[Category]categoryInfo{
	CategoryDevelopment: {label: "开发工程", icon: "code"},
	CategoryDesign:      {label: "设计创意", icon: "symbol-color"},
	CategoryProduct:     {label: "产品管理", icon: "graph"},
	CategoryTesting:     {label: "质量测试", icon: "beaker"},
	CategoryDevOps:      {label: "运维部署", icon: "server"},
	CategoryData:        {label: "数据分析", icon: "database"},
	CategorySecurity:    {label: "安全审计", icon: "shield"},
	CategoryManagement:  {label: "项目管理", icon: "organization"},
	CategoryCustom:      {label: "自定义", icon: "star"},
}

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryDevelopment,
		CategoryDesign,
		CategoryProduct,
		CategoryTesting,
		CategoryDevOps,
		CategoryData,
		CategorySecurity,
		CategoryManagement,
		CategoryCustom,
	}
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Label is the human-readable group label shown in the catalog tree.
func (c Category) Label() string {
	if info, ok := categories[c]; ok {
		return info.label
	}
	return string(c)
}

func (c Category) Icon() string {
	if info, ok := categories[c]; ok {
		return info.icon
	}
	return "folder"
}

// ParseCategory maps a raw category string onto the closed set.
// Unknown values map to CategoryCustom with ok=false.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if c.Valid() {
		return c, true
	}
	return CategoryCustom, false
}

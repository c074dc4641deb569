package department

// 面向用户的 canonical 部门名：选择了对 CMA 与 AIC 都能合理对应的分组。
var canonicalDepartments = []string{
	"African Art",
	"American Art",
	"Ancient Near Eastern Art",
	"Asian Art",
	"Contemporary Art",
	"Decorative Arts",
	"Drawings",
	"Egyptian Art",
	"European Art",
	"Greek and Roman Art",
	"Islamic Art",
	"Medieval Art",
	"Modern Art",
	"Photography",
	"Prints",
	"Textiles",
}

// 原始部门名 -> canonical。
// 一个原始名只能归属一个 canonical：CMA 的 "Egyptian and Ancient Near Eastern Art" 归 Egyptian Art，
// AIC 的 "Ancient and Byzantine Art" 归 Greek and Roman Art，"Prints and Drawings" 归 Prints。
var builtinTables = map[string]map[string]string{
	"cma": {
		"African Art":                            "African Art",
		"American Painting and Sculpture":        "American Art",
		"Egyptian and Ancient Near Eastern Art":  "Egyptian Art",
		"Chinese Art":                            "Asian Art",
		"Japanese Art":                           "Asian Art",
		"Korean Art":                             "Asian Art",
		"Indian and South East Asian Art":        "Asian Art",
		"Contemporary Art":                       "Contemporary Art",
		"Decorative Art and Design":              "Decorative Arts",
		"Drawings":                               "Drawings",
		"European Painting and Sculpture":        "European Art",
		"Modern European Painting and Sculpture": "Modern Art",
		"Greek and Roman Art":                    "Greek and Roman Art",
		"Islamic Art":                            "Islamic Art",
		"Medieval Art":                           "Medieval Art",
		"Photography":                            "Photography",
		"Prints":                                 "Prints",
		"Textiles":                               "Textiles",
	},
	"aic": {
		"Arts of Africa":                   "African Art",
		"American Art":                     "American Art",
		"Ancient and Byzantine Art":        "Greek and Roman Art",
		"Asian Art":                        "Asian Art",
		"Contemporary Art":                 "Contemporary Art",
		"Applied Arts of Europe":           "Decorative Arts",
		"Prints and Drawings":              "Prints",
		"Painting and Sculpture of Europe": "European Art",
		"European Decorative Arts":         "European Art",
		"Islamic Art":                      "Islamic Art",
		"Medieval Art":                     "Medieval Art",
		"Modern Art":                       "Modern Art",
		"Photography and Media":            "Photography",
		"Textiles":                         "Textiles",
	},
}

var defaultMapping = mustNew(canonicalDepartments, builtinTables)

// Default 返回内置的 CMA/AIC 部门映射。
func Default() Mapping { return defaultMapping }

func mustNew(canonical []string, tables map[string]map[string]string) Mapping {
	m, err := New(canonical, tables)
	if err != nil {
		panic(err)
	}
	return m
}

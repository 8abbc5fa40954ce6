package rp

import "strings"

// FuncStr generates a string such as
// `my_stage_name(["ctxVar1"], ["ctxVar2"])`
// from the inputs FuncStr("my_stage_name", "ctxVar1", "ctxVar2")
func FuncStr(name string, ctxDependencies ...string) string {
	return name + "(" + quoteKeys(ctxDependencies) + ")"
}

// InOut wraps a stage name with arrows to show that it consumes the previous output and produces one.
func InOut(name string) string {
	return "  => " + name + " =>"
}

func quoteKeys(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = `["` + k + `"]`
	}
	return strings.Join(quoted, ", ")
}

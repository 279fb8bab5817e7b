package planner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/replicadse/workflow/internal/errs"
)

// placeholderRe matches a simple handlebars variable interpolation such as
// {{ foo.bar }}; block helpers and partials are out of scope for task
// scripts (§3/§4.3 only describe plain placeholder substitution).
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)*)\s*\}\}`)

// Render renders a task script's handlebars placeholders against ctx in
// strict mode: any referenced path that is not present in ctx fails the
// render instead of silently substituting an empty string (§4.3: "Render
// each task's script via handlebars in strict mode").
//
// raymond itself renders an unresolved path as "" (matching handlebars.js's
// default, non-strict behavior), so strictness is enforced here by
// pre-checking every placeholder's path against ctx before handing the
// template to raymond.
func Render(script string, ctx map[string]interface{}) (string, error) {
	for _, m := range placeholderRe.FindAllStringSubmatch(script, -1) {
		path := m[1]
		if _, ok := lookupPath(ctx, strings.Split(path, ".")); !ok {
			return "", errs.New(errs.KindHandlebars, fmt.Sprintf("missing key %q", path))
		}
	}

	out, err := raymond.Render(script, ctx)
	if err != nil {
		return "", errs.Wrap(errs.KindHandlebars, err, "")
	}
	return out, nil
}

func lookupPath(ctx map[string]interface{}, parts []string) (interface{}, bool) {
	var cur interface{} = ctx
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[p]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

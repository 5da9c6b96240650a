package dimension

// flattenView converts a ContentView tree into a plain content value and a
// mirroring view value.
//
// Slices and block maps containing ContentViews produce a view of the same
// shape; everything else keeps the view of the ContentView it came from.
func flattenView(cv ContentView) (any, any) {
	switch c := cv.Content().(type) {
	case ContentView:
		content, view := flattenView(c)
		if len(cv.View()) > 0 {
			return content, cv.View()
		}
		return content, view

	case []any:
		if !containsStructure(c) {
			return c, cv.View()
		}
		contents := make([]any, len(c))
		views := make([]any, len(c))
		for i, entry := range c {
			contents[i], views[i] = flattenEntry(entry)
		}
		return contents, views

	case map[string]any:
		if !containsView(c) {
			return c, cv.View()
		}
		return flattenMap(c)

	default:
		return c, cv.View()
	}
}

func flattenEntry(entry any) (any, any) {
	switch e := entry.(type) {
	case ContentView:
		return flattenView(e)
	case map[string]any:
		if containsView(e) {
			return flattenMap(e)
		}
	}
	return entry, map[string]any{}
}

func flattenMap(m map[string]any) (map[string]any, map[string]any) {
	content := make(map[string]any, len(m))
	view := make(map[string]any, len(m))
	for key, value := range m {
		if cv, ok := value.(ContentView); ok {
			content[key], view[key] = flattenView(cv)
			continue
		}
		content[key] = value
		view[key] = value
	}
	return content, view
}

func containsStructure(entries []any) bool {
	for _, entry := range entries {
		switch e := entry.(type) {
		case ContentView:
			return true
		case map[string]any:
			if containsView(e) {
				return true
			}
		}
	}
	return false
}

func containsView(m map[string]any) bool {
	for _, v := range m {
		if _, ok := v.(ContentView); ok {
			return true
		}
	}
	return false
}

// replaceResources returns a copy of v with every ResolvableResource replaced by
// its loaded and merged value.
func replaceResources(v any, loaded map[string]map[string]any) any {
	switch t := v.(type) {
	case *ResolvableResource:
		if t == nil {
			return nil
		}
		return t.Apply(loaded[t.LoaderKey][t.ID])
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = replaceResources(item, loaded)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = replaceResources(item, loaded)
		}
		return out
	default:
		return v
	}
}

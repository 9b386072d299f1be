package nodes

// propertier is implemented by ops with settings beyond their sockets.
type propertier interface {
	Properties() map[string]interface{}
}

// Describe returns a plain representation of g suitable for encoding as
// YAML or JSON: interface, nodes with their settings and placement, links.
func Describe(g *Graph) map[string]interface{} {
	var iface []interface{}
	for _, s := range g.Interface {
		d := map[string]interface{}{
			"name":   s.Name,
			"in_out": s.InOut.String(),
			"type":   s.Kind.String(),
		}
		if s.Panel != nil {
			d["panel"] = s.Panel.Name
		}
		if s.Description != "" {
			d["description"] = s.Description
		}
		if s.DefaultAttributeName != "" {
			d["default_attribute_name"] = s.DefaultAttributeName
		}
		if s.InOut == Input && s.Kind != KindGeometry {
			d["default"] = plain(s.Default)
			if s.Kind == KindFloat || s.Kind == KindInt {
				d["min"] = s.Min
				d["max"] = s.Max
			}
		}
		iface = append(iface, d)
	}

	var nodes []interface{}
	for _, n := range g.Nodes {
		d := map[string]interface{}{
			"name":     n.Name,
			"type":     n.Op.Type(),
			"location": []interface{}{n.Location[0], n.Location[1]},
			"width":    n.Width,
			"height":   n.Height,
		}
		if n.Label != "" {
			d["label"] = n.Label
		}
		if p, ok := n.Op.(propertier); ok {
			d["properties"] = p.Properties()
		}
		var inputs []interface{}
		for _, s := range n.Inputs {
			if s.Default == nil || len(g.LinksTo(s)) > 0 {
				continue
			}
			inputs = append(inputs, map[string]interface{}{"name": s.Name, "default": plain(s.Default)})
		}
		if len(inputs) > 0 {
			d["inputs"] = inputs
		}
		nodes = append(nodes, d)
	}

	var links []interface{}
	for _, l := range g.Links {
		links = append(links, map[string]interface{}{
			"from":  l.From.String(),
			"to":    l.To.String(),
			"valid": l.Valid,
		})
	}

	return map[string]interface{}{
		"name":        g.Name,
		"description": g.Description,
		"is_modifier": g.IsModifier,
		"interface":   iface,
		"nodes":       nodes,
		"links":       links,
	}
}

func plain(v Value) interface{} {
	switch x := v.(type) {
	case Float:
		return float64(x)
	case Int:
		return int(x)
	case Bool:
		return bool(x)
	case Vector:
		return []interface{}{x[0], x[1], x[2]}
	case nil:
		return nil
	}
	return v.Kind().String()
}

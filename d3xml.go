/*
Copyright © 2021 the TagTools authors.
This file is part of TagTools.

TagTools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

TagTools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with TagTools.  If not, see <http://www.gnu.org/licenses/>.
*/

package tagtools

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// XMLNode is an element of a DTAG metadata file.
type XMLNode struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*XMLNode
}

// ReadD3XML reads the DTAG metadata file at path and returns its root
// element.
func ReadD3XML(path string) (*XMLNode, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("tagtools: %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("tagtools: reading xml: %w", err)
	}
	defer f.Close()
	root, err := parseXML(f)
	if err != nil {
		return nil, fmt.Errorf("tagtools: parsing %s: %w", path, err)
	}
	return root, nil
}

func parseXML(r io.Reader) (*XMLNode, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	var root *XMLNode
	var stack []*XMLNode
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &XMLNode{Name: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("more than one root element")
				}
				root = n
			} else {
				p := stack[len(stack)-1]
				p.Children = append(p.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				n := stack[len(stack)-1]
				n.Text = strings.TrimSpace(n.Text)
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

// Find returns the direct children called name.
func (n *XMLNode) Find(name string) []*XMLNode {
	var o []*XMLNode
	for _, c := range n.Children {
		if c.Name == name {
			o = append(o, c)
		}
	}
	return o
}

// First returns the first direct child called name, or nil.
func (n *XMLNode) First(name string) *XMLNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Value returns the text of the first child called name or, failing
// that, the attribute called name.
func (n *XMLNode) Value(name string) (string, bool) {
	if c := n.First(name); c != nil {
		return c.Text, true
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// Map converts the element to nested maps. Attributes are keyed by
// "@name", text by "#text" and repeated children become slices. An
// element with only text becomes a string.
func (n *XMLNode) Map() interface{} {
	if len(n.Attrs) == 0 && len(n.Children) == 0 {
		return n.Text
	}
	m := make(map[string]interface{})
	for k, v := range n.Attrs {
		m["@"+k] = v
	}
	for _, c := range n.Children {
		v := c.Map()
		switch prev := m[c.Name].(type) {
		case nil:
			m[c.Name] = v
		case []interface{}:
			m[c.Name] = append(prev, v)
		default:
			m[c.Name] = []interface{}{prev, v}
		}
	}
	if n.Text != "" {
		m["#text"] = n.Text
	}
	return m
}

// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package htree

import (
	"strings"
	"sync"
)

const whitespace = " \t\r\n\f\v"

// DocType is a <!DOCTYPE ...> declaration.
type DocType struct {
	leaf

	once     sync.Once
	name     string
	publicID string
	systemID string
}

// NewDocType creates a document type declaration node from its source text.
func NewDocType(raw string) *DocType { return &DocType{leaf: leaf{raw: raw}} }

func (*DocType) NodeTest() string { return "doctype()" }

// Name returns the lowercase root element name of the declaration.
func (d *DocType) Name() string {
	d.once.Do(d.parse)
	return d.name
}

// PublicID returns the public identifier, or "".
func (d *DocType) PublicID() string {
	d.once.Do(d.parse)
	return d.publicID
}

// SystemID returns the system identifier, or "".
func (d *DocType) SystemID() string {
	d.once.Do(d.parse)
	return d.systemID
}

// parse parses the declaration into a name, a public identifier and a system
// identifier.
func (d *DocType) parse() {
	s := d.raw
	if len(s) >= len("<!DOCTYPE") {
		s = s[len("<!DOCTYPE"):]
	}
	s = strings.TrimSuffix(s, ">")
	s = strings.TrimLeft(s, whitespace)

	// Find the name.
	space := strings.IndexAny(s, whitespace)
	if space == -1 {
		space = len(s)
	}
	d.name = strings.ToLower(s[:space])
	s = strings.TrimLeft(s[space:], whitespace)

	if len(s) < 6 {
		// It can't start with "PUBLIC" or "SYSTEM".
		return
	}

	key := strings.ToLower(s[:6])
	s = s[6:]
	for key == "public" || key == "system" {
		s = strings.TrimLeft(s, whitespace)
		if s == "" {
			break
		}
		quote := s[0]
		if quote != '"' && quote != '\'' {
			break
		}
		s = s[1:]
		var id string
		if q := strings.IndexByte(s, quote); q == -1 {
			id, s = s, ""
		} else {
			id, s = s[:q], s[q+1:]
		}
		if key == "public" {
			d.publicID = id
			key = "system"
		} else {
			d.systemID = id
			key = ""
		}
	}
}

// Package assets holds pictures compiled into the binary so the trap
// feature works without any files on disk.
package assets

import _ "embed"

//go:embed trap_set.jpg
var TrapSet []byte

//go:embed trap_sprung.jpg
var TrapSprung []byte

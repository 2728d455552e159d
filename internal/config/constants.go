package config

import "strings"

const SourceFileExt = ".ms"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".ms", ".mscript"}

// BundleFileExt is the extension used for encoded programs.
const BundleFileExt = ".msc"

// Hard language limits. Exceeding any of them is a reported error.
const (
	MaxSymbolLen      = 31
	MaxFunctionArgs   = 15
	MaxStructMembers  = 15
	MaxNestingDepth   = 256
	MaxConstants      = 0xffff
	MaxLocalsPerFrame = 0xffff
)

// Built-in function names
const (
	LenFuncName    = "len"
	AppendFuncName = "append"
)

// Built-in type names
const (
	VoidTypeName    = "void"
	PointerTypeName = "voidptr"
	IntTypeName     = "int"
	FloatTypeName   = "float"
	BoolTypeName    = "bool"
	StringTypeName  = "string"
)

// InitFuncName names the synthetic function that initializes globals.
const InitFuncName = "<init>"

// HasSourceExt reports whether path ends in a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// TrimSourceExt removes a recognized source extension from name.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

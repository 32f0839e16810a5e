package config

const SourceFileExt = ".lf"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".lf"}

// ConfigFileName is the optional per-directory CLI configuration file.
const ConfigFileName = "linefeed.yml"

// Built-in function names, in registration order. The resolver turns a
// reference to one of these into an index; the VM registers implementations
// in the same order. Keep the two in sync by using BuiltinIndex.
var Builtins = []string{
	"print",
	"input",
	"int",
	"str",
	"repr",
	"list",
	"tuple",
	"map",
	"defaultmap",
	"set",
	"sum",
	"mul",
	"all",
	"any",
	"max",
	"min",
	"abs",
}

var builtinIndex = func() map[string]int {
	m := make(map[string]int, len(Builtins))
	for i, name := range Builtins {
		m[name] = i
	}
	return m
}()

// BuiltinIndex returns the registration index for a builtin name, or -1.
func BuiltinIndex(name string) int {
	if i, ok := builtinIndex[name]; ok {
		return i
	}
	return -1
}

package codegen

import "embed"

// asmFS embeds the four builtin I/O routines' NASM source directly into
// the binary, so the compiler carries its own runtime without reading
// from disk at compile time.
//
//go:embed asm/getint.asm asm/putint.asm asm/getchar.asm asm/putchar.asm
var asmFS embed.FS

var builtinFiles = map[string]string{
	"getint":  "asm/getint.asm",
	"putint":  "asm/putint.asm",
	"getchar": "asm/getchar.asm",
	"putchar": "asm/putchar.asm",
}

// builtinSource returns the embedded NASM source for one of the four
// builtin I/O routines, panicking on an unknown name since the set is
// closed and checked at the call site.
func builtinSource(name string) string {
	path, ok := builtinFiles[name]
	if !ok {
		panic("codegen: unknown builtin " + name)
	}
	data, err := asmFS.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return string(data)
}

package identity

import "strings"

// DefaultSymbolPackage is the package whose Version and Commit variables are
// overwritten at link time.
const DefaultSymbolPackage = "main"

// LinkerFlags composes the value passed to `go build -ldflags` / `go run -ldflags`:
//
//	-X main.Version=dev -X main.Commit=<identity>
//
// The two substitutions are always separated by a single space.
func LinkerFlags(symbolPkg string, id BuildIdentity) string {
	if symbolPkg == "" {
		symbolPkg = DefaultSymbolPackage
	}
	return strings.Join([]string{
		"-X", symbolPkg + ".Version=" + DevVersion,
		"-X", symbolPkg + ".Commit=" + id.String(),
	}, " ")
}

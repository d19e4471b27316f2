package loader

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	pkgsource "github.com/goliatone/go-buildergen/pkg/source"
)

// Loader implements pkgsource.Loader. Package patterns go through
// golang.org/x/tools/go/packages; files, fs.FS entries and bytes are parsed
// directly.
type Loader struct {
	options pkgsource.LoaderOptions
}

var _ pkgsource.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options pkgsource.LoaderOptions) pkgsource.Loader {
	return &Loader{options: options}
}

// Load parses the declarations referenced by src.
func (l *Loader) Load(ctx context.Context, src pkgsource.Source) (pkgsource.Package, error) {
	if src == nil {
		return pkgsource.Package{}, errors.New("source loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return pkgsource.Package{}, err
	}

	switch src.Kind() {
	case pkgsource.KindPattern:
		return l.loadPattern(ctx, src.Location())
	case pkgsource.KindFile:
		return l.loadFile(src.Location())
	case pkgsource.KindFS:
		return l.loadFS(src.Location())
	case pkgsource.KindBytes:
		bytesSrc, ok := src.(pkgsource.BytesSource)
		if !ok {
			return pkgsource.Package{}, errors.New("source loader: bytes source has unexpected type")
		}
		return parseFiles("", map[string][]byte{bytesSrc.Name: bytesSrc.Content}, []string{bytesSrc.Name})
	default:
		return pkgsource.Package{}, fmt.Errorf("source loader: unsupported source kind %q", src.Kind())
	}
}

func (l *Loader) loadPattern(ctx context.Context, pattern string) (pkgsource.Package, error) {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:     l.options.Dir,
		Fset:    fset,
		Tests:   l.options.Tests,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			return parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
		},
	}
	if len(l.options.BuildTags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(l.options.BuildTags, ",")}
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return pkgsource.Package{}, fmt.Errorf("source loader: load %q: %w", pattern, err)
	}

	pkg, err := selectPackage(pkgs, pattern, l.options.Tests)
	if err != nil {
		return pkgsource.Package{}, err
	}
	if len(pkg.Errors) > 0 {
		messages := make([]string, 0, len(pkg.Errors))
		for _, pkgErr := range pkg.Errors {
			messages = append(messages, pkgErr.Error())
		}
		return pkgsource.Package{}, fmt.Errorf("source loader: package %s: %s", pkg.PkgPath, strings.Join(messages, "; "))
	}

	contents := make(map[string][]byte, len(pkg.Syntax))
	for _, file := range pkg.Syntax {
		name := fset.File(file.Pos()).Name()
		data, err := os.ReadFile(name)
		if err != nil {
			return pkgsource.Package{}, fmt.Errorf("source loader: read %s: %w", name, err)
		}
		contents[name] = data
	}

	dir := ""
	if len(pkg.GoFiles) > 0 {
		dir = filepath.Dir(pkg.GoFiles[0])
	}

	return pkgsource.Package{
		Name:     pkg.Name,
		Path:     pkg.PkgPath,
		Dir:      dir,
		Fset:     fset,
		Files:    pkg.Syntax,
		Contents: contents,
	}, nil
}

// selectPackage picks the single package a pattern resolved to. With tests
// enabled, go/packages returns several variants; the test-augmented package
// is preferred because it sees both regular and in-package test files.
func selectPackage(pkgs []*packages.Package, pattern string, tests bool) (*packages.Package, error) {
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("source loader: pattern %q matched no packages", pattern)
	}
	if tests {
		for _, pkg := range pkgs {
			if pkg.ID == fmt.Sprintf("%s [%s.test]", pkg.PkgPath, pkg.PkgPath) {
				return pkg, nil
			}
		}
	}

	var selected []*packages.Package
	for _, pkg := range pkgs {
		if strings.HasSuffix(pkg.ID, ".test") || strings.Contains(pkg.ID, " [") {
			continue
		}
		selected = append(selected, pkg)
	}
	if len(selected) != 1 {
		return nil, fmt.Errorf("source loader: pattern %q matched %d packages, want 1", pattern, len(selected))
	}
	return selected[0], nil
}

func (l *Loader) loadFile(filename string) (pkgsource.Package, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return pkgsource.Package{}, fmt.Errorf("source loader: read %s: %w", filename, err)
	}
	return parseFiles(filepath.Dir(filename), map[string][]byte{filename: data}, []string{filename})
}

func (l *Loader) loadFS(location string) (pkgsource.Package, error) {
	fsys := l.options.FileSystem
	if fsys == nil {
		return pkgsource.Package{}, errors.New("source loader: fs source requires a file system")
	}

	info, err := fs.Stat(fsys, location)
	if err != nil {
		return pkgsource.Package{}, fmt.Errorf("source loader: stat %s: %w", location, err)
	}

	var names []string
	if info.IsDir() {
		entries, err := fs.ReadDir(fsys, location)
		if err != nil {
			return pkgsource.Package{}, fmt.Errorf("source loader: read dir %s: %w", location, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".go") {
				continue
			}
			if strings.HasSuffix(name, "_test.go") && !l.options.Tests {
				continue
			}
			names = append(names, path.Join(location, name))
		}
	} else {
		names = []string{location}
	}
	if len(names) == 0 {
		return pkgsource.Package{}, fmt.Errorf("source loader: no Go files in %s", location)
	}

	contents := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return pkgsource.Package{}, fmt.Errorf("source loader: read %s: %w", name, err)
		}
		contents[name] = data
	}

	dir := location
	if !info.IsDir() {
		dir = path.Dir(location)
	}
	return parseFiles(dir, contents, names)
}

// parseFiles parses names in order. External test packages (name_test) are
// skipped so a directory listing behaves like the build system.
func parseFiles(dir string, contents map[string][]byte, names []string) (pkgsource.Package, error) {
	fset := token.NewFileSet()
	pkg := pkgsource.Package{
		Dir:      dir,
		Fset:     fset,
		Contents: contents,
	}

	for _, name := range names {
		file, err := parser.ParseFile(fset, name, contents[name], parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return pkgsource.Package{}, fmt.Errorf("source loader: parse %s: %w", name, err)
		}
		fileName := file.Name.Name
		if len(names) > 1 && strings.HasSuffix(fileName, "_test") {
			continue
		}
		if pkg.Name == "" {
			pkg.Name = fileName
		} else if pkg.Name != fileName {
			return pkgsource.Package{}, fmt.Errorf("source loader: found packages %s and %s in %s", pkg.Name, fileName, dir)
		}
		pkg.Files = append(pkg.Files, file)
	}

	return pkg, nil
}

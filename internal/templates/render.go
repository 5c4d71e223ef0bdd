package templates

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	lineNumberRe   = regexp.MustCompile(`:(\d+):`)
	templateCallRe = regexp.MustCompile(`\{\{-?\s*template\s+"([^"]+)"`)
)

// Renderer handles template rendering
type Renderer struct {
	mu        sync.RWMutex
	templates *template.Template
	debug     bool
	baseDir   string
	currency  string
}

// New creates a new template renderer. currency prefixes money values.
func New(templateDir, currency string, debug bool) (*Renderer, error) {
	r := &Renderer{
		debug:    debug,
		baseDir:  templateDir,
		currency: currency,
	}

	if err := r.loadTemplates(); err != nil {
		return nil, err
	}

	return r, nil
}

// funcMap returns the template function map
func (r *Renderer) funcMap() template.FuncMap {
	printer := message.NewPrinter(language.English)

	return template.FuncMap{
		"formatCount": func(v int) string {
			return printer.Sprintf("%d", v)
		},
		"formatMoney": func(v float64) string {
			return r.currency + " " + printer.Sprintf("%.2f", v)
		},
		"formatShare": func(v float64) string {
			return printer.Sprintf("%.1f%%", v*100)
		},
		"selected": func(values []string, v string) bool {
			return slices.Contains(values, v)
		},
		"hours": func(from, to int) []int {
			var hs []int
			for h := from; h <= to; h++ {
				hs = append(hs, h)
			}
			return hs
		},
		"join": strings.Join,
	}
}

// loadTemplates parses every layout, page and partial and checks template references
func (r *Renderer) loadTemplates() error {
	tmpl := template.New("").Funcs(r.funcMap())

	var files []string
	for _, subdir := range []string{"layouts", "pages", "partials"} {
		pattern := filepath.Join(r.baseDir, subdir, "*.html")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("error globbing %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return fmt.Errorf("no template files found in %s", r.baseDir)
	}

	var problems []string
	sources := make(map[string]string, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			problems = append(problems, fmt.Sprintf("  %s: failed to read: %v", file, err))
			continue
		}
		sources[file] = string(content)

		if _, err := tmpl.New(filepath.Base(file)).Parse(string(content)); err != nil {
			problems = append(problems, formatTemplateError(file, string(content), err))
		}
	}
	if len(problems) == 0 {
		problems = undefinedReferences(tmpl, sources)
	}

	if len(problems) > 0 {
		log.Printf("TEMPLATE ERRORS in %s", r.baseDir)
		for _, p := range problems {
			log.Printf("%s", p)
		}
		return fmt.Errorf("template loading failed with %d error(s)", len(problems))
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	log.Printf("Templates loaded successfully: %d files", len(files))
	return nil
}

// formatTemplateError formats a parse error with the offending line and its neighbours
func formatTemplateError(file, content string, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  File: %s\n  Error: %s\n", file, err)

	m := lineNumberRe.FindStringSubmatch(err.Error())
	if m == nil {
		return sb.String()
	}
	lineNum, _ := strconv.Atoi(m[1])

	lines := strings.Split(content, "\n")
	for i := max(lineNum-3, 0); i < min(lineNum+2, len(lines)); i++ {
		marker := "   "
		if i+1 == lineNum {
			marker = ">>>"
		}
		fmt.Fprintf(&sb, "    %s %4d | %s\n", marker, i+1, lines[i])
	}
	return sb.String()
}

// undefinedReferences reports {{template "name"}} calls to templates that were never defined
func undefinedReferences(tmpl *template.Template, sources map[string]string) []string {
	var problems []string
	for file, content := range sources {
		for i, line := range strings.Split(content, "\n") {
			for _, match := range templateCallRe.FindAllStringSubmatch(line, -1) {
				if tmpl.Lookup(match[1]) == nil {
					problems = append(problems, fmt.Sprintf("  %s:%d: undefined template %q", file, i+1, match[1]))
				}
			}
		}
	}
	return problems
}

// Render executes a named template as an HTML response
func (r *Renderer) Render(w http.ResponseWriter, name string, data interface{}) error {
	// In debug mode, reload templates on each request
	if r.debug {
		if err := r.loadTemplates(); err != nil {
			log.Printf("Error reloading templates: %v", err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := r.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return err
	}
	return nil
}

// ExecuteTemplate executes a template to a writer
func (r *Renderer) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	r.mu.RLock()
	tmpl := r.templates
	r.mu.RUnlock()
	return tmpl.ExecuteTemplate(w, name, data)
}

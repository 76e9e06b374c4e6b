// Package walk implements the tree walker and .toteignore engine (§4.5).
//
// Grounded on original_source/tote/scan.py's scan_tree_relative (the
// recursive-generator walker, which Perkeep has no direct analog for) and
// make_ignore/load_rules/Rule/translate_match, expressed in the teacher's
// idiom of per-path os.Lstat branching (pkg/schema's save-side file
// inspection) plus a cached rule set scoped to one traversal (§4.9).
package walk

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Rule is one compiled line of a .toteignore file.
type Rule struct {
	pattern *regexp.Regexp
	negate  bool
}

// RuleSet is an ordered collection of rules from a single directory's
// .toteignore file, evaluated in file order.
type RuleSet []Rule

// Match evaluates name (a path relative to the directory owning this rule
// set) against each rule in order. The first rule that matches wins;
// matched is false if no rule fired, meaning the caller should consult the
// next ancestor.
func (rs RuleSet) Match(name string) (ignore bool, matched bool) {
	for _, r := range rs {
		if r.pattern.MatchString(name) {
			return !r.negate, true
		}
	}
	return false, false
}

// compileRule parses one .toteignore line. It returns ok=false for blank
// lines, comments, and the degenerate patterns that would ignore the
// directory the file applies to (§4.5).
func compileRule(line string) (Rule, bool) {
	if line == "" || strings.HasPrefix(line, "#") {
		return Rule{}, false
	}
	negate := false
	if strings.HasPrefix(line, "!") {
		negate = true
		line = line[1:]
	}
	if line == "" || line == "/" || line == "." {
		return Rule{}, false
	}
	return Rule{pattern: regexp.MustCompile(translateMatch(line)), negate: negate}, true
}

// translateMatch turns a .toteignore glob pattern into an anchored regular
// expression. A leading "/" anchors the match at the owning directory;
// otherwise the pattern may match at any depth beneath it (§4.5: "unanchored:
// matches if the pattern's trailing path parts equal-match the candidate's
// trailing parts").
func translateMatch(pattern string) string {
	anchored := strings.HasPrefix(pattern, "/")
	if anchored {
		pattern = pattern[1:]
	}
	pattern = strings.TrimRight(pattern, "/")

	var sb strings.Builder
	if anchored {
		sb.WriteString("^")
	} else {
		sb.WriteString("^(.*/)?")
	}

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				sb.WriteString(regexp.QuoteMeta(string(c)))
				i++
				continue
			}
			end = i + 1 + end
			inner := pattern[i+1 : end]
			sb.WriteString("[")
			if strings.HasPrefix(inner, "!") {
				sb.WriteString("^")
				inner = inner[1:]
			}
			sb.WriteString(inner)
			sb.WriteString("]")
			i = end + 1
		case '*':
			sb.WriteString("[^/]*")
			i++
		case '?':
			sb.WriteString("[^/]?")
			i++
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	sb.WriteString("$")
	return sb.String()
}

func loadRuleSet(dir string) (RuleSet, error) {
	f, err := os.Open(filepath.Join(dir, ".toteignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rules RuleSet
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if r, ok := compileRule(scanner.Text()); ok {
			rules = append(rules, r)
		}
	}
	return rules, scanner.Err()
}

// IgnoreEngine evaluates .toteignore rules for paths beneath a single base
// directory. Its per-directory rule cache is scoped to one traversal and
// must not be shared or reused process-wide (§4.9).
type IgnoreEngine struct {
	base string
	mu   sync.Mutex
	by   map[string]RuleSet
}

// NewIgnoreEngine returns an engine rooted at base.
func NewIgnoreEngine(base string) *IgnoreEngine {
	return &IgnoreEngine{base: filepath.Clean(base), by: map[string]RuleSet{}}
}

func (e *IgnoreEngine) rulesFor(dir string) (RuleSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rs, ok := e.by[dir]; ok {
		return rs, nil
	}
	rs, err := loadRuleSet(dir)
	if err != nil {
		return nil, err
	}
	e.by[dir] = rs
	return rs, nil
}

// Ignore reports whether path (absolute, beneath the engine's base) should
// be excluded from a scan (§4.5 rule evaluation).
func (e *IgnoreEngine) Ignore(path string) (bool, error) {
	return e.check(filepath.Clean(path), "")
}

func (e *IgnoreEngine) check(path, name string) (bool, error) {
	if path == e.base {
		return false, nil
	}
	parent := filepath.Dir(path)
	var relName string
	if name == "" {
		relName = filepath.Base(path)
	} else {
		relName = filepath.Base(path) + "/" + name
	}
	if parent == path {
		// Walked above the filesystem root without reaching base.
		return false, nil
	}
	if parent == e.base && relName == ".tote" {
		return true, nil
	}
	rules, err := e.rulesFor(parent)
	if err != nil {
		return false, err
	}
	if ignore, matched := rules.Match(relName); matched {
		return ignore, nil
	}
	return e.check(parent, relName)
}

package typechecker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"yuho/core-go/pkg/ast"
)

// maxSection is the highest section number a citation may name.
const maxSection = 10000

type CitationIssueKind string

const (
	InvalidSection      CitationIssueKind = "InvalidSection"
	InvalidSubsection   CitationIssueKind = "InvalidSubsection"
	UnresolvedReference CitationIssueKind = "UnresolvedReference"
)

// CitationRef is one Citation type found in a program, with a description
// of where it was written.
type CitationRef struct {
	Section    string
	Subsection string
	Act        string
	Location   string
	Span       ast.Span
}

func (c CitationRef) String() string {
	if c.Subsection == "" {
		return fmt.Sprintf("s%s %s", c.Section, c.Act)
	}
	return fmt.Sprintf("s%s(%s) %s", c.Section, c.Subsection, c.Act)
}

type CitationIssue struct {
	Kind     CitationIssueKind
	Citation CitationRef
	Message  string
}

// CitationReport indexes every citation by act and lists the problems found.
type CitationReport struct {
	Citations []CitationRef
	ByAct     map[string][]CitationRef
	// DefinedActs are the scope names, plus struct names mentioning Act,
	// Statute or Code, sorted.
	DefinedActs []string
	Issues      []CitationIssue
}

func (r CitationReport) HasIssues() bool {
	return len(r.Issues) > 0
}

// CitationsOf returns the citations naming act, in program order.
func (r CitationReport) CitationsOf(act string) []CitationRef {
	return r.ByAct[act]
}

func (r CitationReport) Summary() string {
	return fmt.Sprintf("Citations: %d, Errors: %d, Defined Acts: %d", len(r.Citations), len(r.Issues), len(r.DefinedActs))
}

// ValidateCitations collects every citation in the programs and checks its
// section and subsection format. When the programs define any acts, a
// citation of an act outside that set is unresolved. All issues are
// reported; nothing stops at the first one.
func ValidateCitations(programs ...*ast.Program) CitationReport {
	report := CitationReport{ByAct: make(map[string][]CitationRef)}
	defined := make(map[string]bool)
	for _, program := range programs {
		if program == nil {
			continue
		}
		collectActs(program.Items, defined)
		collectCitations(program.Items, &report.Citations)
	}
	for act := range defined {
		report.DefinedActs = append(report.DefinedActs, act)
	}
	sort.Strings(report.DefinedActs)

	for _, ref := range report.Citations {
		report.ByAct[ref.Act] = append(report.ByAct[ref.Act], ref)
		if !validSection(ref.Section) {
			report.Issues = append(report.Issues, CitationIssue{
				Kind:     InvalidSection,
				Citation: ref,
				Message:  fmt.Sprintf("invalid section '%s' of %s in %s", ref.Section, ref.Act, ref.Location),
			})
		}
		if !validSubsection(ref.Subsection) {
			report.Issues = append(report.Issues, CitationIssue{
				Kind:     InvalidSubsection,
				Citation: ref,
				Message:  fmt.Sprintf("invalid subsection '%s' of section %s of %s in %s", ref.Subsection, ref.Section, ref.Act, ref.Location),
			})
		}
		if len(defined) > 0 && !defined[ref.Act] {
			report.Issues = append(report.Issues, CitationIssue{
				Kind:     UnresolvedReference,
				Citation: ref,
				Message:  fmt.Sprintf("%s in %s cites an act that is not defined", ref, ref.Location),
			})
		}
	}
	return report
}

func collectActs(items []ast.Item, defined map[string]bool) {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.Scope:
			defined[it.Name] = true
			collectActs(it.Items, defined)
		case *ast.StructDefinition:
			if strings.Contains(it.Name, "Act") || strings.Contains(it.Name, "Statute") || strings.Contains(it.Name, "Code") {
				defined[it.Name] = true
			}
		}
	}
}

func collectCitations(items []ast.Item, out *[]CitationRef) {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.Scope:
			collectCitations(it.Items, out)
		case *ast.StructDefinition:
			for _, field := range it.Fields {
				citationsIn(field.FieldType, fmt.Sprintf("struct %s.%s", it.Name, field.Name), out)
			}
		case *ast.Declaration:
			citationsIn(it.DeclType, "declaration "+it.Name, out)
		case *ast.FunctionDefinition:
			for _, param := range it.Params {
				citationsIn(param.ParamType, fmt.Sprintf("function %s parameter %s", it.Name, param.Name), out)
			}
			citationsIn(it.ReturnType, fmt.Sprintf("function %s return type", it.Name), out)
		case *ast.LegalTestDefinition:
			for _, req := range it.Requirements {
				citationsIn(req.RequirementType, fmt.Sprintf("legal test %s requirement %s", it.Name, req.Name), out)
			}
		case *ast.TypeAliasDefinition:
			citationsIn(it.Target, "type alias "+it.Name, out)
		}
	}
}

func citationsIn(t ast.TypeExpression, location string, out *[]CitationRef) {
	switch typ := t.(type) {
	case *ast.CitationType:
		*out = append(*out, CitationRef{
			Section:    typ.Section,
			Subsection: typ.Subsection,
			Act:        typ.Act,
			Location:   location,
			Span:       typ.Span(),
		})
	case *ast.ArrayType:
		citationsIn(typ.Element, location, out)
	case *ast.UnionType:
		citationsIn(typ.Left, location, out)
		citationsIn(typ.Right, location, out)
	case *ast.NonEmptyType:
		citationsIn(typ.Inner, location, out)
	case *ast.TemporalValueType:
		citationsIn(typ.Inner, location, out)
	case *ast.GenericType:
		for _, arg := range typ.Arguments {
			citationsIn(arg, location, out)
		}
	}
}

// validSection requires a leading number from 1 to maxSection, as in "415"
// or "415A".
func validSection(section string) bool {
	end := strings.IndexFunc(section, func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		end = len(section)
	}
	digits := section[:end]
	if digits == "" {
		return false
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	return err == nil && n >= 1 && n <= maxSection
}

// validSubsection accepts an empty subsection, all digits, all letters
// (including roman numerals), or one digit followed by letters.
func validSubsection(sub string) bool {
	if sub == "" {
		return true
	}
	runes := []rune(sub)
	if allRunes(runes, unicode.IsDigit) || allRunes(runes, unicode.IsLetter) {
		return true
	}
	return len(runes) >= 2 && unicode.IsDigit(runes[0]) && allRunes(runes[1:], unicode.IsLetter)
}

func allRunes(runes []rune, pred func(rune) bool) bool {
	for _, r := range runes {
		if !pred(r) {
			return false
		}
	}
	return true
}
